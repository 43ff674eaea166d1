package orchestrator

import "github.com/raoulx24/ghee/internal/job"

// task is one selected job and its position in configuration order.
type task struct {
	index int
	job   *job.Job
}

// queue hands tasks to workers. It is filled completely and closed before
// the workers start, so pop only fails once every task was taken.
type queue struct {
	ch chan task
}

func newQueue(jobs []job.Job) *queue {
	q := &queue{ch: make(chan task, len(jobs))}
	for i := range jobs {
		q.ch <- task{index: i, job: &jobs[i]}
	}
	close(q.ch)
	return q
}

func (q *queue) pop() (task, bool) {
	t, ok := <-q.ch
	return t, ok
}
