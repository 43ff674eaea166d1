//go:build windows

package fs

import "os"

// Windows does not expose POSIX inodes; change detection falls back to size
// and modification time.
func inodeOf(os.FileInfo) uint64 {
	return 0
}
