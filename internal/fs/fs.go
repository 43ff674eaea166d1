// Package fs is the filesystem layer used for snapshot targets. It wraps an
// afero.Fs so the same code runs against the OS and against in-memory
// filesystems in tests, and adds retrying copy and rename operations.
package fs

import (
	"context"
	"os"
	"time"

	"github.com/spf13/afero"
)

type FileInfo struct {
	Path  string
	Size  int64
	MTime time.Time
	Inode uint64
	Mode  os.FileMode
}

type FS interface {
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
	CopyFile(ctx context.Context, src, dst string) error
	CopyTree(ctx context.Context, src, dst string, exclude ...string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	MkdirAll(path string) error
	RemoveAll(path string) error
}

// Afero is the FS implementation over an afero.Fs.
type Afero struct {
	fs afero.Fs
}

func New(base afero.Fs) *Afero {
	return &Afero{fs: base}
}

// OS returns an FS backed by the local operating system.
func OS() *Afero {
	return New(afero.NewOsFs())
}

// Base exposes the underlying afero filesystem.
func (a *Afero) Base() afero.Fs {
	return a.fs
}

func (a *Afero) Stat(path string) (FileInfo, error) {
	st, err := a.fs.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return fileInfo(path, st), nil
}

func (a *Afero) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(a.fs, path)
}

func (a *Afero) MkdirAll(path string) error {
	return a.fs.MkdirAll(path, 0o755)
}

func (a *Afero) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

func (a *Afero) CopyFile(ctx context.Context, src, dst string) error {
	return copyWithRetry(ctx, a.fs, src, dst)
}

func (a *Afero) CopyTree(ctx context.Context, src, dst string, exclude ...string) error {
	return copyTree(ctx, a.fs, src, dst, exclude...)
}

func (a *Afero) Rename(ctx context.Context, oldPath, newPath string) error {
	return renameWithRetry(ctx, a.fs, oldPath, newPath)
}

func fileInfo(path string, st os.FileInfo) FileInfo {
	return FileInfo{
		Path:  path,
		Size:  st.Size(),
		MTime: st.ModTime(),
		Inode: inodeOf(st),
		Mode:  st.Mode(),
	}
}
