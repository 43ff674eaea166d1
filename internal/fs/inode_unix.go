//go:build unix

package fs

import (
	"os"
	"syscall"
)

// inodeOf returns 0 when info carries no Stat_t, as with afero's MemMapFs,
// which disables the inode check in sourceChanged.
func inodeOf(info os.FileInfo) uint64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Ino)
	}
	return 0
}
