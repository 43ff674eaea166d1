package fs

import (
	"context"

	"github.com/spf13/afero"
)

// renameWithRetry is the atomic step that publishes a finished snapshot.
func renameWithRetry(ctx context.Context, f afero.Fs, oldPath, newPath string) error {
	return retry(ctx, "rename "+oldPath, func() error {
		return f.Rename(oldPath, newPath)
	})
}
