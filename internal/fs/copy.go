package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// copyWithRetry copies a single file and aborts if the source changes
// between attempts.
func copyWithRetry(ctx context.Context, f afero.Fs, src, dst string) error {
	st, err := f.Stat(src)
	if err != nil {
		return err
	}
	orig := fileInfo(src, st)

	return retry(ctx, "copy "+src, func() error {
		st, err := f.Stat(src)
		if err != nil {
			return err
		}

		if sourceChanged(orig, fileInfo(src, st)) {
			return fmt.Errorf("source changed during copy")
		}

		if err := copyOnce(f, src, dst, orig.Mode.Perm()); err != nil {
			return err
		}
		return f.Chtimes(dst, orig.MTime, orig.MTime)
	})
}

func sourceChanged(orig, now FileInfo) bool {
	if now.Inode != 0 && orig.Inode != 0 && now.Inode != orig.Inode {
		return true
	}
	if now.MTime.After(orig.MTime) {
		return true
	}
	if now.Size != orig.Size {
		return true
	}
	return false
}

func copyOnce(f afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := f.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := f.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}

// copyTree recreates the tree rooted at src under dst, which must not exist
// yet. Directories keep their permissions, regular files their permissions
// and modification times. Symlinks are copied as links when the filesystem
// supports them. Irregular files such as sockets and devices are skipped.
// dst and every excluded path are left out when they lie inside src.
func copyTree(ctx context.Context, f afero.Fs, src, dst string, exclude ...string) error {
	if _, err := f.Stat(dst); err == nil {
		return fmt.Errorf("copy %s: destination %s already exists", src, dst)
	}

	skip := map[string]struct{}{filepath.Clean(dst): {}}
	for _, p := range exclude {
		skip[filepath.Clean(p)] = struct{}{}
	}

	return afero.Walk(f, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := skip[filepath.Clean(path)]; ok {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch mode := info.Mode(); {
		case mode.IsDir():
			return f.MkdirAll(target, mode.Perm())
		case mode&os.ModeSymlink != 0:
			return copySymlink(f, path, target)
		case mode.IsRegular():
			return copyWithRetry(ctx, f, path, target)
		}
		return nil
	})
}

func copySymlink(f afero.Fs, src, dst string) error {
	reader, ok := f.(afero.LinkReader)
	if !ok {
		return fmt.Errorf("copy %s: filesystem cannot read symlinks", src)
	}
	linker, ok := f.(afero.Linker)
	if !ok {
		return fmt.Errorf("copy %s: filesystem cannot create symlinks", src)
	}

	dest, err := reader.ReadlinkIfPossible(src)
	if err != nil {
		return err
	}
	return linker.SymlinkIfPossible(dest, dst)
}
