package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyTree recursively copies the tree rooted at srcDir to dstDir,
// preserving permissions. Symlinks are copied as symlinks, never followed,
// so dangling links in the source are reproduced rather than reported as
// errors. File types other than regular files, directories and symlinks are
// rejected.
//
// Running CopyTree twice over the same pair of trees yields the same
// destination: directories are reused, files are truncated and rewritten,
// and symlinks are relinked in place.
func CopyTree(srcDir, dstDir string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := dstDir
		if rel != "." {
			target = filepath.Join(dstDir, rel)
		}
		finfo, err := d.Info()
		if err != nil {
			return err
		}
		switch finfo.Mode() & fs.ModeType {
		case fs.ModeDir:
			return Create(&CreateOptions{
				Path:        target,
				Mode:        fs.ModeDir | finfo.Mode().Perm(),
				MakeParents: true,
			})
		case fs.ModeSymlink:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return Create(&CreateOptions{
				Path: target,
				Mode: fs.ModeSymlink,
				Link: link,
			})
		case 0:
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			return Create(&CreateOptions{
				Path: target,
				Mode: finfo.Mode().Perm(),
				Data: file,
			})
		default:
			return fmt.Errorf("unsupported file type: %s", path)
		}
	})
}
