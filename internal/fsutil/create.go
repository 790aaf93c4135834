package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type CreateOptions struct {
	Path string
	Mode fs.FileMode
	Data io.Reader
	// Link is the symlink target. It must be set when the symlink flag is
	// set in Mode, and must be empty otherwise.
	Link string
	// If MakeParents is true, missing parent directories of Path are
	// created with permissions 0755.
	MakeParents bool
}

// Create creates a filesystem entry according to the provided options.
//
// Create can return errors from the os package.
func Create(options *CreateOptions) error {
	o := options
	if o.MakeParents {
		if err := os.MkdirAll(filepath.Dir(o.Path), 0755); err != nil {
			return err
		}
	}
	switch o.Mode & fs.ModeType {
	case 0:
		return createFile(o)
	case fs.ModeDir:
		return createDir(o)
	case fs.ModeSymlink:
		return createSymlink(o)
	default:
		return fmt.Errorf("unsupported file type: %s", o.Path)
	}
}

func createDir(o *CreateOptions) error {
	err := os.Mkdir(o.Path, o.Mode)
	if os.IsExist(err) {
		return nil
	}
	return err
}

func createFile(o *CreateOptions) error {
	file, err := os.OpenFile(o.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, o.Mode)
	if err != nil {
		return err
	}
	var copyErr error
	if o.Data != nil {
		_, copyErr = io.Copy(file, o.Data)
	}
	err = file.Close()
	if copyErr != nil {
		return copyErr
	}
	return err
}

// createSymlink replaces whatever sits at the destination with a symlink to
// the requested target. An existing symlink that already points at the
// target is left alone, anything else is unlinked first so that a stale
// entry never survives a re-run.
func createSymlink(o *CreateOptions) error {
	finfo, err := os.Lstat(o.Path)
	if err == nil {
		if finfo.Mode()&os.ModeSymlink != 0 {
			link, err := os.Readlink(o.Path)
			if err != nil {
				return err
			}
			if link == o.Link {
				return nil
			}
		}
		err = os.Remove(o.Path)
		if err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(o.Link, o.Path)
}
