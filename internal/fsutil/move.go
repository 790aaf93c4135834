package fsutil

import (
	"io"
	"os"
)

// Move moves a regular file from srcPath to dstPath. It tries a plain
// rename first and falls back to copy-and-remove when the two paths live on
// different filesystems, which is the common case when moving a built
// package out of a temporary work directory.
func Move(srcPath, dstPath string) error {
	err := os.Rename(srcPath, dstPath)
	if err == nil {
		return nil
	}
	finfo, serr := os.Stat(srcPath)
	if serr != nil {
		return serr
	}
	src, serr := os.Open(srcPath)
	if serr != nil {
		return serr
	}
	defer src.Close()
	dst, serr := os.OpenFile(dstPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, finfo.Mode().Perm())
	if serr != nil {
		return serr
	}
	if _, serr := io.Copy(dst, src); serr != nil {
		dst.Close()
		return serr
	}
	if serr := dst.Close(); serr != nil {
		return serr
	}
	return os.Remove(srcPath)
}
