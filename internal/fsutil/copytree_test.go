package fsutil_test

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"

	. "gopkg.in/check.v1"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/fsutil"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/testutil"
)

func (s *S) makeSourceTree(c *C) string {
	src := c.MkDir()
	c.Assert(fsutil.Create(&fsutil.CreateOptions{
		Path:        filepath.Join(src, "usr/bin/app"),
		Mode:        0755,
		Data:        bytes.NewBufferString("#! /bin/sh\n"),
		MakeParents: true,
	}), IsNil)
	c.Assert(fsutil.Create(&fsutil.CreateOptions{
		Path:        filepath.Join(src, "usr/share/doc/readme"),
		Mode:        0644,
		Data:        bytes.NewBufferString("docs"),
		MakeParents: true,
	}), IsNil)
	c.Assert(fsutil.Create(&fsutil.CreateOptions{
		Path: filepath.Join(src, "usr/bin/app-alias"),
		Mode: fs.ModeSymlink,
		Link: "app",
	}), IsNil)
	// Dangling on purpose, must be copied as-is rather than rejected.
	c.Assert(fsutil.Create(&fsutil.CreateOptions{
		Path: filepath.Join(src, "usr/bin/dangling"),
		Mode: fs.ModeSymlink,
		Link: "no-such-file",
	}), IsNil)
	return src
}

func (s *S) TestCopyTree(c *C) {
	src := s.makeSourceTree(c)
	dst := c.MkDir()

	c.Assert(fsutil.CopyTree(src, dst), IsNil)
	c.Assert(testutil.TreeDump(dst), DeepEquals, testutil.TreeDump(src))
}

func (s *S) TestCopyTreeIdempotent(c *C) {
	src := s.makeSourceTree(c)
	dst := c.MkDir()

	c.Assert(fsutil.CopyTree(src, dst), IsNil)
	first := testutil.TreeDump(dst)
	c.Assert(fsutil.CopyTree(src, dst), IsNil)
	c.Assert(testutil.TreeDump(dst), DeepEquals, first)
}

func (s *S) TestCopyTreeMissingSource(c *C) {
	err := fsutil.CopyTree(filepath.Join(c.MkDir(), "nope"), c.MkDir())
	c.Assert(err, NotNil)
}

func (s *S) TestMove(c *C) {
	dir := c.MkDir()
	srcPath := filepath.Join(dir, "built.rpm")
	dstPath := filepath.Join(c.MkDir(), "out.rpm")
	c.Assert(os.WriteFile(srcPath, []byte("rpm data"), 0644), IsNil)

	c.Assert(fsutil.Move(srcPath, dstPath), IsNil)

	_, err := os.Lstat(srcPath)
	c.Assert(os.IsNotExist(err), Equals, true)
	data, err := os.ReadFile(dstPath)
	c.Assert(err, IsNil)
	c.Assert(string(data), Equals, "rpm data")
}
