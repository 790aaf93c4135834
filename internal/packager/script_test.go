package packager_test

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"

	. "gopkg.in/check.v1"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/packager"
)

var quoteShellTests = []struct {
	value  string
	quoted string
}{
	{"/opt/demo.AppDir", "/opt/demo.AppDir"},
	{"/opt/My App.AppDir", `'/opt/My App.AppDir'`},
	{`/opt/it's.AppDir`, `"/opt/it's.AppDir"`},
	{"/opt/star*.AppDir", "'/opt/star*.AppDir'"},
	{"/opt/$HOME.AppDir", "'/opt/$HOME.AppDir'"},
	{"", "''"},
}

func (s *S) TestQuoteShell(c *C) {
	for _, test := range quoteShellTests {
		c.Logf("value: %q", test.value)
		quoted, err := packager.QuoteShell(test.value)
		c.Assert(err, IsNil)
		c.Assert(quoted, Equals, test.quoted)
	}
}

func (s *S) TestLauncherScript(c *C) {
	script, err := packager.LauncherScript("/opt/demo.AppDir", "/opt/demo.AppDir/usr/bin/demo")
	c.Assert(err, IsNil)

	lines := strings.Split(script, "\n")
	c.Assert(lines[0], Equals, "#! /bin/sh")
	c.Assert(strings.Contains(script, "set -e\n"), Equals, true)
	c.Assert(strings.Contains(script, "this_dir=/opt/demo.AppDir\n"), Equals, true)
	c.Assert(strings.Contains(script, "export APPDIR\n"), Equals, true)
	// Hooks must be sourced, not executed, and non-files skipped.
	c.Assert(strings.Contains(script, `[ ! -f "$script" ] && continue`), Equals, true)
	c.Assert(strings.Contains(script, `. "$script"`), Equals, true)
	c.Assert(strings.Contains(script, `exec /opt/demo.AppDir/usr/bin/demo "$@"`), Equals, true)
	// A trailing newline keeps the script a well-formed text file.
	c.Assert(strings.HasSuffix(script, "\n"), Equals, true)
}

// The launcher must come out world-executable even when the process umask
// would strip permission bits from newly created files.
func (s *S) TestWriteLauncherScriptUmask(c *C) {
	oldUmask := syscall.Umask(0o027)
	defer syscall.Umask(oldUmask)

	scriptPath := filepath.Join(c.MkDir(), "usr/bin/demo")
	err := packager.WriteLauncherScript(scriptPath, "/opt/demo.AppDir", "/opt/demo.AppDir/usr/bin/demo")
	c.Assert(err, IsNil)

	finfo, err := os.Stat(scriptPath)
	c.Assert(err, IsNil)
	c.Assert(finfo.Mode().Perm(), Equals, os.FileMode(0755))
}

func (s *S) TestLauncherScriptQuotesPaths(c *C) {
	script, err := packager.LauncherScript("/opt/My App.AppDir", "/opt/My App.AppDir/usr/bin/my app")
	c.Assert(err, IsNil)
	c.Assert(strings.Contains(script, "this_dir='/opt/My App.AppDir'\n"), Equals, true)
	c.Assert(strings.Contains(script, `exec '/opt/My App.AppDir/usr/bin/my app' "$@"`), Equals, true)
}
