package appdir_test

import (
	"os"
	"path/filepath"
	"sort"

	. "gopkg.in/check.v1"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/appdir"
)

var demoDesktopEntry = `[Desktop Entry]
Name=Demo
Exec=demo --start
Icon=demo
Type=Application
X-AppImage-Version=1.2.3
`

func writeFile(c *C, path, content string) {
	c.Assert(os.MkdirAll(filepath.Dir(path), 0755), IsNil)
	c.Assert(os.WriteFile(path, []byte(content), 0644), IsNil)
}

func (s *S) makeAppDir(c *C) appdir.AppDir {
	dir := c.MkDir()
	writeFile(c, filepath.Join(dir, "demo.desktop"), demoDesktopEntry)
	writeFile(c, filepath.Join(dir, "usr/bin/demo"), "binary")
	writeFile(c, filepath.Join(dir, "usr/share/applications/demo.desktop"), demoDesktopEntry)
	writeFile(c, filepath.Join(dir, "usr/share/icons/hicolor/256x256/apps/demo.png"), "png")
	writeFile(c, filepath.Join(dir, "usr/share/icons/hicolor/scalable/apps/demo.svg"), "svg")
	writeFile(c, filepath.Join(dir, "usr/share/icons/hicolor/256x256/apps/other.png"), "png")
	return appdir.New(dir)
}

func (s *S) TestRootDesktopFile(c *C) {
	a := s.makeAppDir(c)
	path, err := a.RootDesktopFile()
	c.Assert(err, IsNil)
	c.Assert(filepath.Base(path), Equals, "demo.desktop")
}

func (s *S) TestRootDesktopFileMissing(c *C) {
	a := appdir.New(c.MkDir())
	_, err := a.RootDesktopFile()
	c.Assert(err, ErrorMatches, `expected exactly one desktop file in AppDir root, found 0`)
}

func (s *S) TestRootDesktopFileAmbiguous(c *C) {
	a := s.makeAppDir(c)
	writeFile(c, filepath.Join(a.Path, "second.desktop"), demoDesktopEntry)
	_, err := a.RootDesktopFile()
	c.Assert(err, ErrorMatches, `expected exactly one desktop file in AppDir root, found 2`)
}

func (s *S) TestGuessPackageName(c *C) {
	a := s.makeAppDir(c)
	name, err := a.GuessPackageName()
	c.Assert(err, IsNil)
	c.Assert(name, Equals, "demo")
}

func (s *S) TestGuessPackageNameQuotedExec(c *C) {
	dir := c.MkDir()
	writeFile(c, filepath.Join(dir, "app.desktop"), "[Desktop Entry]\nExec=\"my app\" --flag\n")
	name, err := appdir.New(dir).GuessPackageName()
	c.Assert(err, IsNil)
	c.Assert(name, Equals, "my app")
}

func (s *S) TestGuessPackageNameNoExec(c *C) {
	dir := c.MkDir()
	writeFile(c, filepath.Join(dir, "app.desktop"), "[Desktop Entry]\nName=App\n")
	_, err := appdir.New(dir).GuessPackageName()
	c.Assert(err, ErrorMatches, `cannot guess package name: root desktop file has no Exec= entry`)
}

func (s *S) TestGuessPackageVersion(c *C) {
	a := s.makeAppDir(c)
	version, err := a.GuessPackageVersion()
	c.Assert(err, IsNil)
	c.Assert(version, Equals, "1.2.3")
}

func (s *S) TestGuessPackageVersionMissing(c *C) {
	dir := c.MkDir()
	writeFile(c, filepath.Join(dir, "app.desktop"), "[Desktop Entry]\nExec=app\n")
	_, err := appdir.New(dir).GuessPackageVersion()
	c.Assert(err, ErrorMatches, `root desktop file has no X-AppImage-Version entry`)
}

func (s *S) TestFindDesktopFiles(c *C) {
	a := s.makeAppDir(c)
	files, err := appdir.FindDesktopFiles(a.Path)
	c.Assert(err, IsNil)
	c.Assert(files, HasLen, 1)
	c.Assert(filepath.Base(files[0]), Equals, "demo.desktop")
}

func (s *S) TestFindIcons(c *C) {
	a := s.makeAppDir(c)

	icons, err := appdir.FindIcons(a.Path, "")
	c.Assert(err, IsNil)
	c.Assert(icons, HasLen, 3)

	icons, err = appdir.FindIcons(a.Path, "demo.")
	c.Assert(err, IsNil)
	names := []string{}
	for _, icon := range icons {
		names = append(names, filepath.Base(icon))
	}
	sort.Strings(names)
	c.Assert(names, DeepEquals, []string{"demo.png", "demo.svg"})
}

func (s *S) TestFindIconsSkipsNonRegular(c *C) {
	a := s.makeAppDir(c)
	iconsDir := filepath.Join(a.Path, appdir.IconsRelativeLocation)
	c.Assert(os.Symlink("no-such-target", filepath.Join(iconsDir, "demo.broken")), IsNil)
	c.Assert(os.Symlink("hicolor/256x256/apps/demo.png", filepath.Join(iconsDir, "demo.link")), IsNil)

	icons, err := appdir.FindIcons(a.Path, "demo.")
	c.Assert(err, IsNil)
	names := []string{}
	for _, icon := range icons {
		names = append(names, filepath.Base(icon))
	}
	sort.Strings(names)
	// The working symlink resolves to a regular file and counts, the
	// broken one is dropped.
	c.Assert(names, DeepEquals, []string{"demo.link", "demo.png", "demo.svg"})
}

func (s *S) TestFindMimeFilesMissingDirectory(c *C) {
	files, err := appdir.FindMimeFiles(c.MkDir())
	c.Assert(err, IsNil)
	c.Assert(files, HasLen, 0)
}

func (s *S) TestFindCloudProvidersFiles(c *C) {
	a := s.makeAppDir(c)
	writeFile(c, filepath.Join(a.Path, appdir.CloudProvidersRelativeLocation, "demo.ini"), "[provider]")
	files, err := appdir.FindCloudProvidersFiles(a.Path)
	c.Assert(err, IsNil)
	c.Assert(files, HasLen, 1)
}

func (s *S) TestSplitExec(c *C) {
	args, err := appdir.SplitExec(`demo --flag "an arg"`)
	c.Assert(err, IsNil)
	c.Assert(args, DeepEquals, []string{"demo", "--flag", "an arg"})
}
