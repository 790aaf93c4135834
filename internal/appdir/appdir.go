// Package appdir implements read-only queries over an AppDir, the
// relocatable bundle directory consumed by the packagers: locating the root
// desktop entry, deriving package name and version from it, and enumerating
// the files that get projected into the host filesystem hierarchy.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"mvdan.cc/sh/v3/shell"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/configerr"
)

// Locations inside an AppDir (and inside the install root, which mirrors
// them) where deployable data lives. Fixed by the FHS contract.
const (
	DesktopFilesRelativeLocation   = "usr/share/applications"
	IconsRelativeLocation          = "usr/share/icons"
	MimeFilesRelativeLocation      = "usr/share/mime"
	CloudProvidersRelativeLocation = "usr/share/cloud-providers"
)

// AppDir is a wrapper around an AppDir on the filesystem.
type AppDir struct {
	Path string
}

func New(path string) AppDir {
	return AppDir{Path: path}
}

// RootDesktopFile returns the path of the single desktop file expected
// directly under the AppDir root. Zero or several root desktop files mean
// the AppDir was not assembled correctly.
func (a AppDir) RootDesktopFile() (string, error) {
	matches, err := filepath.Glob(filepath.Join(a.Path, "*.desktop"))
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", configerr.Errorf("expected exactly one desktop file in AppDir root, found %d", len(matches))
	}
	return matches[0], nil
}

// GuessPackageName derives the package name from the root desktop entry:
// the first shell token of its Exec= value, i.e. the binary name.
func (a AppDir) GuessPackageName() (string, error) {
	entry, err := a.rootDesktopEntry()
	if err != nil {
		return "", err
	}
	args, err := SplitExec(entry.Exec())
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "", configerr.Errorf("cannot guess package name: root desktop file has no Exec= entry")
	}
	return args[0], nil
}

// GuessPackageVersion reads the optional X-AppImage-Version key from the
// root desktop entry. Its absence is not fatal by itself; the caller may
// obtain the version elsewhere or abort.
func (a AppDir) GuessPackageVersion() (string, error) {
	entry, err := a.rootDesktopEntry()
	if err != nil {
		return "", err
	}
	version := entry.AppImageVersion()
	if version == "" {
		return "", fmt.Errorf("root desktop file has no X-AppImage-Version entry")
	}
	return version, nil
}

func (a AppDir) rootDesktopEntry() (*DesktopEntry, error) {
	path, err := a.RootDesktopFile()
	if err != nil {
		return nil, err
	}
	return ParseDesktopEntry(path)
}

// DesktopEntry is a read-only view of the keys this tool consumes from a
// desktop file. Desktop files are never rewritten, only read and symlinked.
type DesktopEntry struct {
	section *ini.Section
}

func ParseDesktopEntry(path string) (*DesktopEntry, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		KeyValueDelimiters:  "=",
	}, path)
	if err != nil {
		return nil, fmt.Errorf("cannot parse desktop file %s: %w", path, err)
	}
	return &DesktopEntry{section: cfg.Section("Desktop Entry")}, nil
}

func (e *DesktopEntry) Exec() string {
	return e.section.Key("Exec").String()
}

func (e *DesktopEntry) Icon() string {
	return e.section.Key("Icon").String()
}

func (e *DesktopEntry) AppImageVersion() string {
	return e.section.Key("X-AppImage-Version").String()
}

// SplitExec splits a desktop entry Exec= value into its words following
// shell rules, so quoted arguments with spaces survive.
func SplitExec(value string) ([]string, error) {
	args, err := shell.Fields(value, nil)
	if err != nil {
		return nil, configerr.Errorf("cannot parse Exec= value %q: %v", value, err)
	}
	return args, nil
}

// FindDesktopFiles lists the desktop files deployed below the given install
// prefix. Unlike icons or MIME data, desktop files live flat in a single
// directory, so no recursion is involved.
func FindDesktopFiles(installPath string) ([]string, error) {
	return filepath.Glob(filepath.Join(installPath, DesktopFilesRelativeLocation, "*.desktop"))
}

// FindIcons lists regular files under the icons tree of the given install
// prefix. A non-empty prefix narrows the result to filenames starting with
// it, which is how icons are scoped to one desktop entry's Icon= key.
func FindIcons(installPath, prefix string) ([]string, error) {
	icons, err := findFilesInDirectory(filepath.Join(installPath, IconsRelativeLocation))
	if err != nil || prefix == "" {
		return icons, err
	}
	filtered := icons[:0]
	for _, icon := range icons {
		if strings.HasPrefix(filepath.Base(icon), prefix) {
			filtered = append(filtered, icon)
		}
	}
	return filtered, nil
}

// FindMimeFiles lists the MIME data files under the given install prefix.
func FindMimeFiles(installPath string) ([]string, error) {
	return findFilesInDirectory(filepath.Join(installPath, MimeFilesRelativeLocation))
}

// FindCloudProvidersFiles lists the libcloudproviders data files under the
// given install prefix.
func FindCloudProvidersFiles(installPath string) ([]string, error) {
	return findFilesInDirectory(filepath.Join(installPath, CloudProvidersRelativeLocation))
}

// findFilesInDirectory recursively collects entries under dir that resolve
// to regular files. Directories are skipped, and so are broken symlinks:
// existence is checked through the filesystem, so a symlink only counts if
// its target is a regular file. A missing dir yields an empty result.
func findFilesInDirectory(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	var found []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		finfo, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				// Broken symlink.
				return nil
			}
			return err
		}
		if finfo.Mode().IsRegular() {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
