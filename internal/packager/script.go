package packager

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/fsutil"
)

// quoteShell quotes s for literal embedding in a POSIX shell script, so
// paths containing spaces, quotes or globbing characters survive intact.
func quoteShell(s string) (string, error) {
	quoted, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("cannot quote %q for shell use: %w", s, err)
	}
	return quoted, nil
}

// launcherScript renders the wrapper script installed to usr/bin. It
// exports APPDIR, sources any apprun-hooks the AppDir ships, and execs the
// real staged binary forwarding all arguments. set -e makes the script
// abort on the first failing command.
func launcherScript(appDirInstalledPath, targetBinary string) (string, error) {
	quotedAppDir, err := quoteShell(appDirInstalledPath)
	if err != nil {
		return "", err
	}
	quotedTarget, err := quoteShell(targetBinary)
	if err != nil {
		return "", err
	}
	lines := []string{
		"#! /bin/sh",
		"",
		"set -e",
		"",
		"# might be used by some AppRun scripts, e.g., craft runenv hook",
		"# shellcheck disable=SC2034",
		"this_dir=" + quotedAppDir,
		"",
		"# might be used by some other scripts, generally a good idea to set it",
		`APPDIR="$this_dir"`,
		"export APPDIR",
		"",
		`script_dir="$APPDIR/apprun-hooks"`,
		`if [ -d "$script_dir" ]; then`,
		`    for script in "$script_dir"/*; do`,
		"        # some plugins put non-script files in the directory",
		"        # we do our best to avoid running them by accident",
		`        [ ! -f "$script" ] && continue`,
		"",
		"        # shellcheck disable=SC1090",
		`        . "$script"`,
		"    done",
		"fi",
		"",
		"exec " + quotedTarget + ` "$@"`,
		"",
	}
	return strings.Join(lines, "\n"), nil
}

// writeLauncherScript generates the launcher at scriptPath and marks it
// executable for owner, group and other.
func writeLauncherScript(scriptPath, appDirInstalledPath, targetBinary string) error {
	content, err := launcherScript(appDirInstalledPath, targetBinary)
	if err != nil {
		return err
	}
	err = fsutil.Create(&fsutil.CreateOptions{
		Path:        scriptPath,
		Mode:        0755,
		Data:        strings.NewReader(content),
		MakeParents: true,
	})
	if err != nil {
		return err
	}
	// The creation mode is subject to the umask; the launcher must end up
	// world-executable no matter how restrictive that is.
	return os.Chmod(scriptPath, 0755)
}
