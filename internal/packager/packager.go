// Package packager turns a staged AppDir into native Linux packages. The
// shared deployment merge engine copies the AppDir below /opt inside a
// private install root and projects its entry points into the standard
// filesystem hierarchy; the deb and rpm backends then derive their packaging
// metadata from the finished tree and drive the external packaging tools.
package packager

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/appdir"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/command"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/configerr"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/fsutil"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/metadata"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/pathutil"
)

// Interface is what the CLI drives: one backend per package type.
type Interface interface {
	// CreatePackage builds the package and returns the path of the
	// produced archive, which may differ from outPath by an inserted
	// architecture suffix.
	CreatePackage(outPath string) (string, error)
	// SignPackage signs a built archive with the native signing tool,
	// using gpgKey if not empty.
	SignPackage(path, gpgKey string) error
	// OutputBaseName returns the configured file name of the package,
	// without extension or architecture suffix.
	OutputBaseName() string
}

// New returns the packager backend for the given build type, with metadata
// resolved from the environment (and optionally a defaults file) and
// completed from the AppDir's root desktop entry.
func New(buildType string, logger zerolog.Logger, a appdir.AppDir, workDir string, environ []string, defaultsFile string) (Interface, error) {
	var packagerPrefix string
	switch buildType {
	case "deb":
		packagerPrefix = "DEB"
	case "rpm":
		packagerPrefix = "RPM"
	default:
		return nil, fmt.Errorf("cannot create packager for unknown build type %q", buildType)
	}
	meta, err := metadata.Load(logger, packagerPrefix, environ, defaultsFile)
	if err != nil {
		return nil, err
	}
	if err := completeMetadata(a, meta); err != nil {
		return nil, err
	}
	p, err := newPackager(logger, buildType, a, meta, environ, workDir)
	if err != nil {
		return nil, err
	}
	if buildType == "deb" {
		return &DebPackager{Packager: p}, nil
	}
	return &RpmPackager{Packager: p}, nil
}

// completeMetadata fills the required keys that were not provided
// explicitly with values derived from the AppDir. The package name and
// version come from the root desktop entry; the filename prefix falls back
// to the package name.
func completeMetadata(a appdir.AppDir, meta *metadata.Map) error {
	if _, ok := meta.Get("PACKAGE_NAME"); !ok {
		name, err := a.GuessPackageName()
		if err != nil {
			return err
		}
		meta.Set("PACKAGE_NAME", name)
	}
	if _, ok := meta.Get("VERSION"); !ok {
		version, err := a.GuessPackageVersion()
		if err != nil {
			return configerr.Errorf("package version not provided and cannot be guessed: %v", err)
		}
		meta.Set("VERSION", version)
	}
	meta.SetDefault("FILENAME_PREFIX", meta.Value("PACKAGE_NAME"))
	return nil
}

// Build stages of one packaging run. The operations of the merge engine
// must run in a fixed order; calling them out of order is a programming
// error, not a user-facing condition.
type stage int

const (
	stageEmpty stage = iota
	stageAppDirCopied
	stageUsrMerged
	stageConfigWritten
)

// Packager holds the state shared by the deb and rpm backends: the source
// AppDir, the resolved metadata, and the private work area of this run.
type Packager struct {
	logger  zerolog.Logger
	appDir  appdir.AppDir
	meta    *metadata.Map
	runner  *command.Runner
	environ []string

	workDir        string
	installRootDir string
	outDir         string

	packageName string
	// appDirInstalledPath is the AppDir location on the target system,
	// appDirInstallPath its staged counterpart inside installRootDir.
	appDirInstalledPath string
	appDirInstallPath   string

	stage stage
}

func newPackager(logger zerolog.Logger, component string, a appdir.AppDir, meta *metadata.Map, environ []string, workDir string) (*Packager, error) {
	if err := meta.Require("PACKAGE_NAME", "VERSION", "FILENAME_PREFIX"); err != nil {
		return nil, err
	}
	p := &Packager{
		logger:         logger.With().Str("component", component).Logger(),
		appDir:         a,
		meta:           meta,
		runner:         command.NewRunner(logger),
		environ:        environ,
		workDir:        workDir,
		installRootDir: filepath.Join(workDir, "installroot"),
		outDir:         filepath.Join(workDir, "out"),
		packageName:    meta.Value("PACKAGE_NAME"),
	}
	p.appDirInstalledPath = path.Join("/opt", p.packageName+".AppDir")
	p.appDirInstallPath = filepath.Join(p.installRootDir, "opt", p.packageName+".AppDir")
	for _, dir := range []string{p.installRootDir, p.outDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	p.logger.Debug().Str("path", p.appDirInstallPath).Msg("AppDir install path")
	return p, nil
}

// CopyAppDirContents stages the AppDir below opt/<name>.AppDir inside the
// install root. Any earlier staging copy is removed first, so re-running
// the operation yields an identical tree.
func (p *Packager) CopyAppDirContents() error {
	if p.stage > stageAppDirCopied {
		return fmt.Errorf("internal error: AppDir copied after usr merge")
	}
	if err := os.RemoveAll(p.appDirInstallPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.appDirInstallPath), 0755); err != nil {
		return err
	}
	if err := fsutil.CopyTree(p.appDir.Path, p.appDirInstallPath); err != nil {
		return fmt.Errorf("cannot stage AppDir contents: %w", err)
	}
	p.stage = stageAppDirCopied
	return nil
}

// CopyDataToUsr projects the staged AppDir's desktop files, icons, MIME and
// cloud-provider data into the install root's usr/ hierarchy as relative
// symlinks, and generates an executable launcher script per entry point.
func (p *Packager) CopyDataToUsr() error {
	if p.stage != stageAppDirCopied {
		return fmt.Errorf("internal error: usr merge requires a staged AppDir copy")
	}

	desktopFilesDestDir := filepath.Join(p.installRootDir, appdir.DesktopFilesRelativeLocation)
	if err := os.MkdirAll(desktopFilesDestDir, 0755); err != nil {
		return err
	}
	binDestDir := filepath.Join(p.installRootDir, "usr", "bin")
	if err := os.MkdirAll(binDestDir, 0755); err != nil {
		return err
	}

	desktopFiles, err := appdir.FindDesktopFiles(p.appDirInstallPath)
	if err != nil {
		return err
	}
	for _, desktopFile := range desktopFiles {
		dst := filepath.Join(desktopFilesDestDir, filepath.Base(desktopFile))
		if err := p.createRelativeSymlink(desktopFile, dst); err != nil {
			return err
		}

		// The copy in usr/share/applications is a symlink, so parsing
		// it reads the staged desktop file.
		entry, err := appdir.ParseDesktopEntry(dst)
		if err != nil {
			return err
		}

		// Icon files are symlinked as-is, there is no reason ever to
		// modify them. This assumes Icon= holds a bare name.
		iconsPrefix := entry.Icon() + "."
		p.logger.Debug().Str("prefix", iconsPrefix).Msg("deploying icons")
		icons, err := appdir.FindIcons(p.appDirInstallPath, iconsPrefix)
		if err != nil {
			return err
		}
		for _, icon := range icons {
			if err := p.deployFileAsIs(icon); err != nil {
				return err
			}
		}

		execArgs, err := appdir.SplitExec(entry.Exec())
		if err != nil {
			return err
		}
		if len(execArgs) == 0 {
			return configerr.Errorf("desktop file %s has no Exec= entry", filepath.Base(desktopFile))
		}
		execBinary := execArgs[0]

		stagedBinary := filepath.Join(p.appDirInstallPath, "usr", "bin", execBinary)
		if _, err := os.Stat(stagedBinary); err != nil {
			return configerr.Errorf("Exec= entry points to non-existing binary in AppDir usr/bin: %s", execBinary)
		}

		scriptPath := filepath.Join(binDestDir, execBinary)
		targetBinary := path.Join(p.appDirInstalledPath, "usr", "bin", execBinary)
		p.logger.Debug().Str("script", scriptPath).Str("target", targetBinary).Msg("creating launcher script")
		if err := writeLauncherScript(scriptPath, p.appDirInstalledPath, targetBinary); err != nil {
			return err
		}
	}

	// MIME files just describe a type and contain no paths, so they can be
	// linked without rewriting. The same goes for libcloudproviders data,
	// which only describes D-Bus endpoints.
	mimeFiles, err := appdir.FindMimeFiles(p.appDirInstallPath)
	if err != nil {
		return err
	}
	cloudProvidersFiles, err := appdir.FindCloudProvidersFiles(p.appDirInstallPath)
	if err != nil {
		return err
	}
	for _, file := range append(mimeFiles, cloudProvidersFiles...) {
		if err := p.deployFileAsIs(file); err != nil {
			return err
		}
	}

	p.stage = stageUsrMerged
	return nil
}

// WriteDeploymentConfig records the installed AppDir location in the staged
// copy's usr/bin/linuxdeploy.conf, preserving unrelated sections an earlier
// linuxdeploy run may have written.
func (p *Packager) WriteDeploymentConfig() error {
	if p.stage != stageUsrMerged {
		return fmt.Errorf("internal error: deployment config requires a merged usr tree")
	}
	confPath := filepath.Join(p.appDirInstallPath, "usr", "bin", "linuxdeploy.conf")
	cfg, err := ini.LooseLoad(confPath)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", confPath, err)
	}
	cfg.Section("native_packages").Key("appdir_installed_path").SetValue(p.appDirInstalledPath)
	if err := os.MkdirAll(filepath.Dir(confPath), 0755); err != nil {
		return err
	}
	if err := cfg.SaveTo(confPath); err != nil {
		return fmt.Errorf("cannot write %s: %w", confPath, err)
	}
	p.stage = stageConfigWritten
	return nil
}

// mergeTree runs the three merge engine operations in order. Both backends
// call this before generating their packaging metadata.
func (p *Packager) mergeTree() error {
	if err := p.CopyAppDirContents(); err != nil {
		return err
	}
	if err := p.CopyDataToUsr(); err != nil {
		return err
	}
	return p.WriteDeploymentConfig()
}

func (p *Packager) createRelativeSymlink(src, dst string) error {
	target, err := pathutil.RelativeSymlinkTarget(p.installRootDir, src, dst)
	if err != nil {
		return err
	}
	p.logger.Debug().Str("target", target).Str("path", dst).Msg("creating relative symlink")
	return fsutil.Create(&fsutil.CreateOptions{
		Path:        dst,
		Mode:        fs.ModeSymlink,
		Link:        target,
		MakeParents: true,
	})
}

// deployFileAsIs mirrors a staged AppDir file's relative location under the
// install root and symlinks it there.
func (p *Packager) deployFileAsIs(file string) error {
	relativePath, err := filepath.Rel(p.appDirInstallPath, file)
	if err != nil {
		return err
	}
	p.logger.Debug().Str("path", relativePath).Msg("deploying file as-is")
	return p.createRelativeSymlink(file, filepath.Join(p.installRootDir, relativePath))
}

// OutputBaseName returns the FILENAME_PREFIX metadata value, which defaults
// to the package name.
func (p *Packager) OutputBaseName() string {
	return p.meta.Value("FILENAME_PREFIX")
}

// envValue looks up a plain (non-metadata) environment variable in the
// environment this packager was created with.
func (p *Packager) envValue(name string) string {
	prefix := name + "="
	for _, entry := range p.environ {
		if strings.HasPrefix(entry, prefix) {
			return strings.TrimPrefix(entry, prefix)
		}
	}
	return ""
}
