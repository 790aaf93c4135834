package packager

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/deb"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/fsutil"
)

// extraDebianFilesEnvVar names extra control-area files (preinst, postinst,
// templates, ...) to copy into DEBIAN/, separated by semicolons.
const extraDebianFilesEnvVar = "LDNP_DEB_EXTRA_DEBIAN_FILES"

// DebPackager builds Debian binary packages with dpkg-deb.
type DebPackager struct {
	*Packager
}

type controlData struct {
	InstalledSize int64
}

// computeInstalledSizeKiB sums the sizes of the regular files below
// appDirPath and converts the total to KiB, rounding up. Symlinks count as
// zero; they are never followed, so a link to a large file outside the
// AppDir cannot inflate the result.
func computeInstalledSizeKiB(appDirPath string) (int64, error) {
	var total int64
	err := filepath.WalkDir(appDirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		finfo, err := d.Info()
		if err != nil {
			return err
		}
		total += finfo.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return (total + 1023) / 1024, nil
}

// generateControlFile renders the control file into DEBIAN/ and deploys any
// extra control-area files named in the environment.
//
// Installed-Size is optional per Debian policy, but it is cheap to compute,
// so it is always filled in. It is packager-owned and cannot be overridden
// through the metadata.
func (p *DebPackager) generateControlFile() error {
	installedSize, err := computeInstalledSizeKiB(p.appDir.Path)
	if err != nil {
		return err
	}
	rendered, err := p.renderTemplate("control.tmpl", &controlData{InstalledSize: installedSize})
	if err != nil {
		return err
	}
	rendered = collapseBlankLines(rendered)

	debianDir := filepath.Join(p.installRootDir, "DEBIAN")
	if err := os.MkdirAll(debianDir, 0755); err != nil {
		return err
	}
	controlPath := filepath.Join(debianDir, "control")
	p.logger.Info().Str("path", controlPath).Msg("generating control file")
	if err := os.WriteFile(controlPath, []byte(rendered), 0644); err != nil {
		return err
	}

	extraDebianFiles := p.envValue(extraDebianFilesEnvVar)
	if extraDebianFiles == "" {
		return nil
	}
	for _, file := range strings.Split(extraDebianFiles, ";") {
		if file == "" {
			continue
		}
		targetPath := filepath.Join(debianDir, filepath.Base(file))
		p.logger.Info().Str("source", file).Str("target", targetPath).Msg("deploying extra debian file")
		if err := copyFile(file, targetPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(srcPath, dstPath string) error {
	finfo, err := os.Stat(srcPath)
	if err != nil {
		return err
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()
	return fsutil.Create(&fsutil.CreateOptions{
		Path: dstPath,
		Mode: finfo.Mode().Perm(),
		Data: src,
	})
}

// generateDeb invokes dpkg-deb on the finished install root. All files are
// forced to be owned by root inside the archive.
func (p *DebPackager) generateDeb(outPath string) error {
	return p.runner.Run([]string{
		"dpkg-deb", "-Zxz", "--root-owner-group", "-b", p.installRootDir, outPath,
	}, "")
}

// verifyPackage reads the control data back out of the built archive and
// checks that it names the package this build was asked for. A missing or
// mismatching archive must never be reported as a success.
func (p *DebPackager) verifyPackage(outPath string) error {
	section, err := deb.ReadControl(outPath)
	if err != nil {
		return err
	}
	if name := section.Get("Package"); name != p.packageName {
		return fmt.Errorf("built archive %s reports unexpected package name %q", outPath, name)
	}
	p.logger.Debug().
		Str("package", section.Get("Package")).
		Str("version", section.Get("Version")).
		Msg("verified built archive")
	return nil
}

func (p *DebPackager) CreatePackage(outPath string) (string, error) {
	p.logger.Info().Str("path", outPath).Msg("creating Debian package")

	const extension = ".deb"
	// Remove the extension temporarily so the build architecture can be
	// inserted before it when one is configured.
	outPath = strings.TrimSuffix(outPath, extension)
	if architecture := p.meta.Value("ARCHITECTURE"); architecture != "" {
		outPath += "_" + architecture
	}
	outPath += extension

	if err := p.mergeTree(); err != nil {
		return "", err
	}
	if err := p.generateControlFile(); err != nil {
		return "", err
	}
	if err := p.generateDeb(outPath); err != nil {
		return "", err
	}
	if err := p.verifyPackage(outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// SignPackage signs a built .deb with dpkg-sig. Debian has no strong
// tradition of binary archive signatures, but an embedded builder
// signature is still better than none at all.
func (p *DebPackager) SignPackage(path, gpgKey string) error {
	args := []string{"dpkg-sig", "--sign=builder", path}
	if gpgKey != "" {
		args = append(args, "-k", gpgKey)
	}
	return p.runner.Run(args, "")
}
