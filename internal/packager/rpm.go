package packager

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/fsutil"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/lib/sortedset"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/pathutil"
)

// RpmPackager builds RPM packages with rpmbuild. The file manifest and the
// spec file are derived from the merged install root, so the backend never
// has to understand the AppDir layout itself.
type RpmPackager struct {
	*Packager
}

// scriptletTypes lists the RPM scriptlet kinds in their execution order
// during an install transaction. The names double as the suffix of the
// environment variable a scriptlet file is taken from.
var scriptletTypes = []string{"pretrans", "pre", "post", "preun", "postun", "posttrans"}

// Scriptlet is one install-time script embedded into the spec file.
type Scriptlet struct {
	// Type is one of scriptletTypes.
	Type    string
	Content string
	// Shebang is the interpreter from the scriptlet's first line, without
	// the "#!" prefix, or empty when there is none. rpmbuild receives it
	// through the -p option so the scriptlet does not run under the
	// default shell.
	Shebang string
}

type specData struct {
	FixedVersion string
	Files        []string
	Scriptlets   []Scriptlet
}

// loadScriptlets reads scriptlet files named in the environment, one
// optional variable per scriptlet type (e.g. LDNP_RPM_SCRIPTLET_post).
func (p *RpmPackager) loadScriptlets() ([]Scriptlet, error) {
	var scriptlets []Scriptlet
	for _, scriptletType := range scriptletTypes {
		scriptletPath := p.envValue("LDNP_RPM_SCRIPTLET_" + scriptletType)
		if scriptletPath == "" {
			continue
		}
		p.logger.Info().Str("type", scriptletType).Str("path", scriptletPath).Msg("found scriptlet")
		data, err := os.ReadFile(scriptletPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read scriptlet of type %s: %w", scriptletType, err)
		}
		content := string(data)
		scriptlets = append(scriptlets, Scriptlet{
			Type:    scriptletType,
			Content: content,
			Shebang: extractShebang(content),
		})
	}
	return scriptlets, nil
}

func extractShebang(content string) string {
	firstLine, _, _ := strings.Cut(content, "\n")
	if !strings.HasPrefix(firstLine, "#!") {
		return ""
	}
	return strings.TrimPrefix(firstLine, "#!")
}

// buildFileList produces the %files manifest: every non-directory entry of
// the install root plus every directory that is itself a symlink, as
// absolute target paths, sorted. Entries below a symlinked directory are
// excluded; listing the symlink itself is sufficient, and rpm refuses to
// extract a file whose listed parent turns out not to be a real directory.
func (p *RpmPackager) buildFileList() ([]string, error) {
	var files sortedset.String
	err := filepath.WalkDir(p.installRootDir, func(fpath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if fpath == p.installRootDir {
			return nil
		}
		// WalkDir reports a symlink to a directory as a non-directory
		// entry and does not descend into it, so symlinked directories
		// are kept while plain ones are dropped here.
		if d.IsDir() {
			return nil
		}
		relativePath, err := filepath.Rel(p.installRootDir, fpath)
		if err != nil {
			return err
		}
		// Defensive with the walk above, but cheap. Trees assembled by
		// other means could still contain entries below symlinks.
		excluded, err := pathutil.HasSymlinkAncestor(p.installRootDir, relativePath)
		if err != nil {
			return err
		}
		if excluded {
			return nil
		}
		var added bool
		files, added = files.AddOne("/" + relativePath)
		if !added {
			return fmt.Errorf("internal error: duplicate manifest entry %s", "/"+relativePath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// fixRpmVersion rewrites version strings rpm cannot digest. Dashes separate
// version and release in rpm's grammar and thus cannot appear inside the
// version itself.
func (p *RpmPackager) fixRpmVersion(version string) string {
	fixedVersion := strings.ReplaceAll(version, "-", "_")
	if fixedVersion != version {
		p.logger.Warn().Str("version", version).Str("fixed", fixedVersion).Msg("version number incompatible with rpm, changed")
	}
	return fixedVersion
}

// generateSpecFile renders package.spec into the work directory.
func (p *RpmPackager) generateSpecFile() error {
	files, err := p.buildFileList()
	if err != nil {
		return err
	}
	scriptlets, err := p.loadScriptlets()
	if err != nil {
		return err
	}
	rendered, err := p.renderTemplate("spec.tmpl", &specData{
		FixedVersion: p.fixRpmVersion(p.meta.Value("VERSION")),
		Files:        files,
		Scriptlets:   scriptlets,
	})
	if err != nil {
		return err
	}
	specPath := filepath.Join(p.workDir, "package.spec")
	p.logger.Info().Str("path", specPath).Msg("generating spec file")
	return os.WriteFile(specPath, []byte(rendered), 0644)
}

// generateRpm runs rpmbuild on the generated spec file and moves the single
// built archive to outPath.
func (p *RpmPackager) generateRpm(outPath, buildArch string) error {
	args := []string{
		"rpmbuild",
		// Let rpmbuild find the spec's inputs relative to the work
		// directory instead of a conventional SOURCES tree.
		"--define", "_builddir " + p.workDir,
		// Keep rpmbuild's own state out of the user's $HOME.
		"--define", "_topdir " + filepath.Join(p.workDir, "rpmbuild"),
		"--define", "_rpmdir " + p.outDir,
		"--define", "_install_root " + p.installRootDir,
		// Build-id links collide between packages built from the same
		// binaries, which would break coinstallation.
		"--define", "_build_id_links none",
		"-bb",
	}
	if buildArch != "" {
		args = append(args, "--target", buildArch)
	}
	args = append(args, "package.spec")
	if err := p.runner.Run(args, p.workDir); err != nil {
		return err
	}

	var builtRpms []string
	err := filepath.WalkDir(p.outDir, func(fpath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(fpath) == ".rpm" {
			builtRpms = append(builtRpms, fpath)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(builtRpms) == 0 {
		return fmt.Errorf("rpmbuild succeeded but no RPM was built")
	}
	if len(builtRpms) > 1 {
		return fmt.Errorf("rpmbuild built more than one RPM: %s", strings.Join(builtRpms, ", "))
	}
	return fsutil.Move(builtRpms[0], outPath)
}

func (p *RpmPackager) CreatePackage(outPath string) (string, error) {
	p.logger.Info().Str("path", outPath).Msg("creating RPM package")

	const extension = ".rpm"
	// Remove the extension temporarily so the build architecture can be
	// inserted before it when one is configured.
	outPath = strings.TrimSuffix(outPath, extension)
	buildArch := p.meta.Value("BUILD_ARCH")
	if buildArch != "" {
		outPath += "_" + buildArch
	}
	outPath += extension

	if err := p.mergeTree(); err != nil {
		return "", err
	}
	if err := p.generateSpecFile(); err != nil {
		return "", err
	}
	if err := p.generateRpm(outPath, buildArch); err != nil {
		return "", err
	}
	return outPath, nil
}

// SignPackage signs a built .rpm with rpmsign. RPM-based distributions
// widely check binary package signatures, so an unsigned package triggers
// warnings on installation.
//
// rpmsign insists on a GPG identity. When the caller does not provide one,
// the first secret key of the user's keyring is used.
func (p *RpmPackager) SignPackage(path, gpgKey string) error {
	if gpgKey == "" {
		var err error
		gpgKey, err = p.defaultGpgKey()
		if err != nil {
			return err
		}
		p.logger.Info().Str("key", gpgKey).Msg("no GPG key provided, using first secret key")
	}
	return p.runner.Run([]string{"rpmsign", "--resign", path, "-D", "_gpg_name " + gpgKey}, "")
}

// defaultGpgKey returns the key ID of the first secret key in the user's
// GnuPG keyring, using gpg's machine-readable colon output.
func (p *RpmPackager) defaultGpgKey() (string, error) {
	output, err := p.runner.Output([]string{"gpg", "--list-secret-keys", "--with-colons"})
	if err != nil {
		return "", fmt.Errorf("cannot list secret GPG keys: %w", err)
	}
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "sec:") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) > 4 && fields[4] != "" {
			return fields[4], nil
		}
	}
	return "", fmt.Errorf("no secret GPG key found to sign with")
}
