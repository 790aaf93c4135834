package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/appdir"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/logging"
	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/packager"
)

var shortBuildHelp = "Build native packages from an AppDir"
var longBuildHelp = `
The build command converts an AppDir into one or more native Linux packages.
The application is installed below /opt/<name>.AppDir and projected into the
filesystem hierarchy through symlinks and generated launcher scripts.

Package metadata is taken from LDNP_META_* environment variables (see the
project documentation) and, where not provided, guessed from the AppDir's
root desktop entry.
`

type cmdBuild struct {
	AppDir       string   `long:"appdir" value-name:"<path>" env:"LDNP_APPDIR" required:"yes"`
	Build        []string `long:"build" value-name:"<type>" env:"LDNP_BUILD" env-delim:";" required:"yes" choice:"deb" choice:"rpm"`
	Sign         bool     `long:"sign" env:"LDNP_SIGN"`
	GPGKey       string   `long:"gpg-key" value-name:"<key>" env:"LDNP_GPG_KEY"`
	MetadataFile string   `long:"metadata-file" value-name:"<path>" env:"LDNP_METADATA_FILE"`
	OutputDir    string   `long:"output-dir" value-name:"<path>" env:"LDNP_OUTPUT_DIR"`
	Debug        bool     `long:"debug" env:"DEBUG"`
}

func init() {
	addCommand("build", shortBuildHelp, longBuildHelp, func() flags.Commander { return &cmdBuild{} },
		map[string]string{
			"appdir":        "AppDir to build packages from",
			"build":         "Package type to build (deb or rpm), may be repeated",
			"sign":          "Sign the built packages",
			"gpg-key":       "GPG key to sign with instead of the default one",
			"metadata-file": "YAML file with default values for package metadata",
			"output-dir":    "Directory to place the built packages in (default: current directory)",
			"debug":         "Enable debug logging",
		}, nil)
}

func (cmd *cmdBuild) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	logger := logging.New(Stderr, cmd.Debug)

	appDirPath, err := filepath.Abs(cmd.AppDir)
	if err != nil {
		return err
	}
	a := appdir.New(appDirPath)

	outputDir := cmd.OutputDir
	if outputDir == "" {
		outputDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	// Each package type is built in its own private staging directory,
	// start to finish, before the next one begins.
	for _, buildType := range cmd.Build {
		if err := cmd.buildOne(logger, a, buildType, outputDir); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *cmdBuild) buildOne(logger zerolog.Logger, a appdir.AppDir, buildType, outputDir string) error {
	workDir, err := os.MkdirTemp("", "ldnp-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	p, err := packager.New(buildType, logger, a, workDir, os.Environ(), cmd.MetadataFile)
	if err != nil {
		return err
	}

	outPath := filepath.Join(outputDir, p.OutputBaseName()+"."+buildType)
	builtPath, err := p.CreatePackage(outPath)
	if err != nil {
		return err
	}

	// Never claim success on the word of the external tool alone.
	finfo, err := os.Stat(builtPath)
	if err != nil {
		return fmt.Errorf("packaging tool reported success but %s is missing: %w", builtPath, err)
	}
	if !finfo.Mode().IsRegular() {
		return fmt.Errorf("packaging tool reported success but %s is not a regular file", builtPath)
	}

	if cmd.Sign {
		if err := p.SignPackage(builtPath, cmd.GPGKey); err != nil {
			return err
		}
	}

	logger.Info().Str("path", builtPath).Msg("package built")
	return nil
}
