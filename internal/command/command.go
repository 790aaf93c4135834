// Package command invokes the external packaging tools. The argument vector
// and an optional working directory go in, the exit status comes back out as
// the sole success signal; the tools' own diagnostics pass through to the
// user untouched.
package command

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"mvdan.cc/sh/v3/syntax"
)

type Runner struct {
	logger zerolog.Logger
}

func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{logger: logger.With().Str("component", "command").Logger()}
}

// Run executes the given argument vector, inheriting the standard streams.
// If dir is not empty the command runs with it as working directory.
func (r *Runner) Run(argv []string, dir string) error {
	if len(argv) == 0 {
		return fmt.Errorf("internal error: empty command")
	}
	name := argv[0]
	// Resolving the path up front makes the log line reproducible as-is.
	if resolved, err := exec.LookPath(name); err == nil {
		name = resolved
	}
	r.logger.Info().Str("command", joinQuoted(append([]string{name}, argv[1:]...))).Msg("running command")

	cmd := exec.Command(name, argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s failed: %w", argv[0], err)
	}
	return nil
}

// Output executes the given argument vector and returns its standard
// output. The standard error stream passes through to the user.
func (r *Runner) Output(argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("internal error: empty command")
	}
	r.logger.Debug().Str("command", joinQuoted(argv)).Msg("running command")
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("command %s failed: %w", argv[0], err)
	}
	return string(out), nil
}

func joinQuoted(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			q = fmt.Sprintf("%q", arg)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
