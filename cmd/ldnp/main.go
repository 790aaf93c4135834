package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jessevdk/go-flags"

	"github.com/linuxdeploy/linuxdeploy-plugin-native-packages/internal/configerr"
)

var (
	// Standard streams, redirected for testing.
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

type options struct {
	Version          func() `long:"version"`
	PluginType       func() `long:"plugin-type"`
	PluginAPIVersion func() `long:"plugin-api-version"`
}

type argDesc struct {
	name string
	desc string
}

var optionsData options

// ErrExtraArgs is returned if extra arguments to a command are found
var ErrExtraArgs = fmt.Errorf("too many arguments for command")

// cmdInfo holds information needed to call parser.AddCommand(...).
type cmdInfo struct {
	name, shortHelp, longHelp string
	builder                   func() flags.Commander
	hidden                    bool
	optDescs                  map[string]string
	argDescs                  []argDesc
}

// commands holds information about all commands.
var commands []*cmdInfo

// addCommand replaces parser.addCommand() in a way that is compatible with
// re-constructing a pristine parser.
func addCommand(name, shortHelp, longHelp string, builder func() flags.Commander, optDescs map[string]string, argDescs []argDesc) *cmdInfo {
	info := &cmdInfo{
		name:      name,
		shortHelp: shortHelp,
		longHelp:  longHelp,
		builder:   builder,
		optDescs:  optDescs,
		argDescs:  argDescs,
	}
	commands = append(commands, info)
	return info
}

type parserSetter interface {
	setParser(*flags.Parser)
}

func lintDesc(cmdName, optName, desc, origDesc string) {
	if len(optName) == 0 {
		panicf("option on %q has no name", cmdName)
	}
	if len(origDesc) != 0 {
		panicf("description of %s's %q of %q set from tag", cmdName, optName, origDesc)
	}
	if len(desc) > 0 {
		// decode the first rune instead of converting all of desc into []rune
		r, _ := utf8.DecodeRuneInString(desc)
		// note IsLower != !IsUpper for runes with no upper/lower.
		if unicode.IsLower(r) && !strings.HasPrefix(desc, cmdName) {
			logf("description of %s's %q is lowercase: %q", cmdName, optName, desc)
		}
	}
}

func lintArg(cmdName, optName, desc, origDesc string) {
	lintDesc(cmdName, optName, desc, origDesc)
	if len(optName) > 0 && optName[0] == '<' && optName[len(optName)-1] == '>' {
		return
	}
	logf("argument %q's %q should begin with < and end with >", cmdName, optName)
}

func logf(format string, args ...interface{}) {
	fmt.Fprintf(Stderr, format+"\n", args...)
}

func panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

// Parser creates and populates a fresh parser.
// Since commands have local state a fresh parser is required to isolate tests
// from each other.
func Parser() *flags.Parser {
	optionsData.Version = func() {
		printVersion()
		panic(&exitStatus{0})
	}
	// The linuxdeploy plugin API probes plugins with these two options
	// and expects a bare value on stdout.
	optionsData.PluginType = func() {
		fmt.Fprintln(Stdout, "output")
		panic(&exitStatus{0})
	}
	optionsData.PluginAPIVersion = func() {
		fmt.Fprintln(Stdout, "0")
		panic(&exitStatus{0})
	}
	flagopts := flags.Options(flags.PassDoubleDash)
	parser := flags.NewParser(&optionsData, flagopts)
	parser.ShortDescription = "Tool to build native packages from AppDirs"
	parser.LongDescription = longLdnpDescription
	// hide the unhelpful "[OPTIONS]" from help output
	parser.Usage = ""
	for longName, desc := range map[string]string{
		"version":            "Print the version and exit",
		"plugin-type":        "Print the linuxdeploy plugin type and exit",
		"plugin-api-version": "Print the linuxdeploy plugin API version and exit",
	} {
		if opt := parser.FindOptionByLongName(longName); opt != nil {
			opt.Description = desc
			opt.Hidden = true
		}
	}
	// add --help like what go-flags would do for us, but hidden
	addHelp(parser)

	for _, c := range commands {
		obj := c.builder()
		if x, ok := obj.(parserSetter); ok {
			x.setParser(parser)
		}

		cmd, err := parser.AddCommand(c.name, c.shortHelp, strings.TrimSpace(c.longHelp), obj)
		if err != nil {
			panicf("cannot add command %q: %v", c.name, err)
		}
		cmd.Hidden = c.hidden

		opts := cmd.Options()
		if c.optDescs != nil && len(opts) != len(c.optDescs) {
			panicf("wrong number of option descriptions for %s: expected %d, got %d", c.name, len(c.optDescs), len(opts))
		}
		for _, opt := range opts {
			name := opt.LongName
			if name == "" {
				name = string(opt.ShortName)
			}
			desc, ok := c.optDescs[name]
			if !(c.optDescs == nil || ok) {
				panicf("%s missing description for %s", c.name, name)
			}
			lintDesc(c.name, name, desc, opt.Description)
			if desc != "" {
				opt.Description = desc
			}
		}

		args := cmd.Args()
		if c.argDescs != nil && len(args) != len(c.argDescs) {
			panicf("wrong number of argument descriptions for %s: expected %d, got %d", c.name, len(c.argDescs), len(args))
		}
		for i, arg := range args {
			name, desc := arg.Name, ""
			if c.argDescs != nil {
				name = c.argDescs[i].name
				desc = c.argDescs[i].desc
			}
			lintArg(c.name, name, desc, arg.Description)
			arg.Name = name
			arg.Description = desc
		}
	}
	return parser
}

func main() {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(*exitStatus); ok {
				os.Exit(e.code)
			}
			panic(v)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		prefix := errorPrefix
		var cerr *configerr.Error
		if errors.As(err, &cerr) {
			prefix = configErrorPrefix
		}
		fmt.Fprintf(Stderr, prefix+"%v\n", err)
		os.Exit(1)
	}
}

// exitStatus can be used in panic(&exitStatus{code}) to cause ldnp's main
// function to exit with a given exit code, for the rare cases when you want
// to return an exit code other than 0 or 1, or when an error return is not
// possible.
type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("internal error: exitStatus{%d} being handled as normal error", e.code)
}

func run(args []string) error {
	// linuxdeploy invokes output plugins with top-level options only,
	// starting with --appdir. Route such invocations to the build
	// command; the plugin API probe options are handled at the top level
	// either way.
	if len(args) > 0 && strings.HasPrefix(args[0], "--appdir") {
		args = append([]string{"build"}, args...)
	}

	parser := Parser()
	xtra, err := parser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); ok {
			switch e.Type {
			case flags.ErrCommandRequired:
				printShortHelp()
				return nil
			case flags.ErrHelp:
				parser.WriteHelp(Stdout)
				return nil
			case flags.ErrUnknownCommand:
				sub := ""
				if len(args) > 0 {
					sub = args[0]
				}
				sug := "ldnp help"
				if len(xtra) > 0 {
					sub = xtra[0]
					if x := parser.Command.Active; x != nil && x.Name != "help" {
						sug = "ldnp help " + x.Name
					}
				}
				return fmt.Errorf("unknown command %q, see '%s'.", sub, sug)
			}
		}
		return err
	}

	return nil
}

var (
	errorPrefix       = "error: "
	configErrorPrefix = "configuration error: "
)
