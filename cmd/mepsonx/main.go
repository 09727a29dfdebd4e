package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/leavex/mepsonx/internal/config"
	"github.com/leavex/mepsonx/internal/log"
	"github.com/leavex/mepsonx/internal/rules"

	// Import all rule packages so their init() functions register rules.
	_ "github.com/leavex/mepsonx/internal/rules/countbound"
	_ "github.com/leavex/mepsonx/internal/rules/percentconsistency"
	_ "github.com/leavex/mepsonx/internal/rules/provenance"
	_ "github.com/leavex/mepsonx/internal/rules/rankingorder"
	_ "github.com/leavex/mepsonx/internal/rules/ranksequence"
	_ "github.com/leavex/mepsonx/internal/rules/tableformat"
)

// Exit codes.
const (
	exitOK    = 0
	exitDiags = 1
	exitError = 2
)

func main() {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(a.run(os.Args[1:]))
}

const usageText = `Usage: mepsonx <command> [flags] [args...]

Commands:
  scrape    Fetch MEP profiles from the European Parliament website
  merge     Apply manual overrides to the scraped records
  rank      Compute the country and EU group rankings as a report
  snapshots List the snapshots stored in the database
  check     Verify ranking tables in report files
  fix       Auto-fix ranking tables in place
  show      Render a report in the terminal
  help      Show help for rules
  init      Generate a default .mepsonx.yml config file
  version   Print version and exit

Global flags:
  -h, --help      Show this help

Run 'mepsonx <command> --help' for more information on a command.
`

// app holds the streams a command reads and writes, so commands can run
// in-process under test.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (a *app) run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usageText)
		return exitOK
	}

	switch first := args[0]; first {
	case "--help", "-h":
		fmt.Fprint(a.stderr, usageText)
		return exitOK
	case "scrape":
		return a.runScrape(args[1:])
	case "merge":
		return a.runMerge(args[1:])
	case "rank":
		return a.runRank(args[1:])
	case "snapshots":
		return a.runSnapshots(args[1:])
	case "check":
		return a.runCheck(args[1:])
	case "fix":
		return a.runFix(args[1:])
	case "show":
		return a.runShow(args[1:])
	case "help":
		return a.runHelp(args[1:])
	case "init":
		return a.runInit(args[1:])
	case "version":
		a.printVersion()
		return exitOK
	default:
		fmt.Fprintf(a.stderr, "mepsonx: unknown command %q\n\n%s", first, usageText)
		return exitError
	}
}

// fail prints err and returns the error exit code.
func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "mepsonx: %v\n", err)
	return exitError
}

func (a *app) printVersion() {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	fmt.Fprintf(a.stdout, "mepsonx %s\n", version)
}

// flagSet returns a flag set writing to the app's stderr, with the
// flags every command shares.
func (a *app) flagSet(name, usage string, configPath *string, verbose *bool) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.StringVarP(configPath, "config", "c", "", "Override config file path")
	fs.BoolVarP(verbose, "verbose", "v", false, "Print debug messages")
	fs.Usage = func() {
		fmt.Fprint(a.stderr, usage+"\nFlags:\n")
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args and reports the exit code to return when parsing
// ends the command.
func parse(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitError, false
	}
	return 0, true
}

// loadConfig resolves the config file, then applies .env and MEPSONX_*
// variables on top.
func (a *app) loadConfig(configPath string, logger *log.Logger) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, path, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Printf("using config %s", path)
	}
	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runInit implements the "init" subcommand: generate .mepsonx.yml.
func (a *app) runInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: mepsonx init\n\n"+
			"Generate a default %s config file in the current directory.\n", config.FileName)
	}
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		return a.fail(errors.New("init takes no arguments"))
	}

	if _, err := os.Stat(config.FileName); err == nil {
		return a.fail(fmt.Errorf("%s already exists", config.FileName))
	}

	data, err := yaml.Marshal(config.DumpDefaults())
	if err != nil {
		return a.fail(fmt.Errorf("marshalling config: %w", err))
	}
	if err := os.WriteFile(config.FileName, data, 0o644); err != nil {
		return a.fail(fmt.Errorf("writing %s: %w", config.FileName, err))
	}

	fmt.Fprintf(a.stderr, "mepsonx: created %s\n", config.FileName)
	return exitOK
}

const helpUsageText = `Usage: mepsonx help <topic>

Topics:
  rule [id|name]   Show rule documentation
`

// runHelp implements the "help" subcommand.
func (a *app) runHelp(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, helpUsageText)
		return exitOK
	}

	switch args[0] {
	case "rule":
		if len(args) == 1 {
			return a.listRules()
		}
		content, err := rules.LookupRule(args[1])
		if err != nil {
			return a.fail(err)
		}
		fmt.Fprint(a.stdout, content)
		return exitOK
	default:
		return a.fail(fmt.Errorf("help: unknown topic %q", args[0]))
	}
}

func (a *app) listRules() int {
	all, err := rules.ListRules()
	if err != nil {
		return a.fail(err)
	}
	for _, r := range all {
		fmt.Fprintf(a.stdout, "%-6s %-22s %s\n", r.ID, r.Name, r.Description)
	}
	return exitOK
}
