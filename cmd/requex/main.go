package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/auditkraft/requex/internal/config"
	"github.com/auditkraft/requex/internal/store"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ConfigDir string
	Verbose   bool
	Version   bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("requex", flag.ContinueOnError)
	fs.StringVar(&flags.ConfigDir, "config-dir", ".", "directory holding requex.yml and .env")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageText)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(flags.Verbose)

	command, rest := fs.Arg(0), fs.Args()[1:]
	switch command {
	case "run":
		return runAudit(cfg, logger, rest)
	case "status":
		return runStatus(cfg, rest)
	case "export":
		return runExport(cfg, rest)
	case "serve-mcp":
		return runServeMCP(cfg)
	default:
		return fmt.Errorf("unknown command %q (run, status, export, serve-mcp)", command)
	}
}

const usageText = `usage: requex [flags] <command> [args]

commands:
  run <doc.pdf> [more.pdf ...]   execute the audit pipeline for a document set
  status [run-id]                show stage completion for audit runs
  export <run-id>                write a run's JSON export to stdout
  serve-mcp                      serve the audit tools over MCP stdio

flags:
`

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore picks the blob backend from configuration: SQLite when a DSN is
// set, the filesystem tree otherwise.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDSN != "" {
		return store.NewSQLiteStore(cfg.StoreDSN)
	}
	return store.NewFSStore(cfg.StoreDir)
}
