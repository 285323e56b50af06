// Command myrmidon identifies tracked ants, detects their collisions and
// reports on processing runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/myrmidon/internal/config"
	"github.com/banshee-data/myrmidon/internal/monitoring"
	"github.com/banshee-data/myrmidon/internal/store"
	"github.com/banshee-data/myrmidon/internal/version"
)

var (
	configPath = flag.String("config", "", "Tuning configuration JSON (built-in defaults when empty)")
	dbPath     = flag.String("db", "", "SQLite database path (overrides db_path)")
	verbose    = flag.Bool("v", false, "Enable debug logging")
)

// errUsage reports a command line problem. The usage has already been
// printed.
var errUsage = errors.New("invalid usage")

// env carries what every command needs.
type env struct {
	cfg    *config.TuningConfig
	dbPath string
	stdin  io.Reader
	stdout io.Writer
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(2)
	}
	monitoring.SetVerbose(*verbose)

	cfg := config.DefaultTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	e := &env{cfg: cfg, dbPath: cfg.GetDBPath(), stdin: os.Stdin, stdout: os.Stdout}
	if *dbPath != "" {
		e.dbPath = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, e, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Printf("%s: %v", flag.Arg(0), err)
		os.Exit(1)
	}
}

func run(ctx context.Context, e *env, command string, args []string) error {
	switch command {
	case "migrate":
		return handleMigrate(e, args)
	case "import":
		return handleImport(ctx, e, args)
	case "process":
		return handleProcess(ctx, e, args)
	case "runs":
		return handleRuns(ctx, e, args)
	case "report":
		return handleReport(ctx, e, args)
	case "interactions":
		return handleInteractions(ctx, e, args)
	case "tagstats":
		return handleTagStats(ctx, e, args)
	case "locate":
		return handleLocate(e, args)
	case "serve":
		return handleServe(ctx, e, args)
	case "version":
		fmt.Fprintln(e.stdout, version.String())
		return nil
	case "help":
		printUsage()
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		return errUsage
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `myrmidon - ant identification and collision detection

Usage: myrmidon [-config tuning.json] [-db myrmidon.db] [-v] <command> [options]

Commands:
  migrate up|down|version   Manage the database schema
  import                    Load ants, identifications and zones from JSON
  process                   Identify and collide a JSON-lines frame stream
  runs                      List processing runs
  report                    Render the collision chart and trajectories of a run
  interactions              List the interactions of a run
  tagstats                  List the tag detection statistics of a run
  locate                    Find the tracking file and movie frame of a frame
  serve                     Serve the run API and the admin routes
  version                   Show version information
  help                      Show this help message

Run 'myrmidon <command> -h' for the options of a command.`)
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// openStore opens the database and applies pending migrations.
func (e *env) openStore() (*store.DB, error) {
	return store.Open(e.dbPath)
}

func handleMigrate(e *env, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: myrmidon migrate up|down|version")
		return errUsage
	}
	db, err := store.OpenDB(e.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	migrations := store.MigrationsFS()
	switch args[0] {
	case "up":
		if err := db.MigrateUp(migrations); err != nil {
			return err
		}
	case "down":
		if err := db.MigrateDown(migrations); err != nil {
			return err
		}
	case "version":
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate action: %s\n", args[0])
		return errUsage
	}
	v, dirty, err := db.MigrateVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "schema version %d (dirty: %v)\n", v, dirty)
	return nil
}
