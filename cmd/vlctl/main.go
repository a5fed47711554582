// main.go - Admin control tool for visitlog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"visitlog/internal"
	"visitlog/internal/seeder"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&StatusCommand{},
	&StatsCommand{},
	&BackupCommand{},
	&SeedCommand{},
	&HelpCommand{},
}

var (
	heading = color.New(color.Bold, color.FgCyan).SprintFunc()
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
)

var errNoApp = errors.New("app initialization failed")

func main() {
	flag.Parse()
	color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Printf("Warning: Failed to initialize app: %v", err)
		log.Println("Proceeding with limited functionality...")
	}

	defer func() {
		if app != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
			app.Geo.Close()
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		fmt.Fprintln(os.Stderr, failure("Command failed: "+err.Error()))
		os.Exit(1)
	}

	fmt.Println(success(fmt.Sprintf("Command %s completed successfully", cmd.Name())))
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot run migrations: %w", errNoApp)
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// StatusCommand reports database connectivity and row counts
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot check status: %w", errNoApp)
	}

	status, err := app.Services.Reports.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	sqlDB, err := app.DBManager.GetConnection().DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	pool := sqlDB.Stats()

	fmt.Println(heading("System Status"))
	fmt.Printf("- Database: %s\n", success("Connected"))
	fmt.Printf("- Path: %s\n", status.DBPath)
	fmt.Printf("- Visits: %d\n", status.VisitsCount)
	fmt.Printf("- GeoIP: %t\n", app.Geo.Enabled())
	fmt.Printf("- Max Open Connections: %d\n", pool.MaxOpenConnections)
	fmt.Printf("- Open Connections: %d\n", pool.OpenConnections)
	fmt.Printf("- In Use: %d\n", pool.InUse)
	fmt.Printf("- Idle: %d\n", pool.Idle)
	return nil
}

// StatsCommand prints the summary statistics served on /api/stats
type StatsCommand struct{}

func (c *StatsCommand) Name() string        { return "stats" }
func (c *StatsCommand) Description() string { return "Prints visit summary statistics" }

func (c *StatsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot compute stats: %w", errNoApp)
	}

	stats, err := app.Services.Reports.GetStats(ctx)
	if err != nil {
		return err
	}

	fmt.Println(heading("Visit Summary"))
	fmt.Printf("- Total visits: %d\n", stats.TotalVisits)
	fmt.Printf("- Unique visitors: %d\n", stats.UniqueVisitors)
	fmt.Printf("- Average duration: %.1fs\n", stats.AvgDuration)
	fmt.Printf("- Mobile visits: %d\n", stats.MobileVisits)
	fmt.Printf("- Desktop visits: %d\n", stats.DesktopVisits)
	return nil
}

// BackupCommand copies the database file next to it or into the backup directory
type BackupCommand struct{}

func (c *BackupCommand) Name() string        { return "backup" }
func (c *BackupCommand) Description() string { return "Creates a timestamped database backup" }

func (c *BackupCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot back up: %w", errNoApp)
	}

	result, err := app.Services.Reports.TriggerBackup(ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Printf("Backup written to %s\n", success(result.BackupPath))
	return nil
}

// SeedCommand populates the DB with generated traffic
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds the database with sample visits" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	visitors := fs.Int("visitors", 200, "number of visitors to generate")
	pageViews := fs.Int("max-page-views", 5, "maximum page views per visitor")
	seed := fs.Int64("seed", 0, "random seed (0 picks one)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app == nil {
		return fmt.Errorf("unable to seed: %w", errNoApp)
	}

	se := seeder.NewSeeder(app.Services.Visits, app.Logger, *visitors, *seed)
	se.MaxPageViews = *pageViews

	summary, err := se.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d visitors, %d page views, %d durations\n",
		summary.Visitors, summary.PageViews, summary.DurationUpdates)
	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println(heading("Usage: vlctl [command] [args...]"))
	fmt.Println("Available commands:")
	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}
