package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	pkg "git.solsynth.dev/hypernet/cuisine/pkg/internal"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/cache"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/database"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/services"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// app is what every command runs against. coordinator is nil for commands
// that never talk to the server.
type app struct {
	ctx         context.Context
	stdout      io.Writer
	stderr      io.Writer
	token       string
	coordinator *services.Coordinator
}

type command struct {
	name    string
	usage   string
	summary string
	// online commands get a coordinator built from the stored session.
	online bool
	run    func(a *app, flags *flag.FlagSet, args []string) error
}

var commands = map[string]command{}

func register(cmds ...command) {
	for _, cmd := range cmds {
		commands[cmd.name] = cmd
	}
}

// Run is the entrypoint, split from main so the dispatcher can be tested.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	case "version", "--version":
		fmt.Fprintf(stdout, "%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprint("HyperNet.Cuisine"), pkg.AppVersion)
		return 0
	}

	cmd, ok := commands[args[1]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}

	flags := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: cuisine %s %s\n", cmd.name, cmd.usage)
		flags.PrintDefaults()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := boot(ctx, cmd, stdout, stderr)
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "%v\n", err)
		return 1
	}
	if a.coordinator != nil {
		defer a.coordinator.Detach()
	}

	if err := cmd.run(a, flags, args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		printError(stderr, err)
		var usage *usageError
		if errors.As(err, &usage) {
			return 2
		}
		return 1
	}
	return 0
}

func boot(ctx context.Context, cmd command, stdout, stderr io.Writer) (*app, error) {
	loadSettings()

	if err := database.NewGorm(); err != nil {
		return nil, fmt.Errorf("unable to open local database: %v", err)
	} else if err := database.RunMigration(database.C); err != nil {
		return nil, fmt.Errorf("unable to migrate local database: %v", err)
	}

	a := &app{ctx: ctx, stdout: stdout, stderr: stderr}
	if !cmd.online {
		return a, nil
	}

	viewer, token, err := services.LoadViewer()
	if err != nil {
		return nil, err
	}
	a.token = token

	if err := cache.NewStore(); err != nil {
		return nil, fmt.Errorf("unable to create cache: %v", err)
	}

	a.coordinator = services.NewCoordinator(gateway.NewFromSettings(token), viewer)
	a.coordinator.Directory = services.NewGroupDirectory(cache.S, cache.TTL())
	a.coordinator.OnError = func(err error) {
		log.Debug().Err(err).Msg("Action surfaced an error.")
	}
	return a, nil
}

func loadSettings() {
	viper.SetDefault("endpoint", "http://localhost:3000/api")
	viper.SetDefault("timeouts.read", gateway.DefaultReadTimeout)
	viper.SetDefault("timeouts.write", gateway.DefaultWriteTimeout)
	viper.SetDefault("database.dsn", "cuisine.db")
	viper.SetDefault("cache.ttl", cache.DefaultTTL)
	viper.SetDefault("debug", false)

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	viper.SetEnvPrefix("cuisine")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Debug().Msg("No settings file found, using defaults...")
		} else {
			log.Warn().Err(err).Msg("An error occurred when loading settings, using defaults...")
		}
	}

	if viper.GetBool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

type usageError struct {
	message string
}

func (e *usageError) Error() string {
	return e.message
}

func usagef(format string, args ...any) error {
	return &usageError{message: fmt.Sprintf(format, args...)}
}

func printError(w io.Writer, err error) {
	var validation *services.ValidationError
	var permission *services.PermissionDenied
	var network *services.NetworkFailure
	var application *services.ApplicationFailure

	red := color.New(color.FgRed)
	switch {
	case services.IsPartialRefresh(err):
		color.New(color.FgYellow).Fprintf(w, "Some recipes are missing from this view:\n%v\n", err)
	case errors.Is(err, services.ErrInFlight):
		color.New(color.FgYellow).Fprintln(w, "That action is already running, try again in a moment.")
	case errors.As(err, &validation):
		red.Fprintf(w, "Invalid input: %v\n", validation)
	case errors.As(err, &permission):
		red.Fprintf(w, "Not allowed: %v\n", permission)
	case errors.As(err, &network):
		red.Fprintf(w, "Could not reach the server: %v\n", network.Err)
	case errors.As(err, &application):
		red.Fprintf(w, "The server refused: %s\n", application.Message)
	default:
		red.Fprintf(w, "%v\n", err)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprint("HyperNet.Cuisine"), pkg.AppVersion)
	fmt.Fprintln(w, "Share recipes with your friends and groups")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: cuisine <command> [flags] [args]")
	fmt.Fprintln(w)

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}
}
