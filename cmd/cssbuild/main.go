package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssbuilder/internal/commands"
	"cssbuilder/internal/config"
	"cssbuilder/internal/state"
)

const appName = "cssbuild"

// initializeAppContext loads configuration and prepares logging after the
// command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		cfg.Logging.Level = "debug"
	}
	env.Cfg = &cfg
	env.Log = cfg.Logging.Prepare()
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log == nil {
		// configuration failed, nothing to flush
		return
	}
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))

	if er := env.Log.Sync(); er != nil && !isSyncNoise(er) {
		err = multierr.Append(err, fmt.Errorf("unable to sync log: %w", er))
	}
	env.RestoreStdLog()
	return
}

// isSyncNoise filters errors returned when syncing a console or pipe
func isSyncNoise(err error) bool {
	for _, e := range multierr.Errors(err) {
		if pe, ok := e.(*os.PathError); !ok || (pe.Err != syscall.EINVAL && pe.Err != syscall.ENOTTY && pe.Err != syscall.EBADF) {
			return false
		}
	}
	return true
}

var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil && env.Cfg.Logging.Level != "none" {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            appName,
		Usage:           "generates CSS from nested rule descriptions (YAML or JSON)",
		Version:         "1.0.0 (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log debug information"},
		},
		Commands: []*cli.Command{
			{
				Name:         "build",
				Usage:        "Builds CSS from description file(s)",
				ArgsUsage:    "[SOURCE]",
				OnUsageError: usageErrorHandler,
				Action:       commands.Build,
				Flags:        commands.BuildFlags(),
				Description: `SOURCE is a YAML or JSON description file, a directory (all *.yaml, *.yml
and *.json files are processed, --output names the destination directory) or
absent/"-" to read STDIN.

Keys containing '&' are nested selectors, '&' is replaced with each parent
selector. Other keys are properties; a list value repeats the property, false
drops one value.`,
			},
			{
				Name:         "attr",
				Usage:        "Builds an escaped value for an HTML style attribute",
				ArgsUsage:    "[SOURCE]",
				OnUsageError: usageErrorHandler,
				Action:       commands.Attr,
				Flags:        commands.BuildFlags(),
			},
			{
				Name:         "embed",
				Usage:        "Embeds generated CSS into an HTML document",
				ArgsUsage:    "DESCRIPTION HTML",
				OnUsageError: usageErrorHandler,
				Action:       commands.Embed,
				Flags: append(commands.BuildFlags(),
					&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "write style attributes of elements matching `SELECTOR` instead of a <style> block"},
					&cli.BoolFlag{Name: "replace", Usage: "replace existing style attributes instead of appending"},
				),
			},
			{
				Name:         "dumpconfig",
				Usage:        "Dumps either default or actual configuration (YAML)",
				ArgsUsage:    "[DESTINATION]",
				OnUsageError: usageErrorHandler,
				Action:       commands.DumpConfig,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default configuration"},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}
