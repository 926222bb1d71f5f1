// Package commands implements the gardenbuild command line.
package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/gardenbuild/internal/version"
)

// Global carries the process streams shared by every command.
type Global struct {
	Stdout io.Writer
	Stderr io.Writer
	// Color reports whether Stdout is a terminal that accepts ANSI styles.
	Color bool
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"gardenbuild.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site into the output directory"`
	Check   CheckCmd   `cmd:"" help:"Check content for broken front matter, links and file names"`
	Serve   ServeCmd   `cmd:"" help:"Build, serve and rebuild the site on changes"`
	Init    InitCmd    `cmd:"" help:"Write a default configuration and content directory"`
	New     NewCmd     `cmd:"" help:"Create a new article"`
	List    ListCmd    `cmd:"" help:"List articles with their dates and tags"`
	Plugins PluginsCmd `cmd:"" help:"List available plugins"`
	History HistoryCmd `cmd:"" help:"Show recent builds"`

	stderr io.Writer `kong:"-"`
}

// AfterApply runs after flag parsing; set up logging once. Commands that
// load a configuration refine it with the configured format and level.
func (c *CLI) AfterApply() error {
	setupLogging(c.stderr, config.LogFormatText, c.level(config.LoggingConfig{}))
	return nil
}

func (c *CLI) level(l config.LoggingConfig) slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return l.SlogLevel()
}

func setupLogging(w io.Writer, format config.LogFormat, level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if format == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// loadConfig reads the configuration file and applies its logging section.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	setupLogging(c.stderr, cfg.Logging.Format, c.level(cfg.Logging))
	return cfg, nil
}

// loadConfigOrDefault is loadConfig, falling back to defaults when the file
// does not exist.
func (c *CLI) loadConfigOrDefault() (*config.Config, error) {
	if _, err := os.Stat(c.Config); os.IsNotExist(err) {
		slog.Debug("No configuration file, using defaults", slog.String("path", c.Config))
		return config.Default(), nil
	}
	return c.loadConfig()
}

// exitError ends the process with code without printing anything.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// isColorSupported checks if w is a terminal that supports color output.
func isColorSupported(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && term != ""
}

// Execute parses args, runs the selected command and returns the process
// exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cli := CLI{stderr: stderr}
	global := &Global{Stdout: stdout, Stderr: stderr, Color: isColorSupported(stdout)}

	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("gardenbuild"),
		kong.Description("Static site generator for markdown vaults."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version.String()},
		kong.Exit(func(code int) {
			if exitCode < 0 {
				exitCode = code
			}
		}),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 10
	}
	ctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	err = ctx.Run(global, &cli)
	if err == nil {
		return 0
	}
	var exit *exitError
	if stderrors.As(err, &exit) {
		return exit.code
	}
	adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	_, _ = fmt.Fprintln(stderr, adapter.FormatError(err))
	return adapter.ExitCodeFor(err)
}
