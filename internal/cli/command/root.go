package command

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv-go/internal/cli/config"
	"github.com/yndnr/memkv-go/internal/cli/connection"
	"github.com/yndnr/memkv-go/internal/cli/output"
	"github.com/yndnr/memkv-go/internal/cli/repl"
	"github.com/yndnr/memkv-go/internal/infra/buildinfo"
	"github.com/yndnr/memkv-go/internal/server/redisserver"
)

const configKey = "config"

// errReply signals that the server answered with an error reply. The
// reply itself has already been printed.
var errReply = cli.Exit("", 1)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "memkv-cli",
		Usage:     "Command-line client for memkv-server",
		UsageText: "memkv-cli [global options] [COMMAND [ARG...]]",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Before:    loadConfig,
		Action:    runCommand,
		Commands: []*cli.Command{
			{
				Name:   "repl",
				Usage:  "Start an interactive session",
				Action: runREPL,
			},
		},
	}
}

// globalFlags returns the global CLI flags. Unset flags fall back to
// the CLI config file and MEMKV_CLI_* variables.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to CLI config file (default ~/.memkv/cli.yaml)",
			EnvVars: []string{"MEMKV_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Server address host:port",
			Value:   config.DefaultServer,
		},
		&cli.IntFlag{
			Name:    "db",
			Aliases: []string{"n"},
			Usage:   "Database number",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, raw, json, yaml",
			Value:   string(output.FormatText),
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Dial and request timeout",
			Value:   config.DefaultTimeout,
		},
	}
}

// overridesFrom maps explicitly set flags to configuration keys.
func overridesFrom(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	if c.IsSet("server") {
		overrides["connection.server"] = c.String("server")
	}
	if c.IsSet("db") {
		overrides["connection.db"] = c.Int("db")
	}
	if c.IsSet("output") {
		overrides["output.format"] = c.String("output")
	}
	if c.IsSet("timeout") {
		overrides["connection.timeout"] = c.Duration("timeout")
	}
	return overrides
}

func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), overridesFrom(c))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

// configFrom returns the configuration installed by loadConfig.
func configFrom(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[configKey].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// dial connects and selects the configured database.
func dial(cfg *config.CLIConfig) (*connection.Client, error) {
	client, err := connection.Dial(cfg.Connection.Server, cfg.Connection.Timeout)
	if err != nil {
		return nil, err
	}
	if cfg.Connection.DB != 0 {
		if _, err := client.Do("SELECT", strconv.Itoa(cfg.Connection.DB)); err != nil {
			client.Close()
			return nil, fmt.Errorf("select db %d: %w", cfg.Connection.DB, err)
		}
	}
	return client, nil
}

func formatterFor(cfg *config.CLIConfig) output.Formatter {
	// Validated by config.Load.
	f, _ := output.ParseFormat(cfg.Output.Format)
	return output.NewFormatter(f)
}

// runCommand sends the positional arguments as one command. With no
// arguments it starts the REPL.
func runCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return runREPL(c)
	}
	cfg := configFrom(c)
	client, err := dial(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	return execute(c.App.Writer, client, formatterFor(cfg), c.Args().Slice())
}

// execute prints the reply to args. Error replies are printed like any
// other reply and reported through errReply.
func execute(w io.Writer, exec repl.Executor, f output.Formatter, args []string) error {
	reply, err := exec.Do(args...)
	var re *redisserver.ReplyError
	if errors.As(err, &re) {
		_ = output.FormatError(w, err)
		return errReply
	}
	if err != nil {
		return err
	}
	return f.Format(w, reply)
}

func runREPL(c *cli.Context) error {
	cfg := configFrom(c)
	client, err := dial(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	history := repl.NewHistory(cfg.History.File)
	if err := history.Load(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: load history: %v\n", err)
	}
	r := repl.New(client,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithFormatter(formatterFor(cfg)),
		repl.WithHistory(history),
		repl.WithDB(cfg.Connection.DB),
	)
	runErr := r.Run()
	if err := history.Save(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: save history: %v\n", err)
	}
	return runErr
}
