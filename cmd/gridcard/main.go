// Command gridcard decrypts a grid card with gpg and prints the values at
// the requested coordinates.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gridcard/cmd/gridcard/ui"
	"gridcard/internal/config"
	"gridcard/internal/logging"
	"gridcard/internal/query"
	"gridcard/internal/tactile"
	"gridcard/internal/vault"
)

// exitError carries the process exit code for an error out of cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: query.ExitUsage, err: err}
}

// app holds the flag values and streams of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// Global flags
	configPath string
	workDir    string
	verbose    bool

	// Query flags
	file      string
	positions string

	// config init
	force bool
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gridcard",
		Short: "Look up values on an encrypted grid card",
		Long: `gridcard decrypts an 8x8 grid card with an external tool (gpg by default),
prints the values at the requested coordinates and deletes the decrypted file.

A coordinate is three characters: row, column and channel. Rows and columns
are A-H or 1-8; the channel is A-C or 1-3.

Example:
  gridcard --file card.gpg --positions A11,H83`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          a.runQuery,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/gridcard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.workDir, "workdir", "", "Directory for the decrypted temp file (overrides decrypt.working_directory)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.Flags().StringVarP(&a.file, "file", "f", "", "Encrypted card file (required)")
	rootCmd.Flags().StringVarP(&a.positions, "positions", "p", "", "Comma-separated coordinates, e.g. A11,H83 (required)")
	_ = rootCmd.MarkFlagRequired("file")
	_ = rootCmd.MarkFlagRequired("positions")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.configInit,
	}
	configInitCmd.Flags().BoolVar(&a.force, "force", false, "Overwrite an existing file")
	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  a.configShow,
	}
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	return rootCmd
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err == nil {
		return query.ExitSuccess
	}

	code := query.ExitUsage
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}

	styles := ui.NewStyles(stderr)
	switch code {
	case query.ExitResidualState:
		fmt.Fprintln(stderr, styles.RenderWarning(err.Error()))
		fmt.Fprintln(stderr, styles.RenderHint("The decrypted file is still on disk; remove it by hand."))
	case query.ExitUsage:
		fmt.Fprintln(stderr, styles.RenderError(err))
		fmt.Fprintln(stderr, styles.RenderHint("Run 'gridcard --help' for usage."))
	default:
		fmt.Fprintln(stderr, styles.RenderError(err))
	}
	return code
}

// loadConfig resolves, loads and validates the configuration, applying the
// command line overrides.
func (a *app) loadConfig() (*config.Config, error) {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if a.workDir != "" {
		cfg.Decrypt.WorkingDirectory = a.workDir
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// runQuery runs the decrypt, parse and lookup pipeline.
func (a *app) runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return usageError(err)
	}

	if err := logging.Initialize(cfg.Logging, a.stderr); err != nil {
		return usageError(err)
	}
	defer logging.Sync()
	logging.Boot("gridcard starting: file=%s", a.file)
	logging.BootDebug("Config loaded: binary=%s workdir=%s output=%s",
		cfg.Decrypt.Binary, cfg.Decrypt.WorkingDirectory, cfg.Decrypt.OutputFile)

	// Handle graceful shutdown; cancelling kills the decryption tool.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The tool's own stdout goes to stderr so stdout only carries values.
	execCfg := tactile.DefaultExecutorConfig()
	execCfg.Stdin = a.stdin
	execCfg.Stdout = a.stderr
	execCfg.Stderr = a.stderr
	execCfg.AllowedEnvironment = cfg.Decrypt.AllowedEnvVars
	executor := tactile.NewDirectExecutorWithConfig(execCfg)

	audit := tactile.NewAuditLogger()
	audit.Attach(executor)

	gateway := vault.New(vault.OptionsFromConfig(cfg), executor)
	engine := query.NewEngine(gateway, cfg.GridFormat(), a.stdout)

	err = engine.Run(ctx, a.file, a.positions)

	m := audit.GetMetrics()
	logging.BootDebug("Executions: started=%d completed=%d non-zero=%d killed=%d errors=%d total=%s",
		m.Started, m.Completed, m.NonZeroExits, m.Killed, m.Errors, m.TotalDuration)

	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			logging.BootWarn("Interrupted")
		}
		return &exitError{code: query.ExitCode(err), err: err}
	}
	return nil
}

// configInit writes the default configuration to path, or to the XDG
// config home when no path is given.
func (a *app) configInit(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		p, err := config.InitPath()
		if err != nil {
			return &exitError{code: query.ExitFailure, err: err}
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !a.force {
		return usageError(fmt.Errorf("%s already exists (use --force to overwrite)", path))
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return &exitError{code: query.ExitFailure, err: err}
	}

	fmt.Fprintln(a.stdout, ui.NewStyles(a.stdout).RenderSuccess("Wrote "+path))
	return nil
}

// configShow prints the effective configuration as YAML.
func (a *app) configShow(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return usageError(err)
	}

	data, err := cfg.Marshal()
	if err != nil {
		return &exitError{code: query.ExitFailure, err: err}
	}
	_, err = a.stdout.Write(data)
	return err
}
