// Package cli implements the passgen command line.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/passgen/passgen/internal/config"
	"github.com/passgen/passgen/pkg/logger"
)

// Version is set at build time with -ldflags "-X github.com/passgen/passgen/internal/cli.Version=...".
var Version = "dev"

// app carries state shared by subcommands once flags are parsed.
type app struct {
	cfgFile  string
	logLevel string

	cfg *config.Config
	log *logger.Logger
}

// NewRootCommand builds the passgen command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "passgen",
		Short: "Generate random passwords",
		Long: `passgen produces random passwords from a chosen mix of uppercase letters,
lowercase letters, digits and symbols, using a cryptographically secure
random source. Run it once from the shell or serve it over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./passgen.yaml)")
	root.PersistentFlags().StringVarP(&a.logLevel, "log-level", "L", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newGenerateCommand(a),
		newCharsetsCommand(a),
		newServeCommand(a),
		newVersionCommand(),
	)

	return root
}

// load reads configuration and builds the logger.
func (a *app) load(logOut io.Writer) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.App.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", a.logLevel, err)
		}
	}

	newLogger := logger.New
	if cfg.App.IsDevelopment() {
		newLogger = logger.NewConsole
	}

	a.cfg = cfg
	a.log = newLogger(logOut, cfg.App.LogLevel).With("app", "passgen")
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
