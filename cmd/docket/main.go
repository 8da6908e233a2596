// Command docket imports court case-list exports into a local registry.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/docket/internal/core"
	"github.com/JonMunkholm/docket/internal/logging"
	"github.com/JonMunkholm/docket/internal/store/sqlite"
)

var version = "dev"

// app carries the per-invocation configuration shared by subcommands.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "docket",
		Short: "Import court case-list exports into a case registry",
		Long: `docket reads HTML and RTF case-list exports, recognizes their layout and
reconciles every row against a local SQLite case registry.

Party names are stored encrypted with the registry key (--key or DOCKET_KEY).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: $HOME/.config/docket/config.yaml)")
	flags.String("registry", defaultRegistryPath(), "path of the SQLite registry")
	flags.String("key", "", "base64 registry key")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.Bool("json", false, "print machine-readable output")
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		a.importCmd(),
		a.historyCmd(),
		a.strategiesCmd(),
		versionCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		msg := err.Error()
		if core.IsUserFacing(err) {
			msg = core.FormatUserError(err)
		}
		fmt.Fprintln(os.Stderr, "error:", msg)
		os.Exit(1)
	}
}

func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	if cfgFile := a.v.GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "docket"))
		}
		a.v.AddConfigPath(".")
		a.v.SetConfigName("docket")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("DOCKET")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	logging.Setup(cmd.ErrOrStderr(), a.v.GetString("log-level"), a.v.GetString("log-format"))
	return nil
}

// openRegistry opens the SQLite registry and wraps it in a service.
func (a *app) openRegistry(ctx context.Context) (*core.Service, *sqlite.Store, error) {
	st, err := sqlite.Open(ctx, a.v.GetString("registry"))
	if err != nil {
		return nil, nil, err
	}
	return core.NewService(st, core.ServiceConfig{MaxConcurrent: 1}), st, nil
}

func defaultRegistryPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "docket", "registry.db")
	}
	return "docket.db"
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "docket", version)
		},
	}
}
