// Package cli собирает команды threaducate.
package cli

import (
	"fmt"

	"github.com/UkralStul/threaducate/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version проставляется при сборке через -ldflags.
var Version = "dev"

// app - общее состояние команд: конфиг и логгер, собранные в PersistentPreRunE.
type app struct {
	configFile  string
	storageType string
	databaseURL string
	debug       bool

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand собирает корневую команду со всеми подкомандами.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "threaducate",
		Short: "Threaducate - threads, nested comments and learning lists",
		Long: `Threaducate serves community threads with nested comments.

It provides:
- an HTTP/JSON API with a websocket stream of new comments
- a terminal view of a thread with collapsed branches and reply target
- in-memory, local (sqlite) and postgres storage`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: threaducate.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.storageType, "storage", "", "storage type (in-memory, local or postgres)")
	rootCmd.PersistentFlags().StringVar(&a.databaseURL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug output")

	rootCmd.AddCommand(a.serveCmd())
	rootCmd.AddCommand(a.renderCmd())
	rootCmd.AddCommand(a.seedCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// init загружает конфиг и применяет поверх него флаги командной строки.
func (a *app) init() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.storageType != "" {
		cfg.Storage.Type = a.storageType
	}
	if a.databaseURL != "" {
		cfg.Database.URL = a.databaseURL
	}
	if a.debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// конфиг для версии не нужен
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "threaducate %s\n", Version)
		},
	}
}
