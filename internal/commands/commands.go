package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mdtasks/internal/config"
	"mdtasks/internal/storage"
	"mdtasks/internal/task"
)

type options struct {
	configPath string
	vaultRoot  string
	debug      bool
	now        func() time.Time

	cfg      config.Config
	settings task.Settings
}

func New() *cobra.Command {
	return newRoot(&options{now: time.Now})
}

func newRoot(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdtasks",
		Short: "Query and toggle the tasks in a folder of markdown notes.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.load(); err != nil {
				return err
			}
			level := o.cfg.Level()
			if o.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or the user config directory)")
	flags.StringVar(&o.vaultRoot, "vault", "", "folder of notes to read, overriding the config")
	flags.BoolVar(&o.debug, "debug", false, "log at debug level")

	addList(cmd, o)
	addToggle(cmd, o)
	addUI(cmd, o)
	addQuery(cmd, o)
	addHistory(cmd, o)
	addNext(cmd, o)
	return cmd
}

func (o *options) load() error {
	path := config.ResolveConfigPath(o.configPath)
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.vaultRoot != "" {
		cfg.Vault.Root = o.vaultRoot
	}
	s, err := cfg.Settings()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	o.cfg, o.settings = cfg, s
	return nil
}

func (o *options) openStore() (*storage.Store, error) {
	store, err := storage.Open(o.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}
