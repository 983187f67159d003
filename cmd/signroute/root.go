package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/signroute/internal/config"
)

// Version is the application version.
const Version = "0.1.0"

// cli carries state shared by every subcommand.
type cli struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.Load()}

	root := &cobra.Command{
		Use:           "signroute",
		Short:         "Temporal sign recognition from hand landmarks",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.cfg.ApplyDefaults()

			logger, err := config.NewLogger(os.Stderr, c.cfg.LogLevel, c.cfg.LogFormat)
			if err != nil {
				return err
			}
			c.logger = logger
			slog.SetDefault(logger)
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfg.DataDir, "data-dir", c.cfg.DataDir, "directory holding the model, labels and history database")
	flags.StringVar(&c.cfg.ModelPath, "model", c.cfg.ModelPath, "model file (default <data-dir>/model.json)")
	flags.StringVar(&c.cfg.LabelsPath, "labels", c.cfg.LabelsPath, "labels file (default <data-dir>/labels.txt)")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level: debug, info, warn or error")
	flags.StringVar(&c.cfg.LogFormat, "log-format", c.cfg.LogFormat, "log format: text or json")

	root.AddCommand(
		newServeCmd(c),
		newReplayCmd(c),
		newLabelsCmd(c),
		newHistoryCmd(c),
	)
	return root
}
