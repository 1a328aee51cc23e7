package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PabloGalante/chatpro/internal/config"
	"github.com/PabloGalante/chatpro/internal/observability"
)

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "chatpro",
		Short:   "Chat backend with persisted sessions",
		Long:    "chatpro serves a chat UI and REST API that stores conversation sessions and relays them to an LLM provider.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(a.cfgFile)
			if err != nil {
				return err
			}
			if err := observability.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
				return err
			}
			a.cfg = cfg
			observability.Logger().Debug("config loaded",
				zap.String("storage", string(cfg.Storage.Backend)),
				zap.String("provider", string(cfg.LLM.Provider)),
			)
			return nil
		},
		// Running chatpro with no subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (default $CHATPRO_CONFIG)")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newSessionsCmd(a))

	return rootCmd
}
