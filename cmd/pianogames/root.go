package main

import (
	"github.com/spf13/cobra"

	"github.com/ayusman/pianogames/internal/app"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWithDevices(app.Devices{})
}

// newRootCommandWithDevices builds the command tree; devices left nil open
// the real hardware.
func newRootCommandWithDevices(devices app.Devices) *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var liveFlag bool

	ctx := newCommandContext(&configFlag, &logLevelFlag, &liveFlag)
	ctx.devices = devices

	rootCmd := &cobra.Command{
		Use:           "pianogames",
		Short:         "Play the piano with your hands, your voice and your face",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&liveFlag, "live", false, "Serve the web front end while a game runs")

	for _, cmd := range newGameCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newPortsCommand(ctx))
	rootCmd.AddCommand(newSessionsCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
