package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/capture"
	"github.com/ayusman/pianogames/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var preview int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Server.Bind
			}

			var camera server.FrameSource
			if preview >= 0 {
				cam, _, err := capture.OpenFirst([]int{preview}, ctx.log())
				if err != nil {
					return err
				}
				defer cam.Close()
				camera = cam
			}

			ctx.hub = server.NewHub(ctx.log())
			srv := ctx.newServer(cfg, st, camera)
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", bind)
			if err := srv.ListenAndServe(cmd.Context(), bind); err != nil {
				ctx.log().Error("server failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to server.bind)")
	cmd.Flags().IntVar(&preview, "preview", -1, "Camera index to stream at /api/stream (-1 disables)")
	return cmd
}
