package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/outbound-caller/cli/cmd/utils"
	"github.com/outbound-caller/cli/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the call form as a local web page",
	Long: `Serve the single-page call form and a JSON API:

  GET  /             the form
  POST /calls        form submission
  GET  /api/status   agent status and configuration
  GET  /api/calls    recent calls
  POST /api/calls    {"phone_number": "...", "transfer_to": "...", "force": false}

The server binds to loopback by default; anyone who can reach it can place calls.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		cfg := web.DefaultConfig()
		cfg.Addr = app.cfg.Server.Addr
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		utils.OutputInfo("Serving on http://%s (Ctrl+C to stop)\n", cfg.Addr)
		return web.New(cfg, app.ctrl).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from server.addr, 127.0.0.1:8501)")
	rootCmd.AddCommand(serveCmd)
}
