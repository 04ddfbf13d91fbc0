package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/conneroisu/panesync/internal/server"
	"github.com/conneroisu/panesync/internal/websocket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a live chart session over HTTP and WebSocket",
	Long: `Start the session server. Clients connect to /ws, send events and receive
every applied step. /api/events accepts one event per POST, /api/snapshot
returns the current layout and / shows a status page.

Examples:
  panesync serve                    # localhost:8080
  panesync serve --port 3000
  panesync serve --host 0.0.0.0     # Listen on all interfaces`,
	Aliases: []string{"s"},
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	AddFlagValidation(serveCmd.Flags().Lookup("port"), ValidatePort)

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, closeChart, err := e.newServer()
	if err != nil {
		return err
	}
	defer closeChart()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Press Ctrl+C to stop)\n", e.cfg.Server.Addr())
	return srv.Start(ctx)
}

// newServer wires session, hub and HTTP server from the configuration.
func (e *env) newServer() (*server.Server, func(), error) {
	s, err := e.newSession()
	if err != nil {
		return nil, nil, err
	}
	hub := websocket.NewHub(s,
		websocket.WithAllowedOrigins(e.cfg.Server.AllowedOrigins...),
		websocket.WithLogger(e.logger),
	)
	closeAll := func() {
		hub.Shutdown(context.Background())
		s.Chart().Close()
	}
	return server.New(e.cfg.Server, hub, e.logger), closeAll, nil
}
