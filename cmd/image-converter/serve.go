package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"image-converter-go/internal/web"

	"github.com/spf13/cobra"
)

var port int

// serveCmd starts the web interface server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API with live progress over WebSocket",
	Long: `Starts an HTTP server exposing the converter to a browser front end:
- add and clear candidate files
- edit conversion rules, quality and output directory
- start a conversion and follow it on /ws
- browse the run history

The port defaults to server.port from the config file (8080).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 0, "port to run web server on (overrides server.port)")
}

// runServe starts the web server and handles graceful shutdown.
func runServe(cmd *cobra.Command) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	listenPort := a.cfg.Server.Port
	if cmd.Flags().Changed("port") {
		listenPort = port
	}

	var hist web.HistoryReader
	if a.history != nil {
		hist = a.history
	}
	server := web.NewServer(a.session, hist, a.log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(listenPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	printf("Web API listening on http://localhost:%d/api\n", listenPort)
	printf("Press Ctrl+C to stop the server\n")

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed to start: %w", err)
	case <-sigChan:
	}
	printf("\nShutting down server...\n")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	printf("Server stopped\n")
	return nil
}
