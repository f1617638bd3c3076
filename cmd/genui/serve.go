package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/genui/internal/cli"
	httpadapter "github.com/aretw0/genui/pkg/adapters/http"
	mcpadapter "github.com/aretw0/genui/pkg/adapters/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves conversations over HTTP: a JSON API validated against the embedded
OpenAPI document, server-sent events for live snapshots and effects, and
Prometheus metrics. With --mcp the MCP server is also exposed over SSE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		offline, _ := cmd.Flags().GetBool("offline")
		withMCP, _ := cmd.Flags().GetBool("mcp")

		logger, err := cli.NewLogger(cfg)
		if err != nil {
			return err
		}
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		streams := httpadapter.NewStreamManager(logger)
		appOpts := []cli.AppOption{cli.WithLogger(logger), cli.WithEffectSink(streams)}
		if offline {
			appOpts = append(appOpts, cli.WithOffline())
		}
		app, err := cli.NewApp(sigCtx, cfg, appOpts...)
		if err != nil {
			return err
		}
		defer app.Close()

		handlerOpts := []httpadapter.Option{httpadapter.WithStreams(streams), httpadapter.WithLogger(logger)}
		if cfg.Server.Metrics {
			handlerOpts = append(handlerOpts, httpadapter.WithMetrics(app.Metrics.Handler()))
		}
		handler, err := httpadapter.NewHandler(app.Client, handlerOpts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 2)
		go func() {
			logger.Info("GenUI server listening", "address", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()
		if withMCP {
			mcpOpts := []mcpadapter.Option{mcpadapter.WithGenerator(app.Client), mcpadapter.WithLogger(logger)}
			if app.Gallery != nil {
				mcpOpts = append(mcpOpts, mcpadapter.WithGallery(app.Gallery))
			}
			go func() {
				serverErrors <- mcpadapter.NewServer(mcpOpts...).ServeSSE(sigCtx, cfg.Server.MCPPort)
			}()
		}

		select {
		case err := <-serverErrors:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-sigCtx.Done():
			logger.Info("start shutdown", "signal", sigCtx.Signal())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			logger.Info("GenUI server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Bool("mcp", false, "Also serve MCP over SSE on server.mcp_port")
	serveCmd.Flags().Bool("offline", false, "Answer from the gallery instead of calling a model")
}
