package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aretw0/genui/internal/cli"
	mcpadapter "github.com/aretw0/genui/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the component catalog, the JSON repair parser, the tree editor and
the renderer as MCP tools, plus generate_ui backed by the configured model.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		offline, _ := cmd.Flags().GetBool("offline")
		if cmd.Flags().Changed("port") {
			cfg.Server.MCPPort, _ = cmd.Flags().GetInt("port")
		}

		logger, err := cli.NewLogger(cfg)
		if err != nil {
			return err
		}
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		appOpts := []cli.AppOption{cli.WithLogger(logger)}
		if offline {
			appOpts = append(appOpts, cli.WithOffline())
		}
		app, err := cli.NewApp(sigCtx, cfg, appOpts...)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := []mcpadapter.Option{mcpadapter.WithGenerator(app.Client), mcpadapter.WithLogger(logger)}
		if app.Gallery != nil {
			opts = append(opts, mcpadapter.WithGallery(app.Gallery))
		}
		srv := mcpadapter.NewServer(opts...)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(cmd.ErrOrStderr())
			logger.Info("starting GenUI MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("starting GenUI MCP server (SSE)", "port", cfg.Server.MCPPort)
			if err := srv.ServeSSE(sigCtx, cfg.Server.MCPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		}
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	mcpCmd.Flags().Bool("offline", false, "Answer generate_ui from the gallery instead of calling a model")
}
