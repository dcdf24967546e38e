package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"

	"github.com/edvin/unihub/internal/api/docs"
	"github.com/edvin/unihub/internal/client"
	"github.com/edvin/unihub/internal/logging"
	"github.com/edvin/unihub/internal/mcpserver"
)

func main() {
	var (
		configPath = flag.String("config", "mcp.yaml", "Path to mcp.yaml configuration file")
		specFile   = flag.String("spec", "", "Path to openapi.json file (overrides fetching from API)")
		addr       = flag.String("addr", ":8090", "Listen address")
		logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		stdio      = flag.Bool("stdio", false, "Serve all tools over stdin/stdout instead of HTTP")
	)
	flag.Parse()

	// stdout carries the protocol in stdio mode.
	var out io.Writer = os.Stdout
	if *stdio {
		out = os.Stderr
	}
	logger := logging.New(out, "unihub-mcp", *logLevel)

	cfg, err := mcpserver.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if apiURL := os.Getenv("MCP_API_URL"); apiURL != "" {
		cfg.APIURL = apiURL
	}

	api := client.New(cfg.APIURL, client.WithToken(serviceToken(cfg.Auth.TokenEnv, logger)), client.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	specData := loadSpec(ctx, *specFile, api, cfg, logger)

	srv, err := mcpserver.New(cfg, specData, api, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create MCP server")
	}

	if *stdio {
		logger.Info().Int("tools", srv.ToolCount()).Msg("serving MCP over stdio")
		if err := server.ServeStdio(srv.Unified()); err != nil {
			logger.Fatal().Err(err).Msg("stdio server error")
		}
		return
	}

	if envAddr := os.Getenv("MCP_ADDR"); envAddr != "" {
		*addr = envAddr
	}

	httpSrv := &http.Server{
		Addr:         *addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", *addr).Int("tools", srv.ToolCount()).Msg("MCP server starting")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-done
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}

	fmt.Fprintln(os.Stderr, "MCP server stopped")
}

// serviceToken is used for tool calls that arrive without their own bearer
// token. The configured environment variable wins over the CLI's saved session.
func serviceToken(env string, logger zerolog.Logger) string {
	if tok := os.Getenv(env); tok != "" {
		return tok
	}
	store, err := client.DefaultFileTokenStore()
	if err != nil {
		logger.Debug().Err(err).Msg("no token store")
		return ""
	}
	tok, err := store.Load()
	if err != nil {
		logger.Warn().Err(err).Str("path", store.Path()).Msg("failed to read saved token")
		return ""
	}
	return tok
}

// loadSpec reads the spec from file, then the API, then the copy compiled in.
func loadSpec(ctx context.Context, specFile string, api *client.Client, cfg *mcpserver.Config, logger zerolog.Logger) []byte {
	if specFile != "" {
		data, err := os.ReadFile(specFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", specFile).Msg("failed to read spec file")
		}
		logger.Info().Str("path", specFile).Msg("loaded spec from file")
		return data
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	data, err := mcpserver.FetchSpec(fetchCtx, api, cfg.SpecPath)
	if err == nil {
		logger.Info().Str("url", cfg.APIURL+cfg.SpecPath).Msg("fetched spec from API")
		return data
	}
	logger.Warn().Err(err).Str("url", cfg.APIURL+cfg.SpecPath).Msg("failed to fetch spec, using built-in copy")

	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read built-in spec")
	}
	return []byte(doc)
}
