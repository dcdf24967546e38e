// Package mcpserver exposes the UniHub API as Model Context Protocol tools,
// built from the API's OpenAPI document and served over streamable HTTP or
// stdio.
package mcpserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/client"
)

const serverVersion = "1.0.0"

// Server is the MCP server that proxies tool calls to the REST API.
type Server struct {
	router chi.Router
	all    *server.MCPServer
	tools  int
	logger zerolog.Logger
	cfg    *Config
}

type groupInfo struct {
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint"`
	Tools       int    `json:"tools"`
	Description string `json:"description"`
}

// New creates and configures a new MCP server from the given config and
// swagger spec. Tool calls go through api.
func New(cfg *Config, specData []byte, api *client.Client, logger zerolog.Logger) (*Server, error) {
	spec, err := ParseSpec(specData)
	if err != nil {
		return nil, err
	}

	proxy := NewProxyHandler(api, cfg.Auth.ForwardsCaller(), logger)
	groups, _ := BuildTools(spec, cfg, proxy.Handler)

	var names []string
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Mount each group as a separate MCP server, and collect all tools for the unified endpoint.
	var allTools []server.ServerTool
	var allSrv *server.MCPServer
	router.Route("/mcp", func(r chi.Router) {
		var index []groupInfo
		for _, groupName := range names {
			tools := groups[groupName]
			groupDesc := cfg.Groups[groupName].Description
			if groupDesc == "" {
				groupDesc = "UniHub " + groupName + " tools"
			}

			mcpSrv := server.NewMCPServer(
				"unihub-"+groupName,
				serverVersion,
				server.WithInstructions(groupDesc),
			)
			mcpSrv.AddTools(tools...)

			r.Mount("/"+groupName, server.NewStreamableHTTPServer(mcpSrv, server.WithEndpointPath("/")))
			allTools = append(allTools, tools...)
			index = append(index, groupInfo{
				Name:        groupName,
				Endpoint:    "/mcp/" + groupName,
				Tools:       len(tools),
				Description: cfg.Groups[groupName].Description,
			})

			logger.Info().
				Str("group", groupName).
				Int("tools", len(tools)).
				Msg("mounted MCP tool group")
		}

		// Unified endpoint with every tool, also used for stdio.
		allSrv = server.NewMCPServer(
			"unihub",
			serverVersion,
			server.WithInstructions("UniHub personal workspace: dashboard, calendar, contacts, mail and account administration tools."),
		)
		allSrv.AddTools(allTools...)
		r.Mount("/"+unifiedGroup, server.NewStreamableHTTPServer(allSrv, server.WithEndpointPath("/")))
		logger.Info().Int("tools", len(allTools)).Msg("mounted unified MCP endpoint at /mcp/" + unifiedGroup)

		index = append(index, groupInfo{
			Name:        unifiedGroup,
			Endpoint:    "/mcp/" + unifiedGroup,
			Tools:       len(allTools),
			Description: "All tools from every group",
		})
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			response.WriteJSON(w, http.StatusOK, index)
		})
	})

	return &Server{
		router: router,
		all:    allSrv,
		tools:  len(allTools),
		logger: logger,
		cfg:    cfg,
	}, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Unified returns the MCP server holding every tool.
func (s *Server) Unified() *server.MCPServer {
	return s.all
}

// ToolCount is the number of tools across all groups.
func (s *Server) ToolCount() int {
	return s.tools
}

// FetchSpec downloads the swagger spec from the API.
func FetchSpec(ctx context.Context, api *client.Client, specPath string) ([]byte, error) {
	resp, err := api.Raw(ctx, http.MethodGet, specPath, "", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch spec: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch spec from %s%s: HTTP %d", api.BaseURL(), specPath, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
