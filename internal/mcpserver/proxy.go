package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/edvin/unihub/internal/client"
)

// ProxyHandler creates MCP tool handlers that call the REST API through the
// client SDK.
type ProxyHandler struct {
	api           *client.Client
	forwardCaller bool
	logger        zerolog.Logger
}

// NewProxyHandler creates a proxy handler. With forwardCaller set, calls that
// carry their own bearer token are made with it; the rest use api's token.
func NewProxyHandler(api *client.Client, forwardCaller bool, logger zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{
		api:           api,
		forwardCaller: forwardCaller,
		logger:        logger,
	}
}

// Handler returns an MCP tool handler function for the given operation.
func (p *ProxyHandler) Handler(op ToolOperation) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		path, err := buildPath(op, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var (
			body        io.Reader
			contentType string
		)
		if raw, ok := args["body"]; ok && raw != nil {
			data, err := requestBody(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if len(data) > 0 {
				body = bytes.NewReader(data)
				contentType = "application/json"
			}
		}

		api := p.api
		if tok := bearerToken(req.Header); tok != "" && p.forwardCaller {
			api = p.api.As(tok)
		}

		p.logger.Debug().
			Str("method", op.Method).
			Str("path", path).
			Str("tool", req.Params.Name).
			Msg("proxying MCP tool call")

		resp, err := api.Raw(ctx, op.Method, path, contentType, body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %s", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("read response: %s", err)), nil
		}

		if resp.StatusCode >= 400 {
			return mcp.NewToolResultError(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))), nil
		}
		if resp.StatusCode == http.StatusNoContent {
			return mcp.NewToolResultText(`{"success":true}`), nil
		}
		return mcp.NewToolResultText(string(respBody)), nil
	}
}

// requestBody renders the body argument. Clients send either the JSON text
// the tool schema asks for or an already decoded object.
func requestBody(raw any) ([]byte, error) {
	if s, ok := raw.(string); ok {
		return []byte(s), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return data, nil
}

// buildPath substitutes path parameters and appends query parameters.
func buildPath(op ToolOperation, args map[string]any) (string, error) {
	path := op.Path
	query := url.Values{}

	for _, param := range op.Parameters {
		val, ok := args[param.Name]
		switch param.In {
		case "path":
			if !ok || val == nil || fmt.Sprintf("%v", val) == "" {
				return "", fmt.Errorf("missing required path parameter: %s", param.Name)
			}
			path = strings.ReplaceAll(path, "{"+param.Name+"}", url.PathEscape(fmt.Sprintf("%v", val)))
		case "query":
			if ok && val != nil {
				if s := formatArg(val); s != "" {
					query.Set(param.Name, s)
				}
			}
		}
	}

	if enc := query.Encode(); enc != "" {
		path += "?" + enc
	}
	return path, nil
}

// formatArg renders a JSON-decoded argument. Numbers arrive as float64;
// whole ones print without a fraction.
func formatArg(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}

func bearerToken(h http.Header) string {
	if h == nil {
		return ""
	}
	if tok, ok := strings.CutPrefix(h.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}
