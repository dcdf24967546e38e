package mcpserver

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SwaggerSpec is the subset of a Swagger 2.0 document that tools are built from.
type SwaggerSpec struct {
	BasePath    string                          `json:"basePath"`
	Paths       map[string]map[string]Operation `json:"paths"`
	Definitions map[string]json.RawMessage      `json:"definitions"`
}

// Operation represents a single API operation.
type Operation struct {
	Tags        []string                   `json:"tags"`
	Summary     string                     `json:"summary"`
	Description string                     `json:"description"`
	OperationID string                     `json:"operationId"`
	Consumes    []string                   `json:"consumes"`
	Parameters  []Parameter                `json:"parameters"`
	Responses   map[string]json.RawMessage `json:"responses"`
}

// Parameter represents an API parameter.
type Parameter struct {
	Name        string          `json:"name"`
	In          string          `json:"in"`
	Required    bool            `json:"required"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Default     any             `json:"default"`
	Schema      json.RawMessage `json:"schema"`
	Enum        []any           `json:"enum"`
	Format      string          `json:"format"`
}

// ToolOperation holds the data needed to proxy a tool call.
type ToolOperation struct {
	Method     string
	Path       string // URL path template with {param} placeholders
	Parameters []Parameter
}

// ParseSpec parses a Swagger 2.0 JSON spec.
func ParseSpec(data []byte) (*SwaggerSpec, error) {
	var spec SwaggerSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse swagger spec: %w", err)
	}
	if len(spec.Paths) == 0 {
		return nil, fmt.Errorf("parse swagger spec: no paths")
	}
	return &spec, nil
}

// BuildTools generates MCP tools grouped by the config's group definitions.
// Operations whose first tag belongs to no group are skipped, and so are
// excluded tools and operations that take a body other than JSON. Tools within a group are
// sorted by name.
func BuildTools(spec *SwaggerSpec, cfg *Config, proxyFn func(op ToolOperation) server.ToolHandlerFunc) (map[string][]server.ServerTool, map[string]ToolOperation) {
	tagMap := cfg.tagToGroup()
	groups := make(map[string][]server.ServerTool)
	operations := make(map[string]ToolOperation)

	for path, methods := range spec.Paths {
		for method, op := range methods {
			method = strings.ToUpper(method)

			group := ""
			if len(op.Tags) > 0 {
				group = tagMap[op.Tags[0]]
			}
			if group == "" || !acceptsJSON(op) {
				continue
			}

			toolName := deriveName(method, path)

			override, hasOverride := cfg.Overrides[toolName]
			if hasOverride && override.Name != "" {
				toolName = override.Name
			}
			if cfg.excluded(toolName) {
				continue
			}

			desc := op.Description
			if desc == "" {
				desc = op.Summary
			}
			if hasOverride && override.Description != "" {
				desc = override.Description
			}

			toolOpts := []mcp.ToolOption{
				mcp.WithDescription(desc),
			}
			toolOpts = append(toolOpts, buildAnnotations(method, cfg, override, hasOverride)...)
			toolOpts = append(toolOpts, buildParams(op.Parameters)...)

			toolOp := ToolOperation{
				Method:     method,
				Path:       strings.TrimRight(spec.BasePath, "/") + path,
				Parameters: op.Parameters,
			}
			groups[group] = append(groups[group], server.ServerTool{
				Tool:    mcp.NewTool(toolName, toolOpts...),
				Handler: proxyFn(toolOp),
			})
			operations[toolName] = toolOp
		}
	}

	for _, tools := range groups {
		sort.Slice(tools, func(i, j int) bool { return tools[i].Tool.Name < tools[j].Tool.Name })
	}
	return groups, operations
}

// acceptsJSON reports whether op can be called with a JSON body or none.
func acceptsJSON(op Operation) bool {
	return len(op.Consumes) == 0 || slices.Contains(op.Consumes, "application/json")
}

// buildAnnotations creates MCP annotation options from config defaults and overrides.
func buildAnnotations(method string, cfg *Config, override ToolOverride, hasOverride bool) []mcp.ToolOption {
	var opts []mcp.ToolOption

	defaults := cfg.Defaults[method]

	readOnly := defaults.ReadOnly
	destructive := defaults.Destructive
	idempotent := defaults.Idempotent

	if hasOverride {
		if override.ReadOnly != nil {
			readOnly = override.ReadOnly
		}
		if override.Destructive != nil {
			destructive = override.Destructive
		}
		if override.Idempotent != nil {
			idempotent = override.Idempotent
		}
	}

	if readOnly != nil {
		opts = append(opts, mcp.WithReadOnlyHintAnnotation(*readOnly))
	}
	if destructive != nil {
		opts = append(opts, mcp.WithDestructiveHintAnnotation(*destructive))
	}
	if idempotent != nil {
		opts = append(opts, mcp.WithIdempotentHintAnnotation(*idempotent))
	}

	return opts
}

// buildParams converts API parameters to MCP tool parameter options.
func buildParams(params []Parameter) []mcp.ToolOption {
	var opts []mcp.ToolOption

	for _, p := range params {
		switch p.In {
		case "path":
			opts = append(opts, mcp.WithString(p.Name, paramOpts(p)...))

		case "query":
			popts := paramOpts(p)
			switch p.Type {
			case "integer", "number":
				opts = append(opts, mcp.WithNumber(p.Name, popts...))
			case "boolean":
				opts = append(opts, mcp.WithBoolean(p.Name, popts...))
			default:
				opts = append(opts, mcp.WithString(p.Name, popts...))
			}

		case "body":
			// Body is passed as a single JSON string parameter
			bodyDesc := p.Description
			if bodyDesc == "" {
				bodyDesc = "Request body (JSON object)"
			}
			popts := []mcp.PropertyOption{
				mcp.Description(bodyDesc),
			}
			if p.Required {
				popts = append(popts, mcp.Required())
			}
			opts = append(opts, mcp.WithString("body", popts...))
		}
	}

	return opts
}

// paramOpts builds PropertyOption slice from a Parameter.
func paramOpts(p Parameter) []mcp.PropertyOption {
	var opts []mcp.PropertyOption

	desc := p.Description
	if desc == "" {
		desc = p.Name
	}
	opts = append(opts, mcp.Description(desc))

	if p.Required {
		opts = append(opts, mcp.Required())
	}

	if len(p.Enum) > 0 {
		var vals []string
		for _, v := range p.Enum {
			vals = append(vals, fmt.Sprintf("%v", v))
		}
		opts = append(opts, mcp.Enum(vals...))
	}

	return opts
}

// deriveName generates a tool name from the HTTP method and path:
//
//	GET    /contacts                  list_contacts
//	GET    /contacts/{id}             get_contact
//	GET    /calendar/events/upcoming  list_upcoming_events
//	POST   /contacts                  create_contact
//	POST   /contacts/{id}/favorite    favorite_contact
//	PUT    /admin/users/{id}/role     set_user_role
//	PUT    /auth/me/password          set_password
//	DELETE /contacts/{id}             delete_contact
func deriveName(method, path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	var resources []string
	for _, p := range parts {
		if strings.HasPrefix(p, "{") || p == "api" {
			continue
		}
		resources = append(resources, strings.ReplaceAll(p, "-", "_"))
	}
	if len(resources) == 0 {
		return strings.ToLower(method)
	}

	lastRes := resources[len(resources)-1]
	endsWithParam := strings.HasPrefix(parts[len(parts)-1], "{")
	afterParam := len(parts) >= 2 && strings.HasPrefix(parts[len(parts)-2], "{")

	switch method {
	case "GET":
		switch {
		case endsWithParam:
			return "get_" + singularize(lastRes)
		case lastRes == "search":
			return "search"
		case lastRes == "upcoming" && len(resources) >= 2:
			return "list_upcoming_" + resources[len(resources)-2]
		case looksLikeCollection(lastRes):
			return "list_" + lastRes
		}
		return "get_" + lastRes

	case "POST":
		if afterParam && !looksLikeCollection(lastRes) {
			// POST /resources/{id}/action
			return lastRes + "_" + singularize(resources[len(resources)-2])
		}
		return "create_" + singularize(lastRes)

	case "PUT":
		if endsWithParam {
			return "update_" + singularize(lastRes)
		}
		if afterParam {
			return "set_" + singularize(resources[len(resources)-2]) + "_" + lastRes
		}
		return "set_" + lastRes

	case "DELETE":
		if endsWithParam {
			return "delete_" + singularize(lastRes)
		}
		return "delete_" + lastRes
	}

	return strings.ToLower(method) + "_" + lastRes
}

// looksLikeCollection returns true if the segment name looks plural.
func looksLikeCollection(s string) bool {
	if s == "stats" {
		return false
	}
	return strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss")
}

// singularize performs a simple English singularization.
func singularize(s string) string {
	if strings.HasSuffix(s, "ies") {
		return s[:len(s)-3] + "y"
	}
	if strings.HasSuffix(s, "sses") || strings.HasSuffix(s, "xes") {
		return s[:len(s)-2]
	}
	if strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss") {
		return s[:len(s)-1]
	}
	return s
}
