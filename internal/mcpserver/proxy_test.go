package mcpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/unihub/internal/client"
)

type seenRequest struct {
	Method string
	URI    string
	Auth   string
	Type   string
	Body   string
}

type recorder struct {
	mu   sync.Mutex
	last seenRequest
}

func (r *recorder) get() seenRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func recordingAPI(t *testing.T, status int, reply string) (*client.Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.last = seenRequest{
			Method: r.Method,
			URI:    r.URL.RequestURI(),
			Auth:   r.Header.Get("Authorization"),
			Type:   r.Header.Get("Content-Type"),
			Body:   string(body),
		}
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL, client.WithToken("service-token")), rec
}

func callTool(t *testing.T, p *ProxyHandler, op ToolOperation, args map[string]any, header http.Header) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{Header: header}
	req.Params.Name = "test_tool"
	req.Params.Arguments = args
	res, err := p.Handler(op)(t.Context(), req)
	require.NoError(t, err)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

var setRoleOp = ToolOperation{
	Method: "PUT",
	Path:   "/admin/users/{id}/role",
	Parameters: []Parameter{
		{Name: "id", In: "path", Required: true, Type: "string"},
		{Name: "body", In: "body", Required: true},
	},
}

var listEmailsOp = ToolOperation{
	Method: "GET",
	Path:   "/mail/emails",
	Parameters: []Parameter{
		{Name: "folder", In: "query", Type: "string"},
		{Name: "unread", In: "query", Type: "boolean"},
		{Name: "limit", In: "query", Type: "integer"},
	},
}

func TestProxy_PathAndBody(t *testing.T) {
	api, seen := recordingAPI(t, http.StatusOK, `{"user":{"id":"u2","role":"admin"}}`)
	p := NewProxyHandler(api, true, zerolog.Nop())

	res := callTool(t, p, setRoleOp, map[string]any{"id": "u2", "body": `{"role":"admin"}`}, nil)
	assert.False(t, res.IsError)
	assert.Equal(t, "PUT", seen.get().Method)
	assert.Equal(t, "/admin/users/u2/role", seen.get().URI)
	assert.Equal(t, "application/json", seen.get().Type)
	assert.JSONEq(t, `{"role":"admin"}`, seen.get().Body)
	assert.JSONEq(t, `{"user":{"id":"u2","role":"admin"}}`, resultText(t, res))
}

func TestProxy_QueryParams(t *testing.T) {
	api, seen := recordingAPI(t, http.StatusOK, `{"emails":[],"has_more":false}`)
	p := NewProxyHandler(api, true, zerolog.Nop())

	res := callTool(t, p, listEmailsOp, map[string]any{"folder": "inbox", "unread": true, "limit": float64(25)}, nil)
	assert.False(t, res.IsError)
	assert.Equal(t, "/mail/emails?folder=inbox&limit=25&unread=true", seen.get().URI)
	assert.Empty(t, seen.get().Type)
}

func TestProxy_MissingPathParam(t *testing.T) {
	api, seen := recordingAPI(t, http.StatusOK, `{}`)
	p := NewProxyHandler(api, true, zerolog.Nop())

	res := callTool(t, p, setRoleOp, map[string]any{"body": `{}`}, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "missing required path parameter: id")
	assert.Empty(t, seen.get().Method, "no request is made")
}

func TestProxy_EscapesPathParam(t *testing.T) {
	api, seen := recordingAPI(t, http.StatusOK, `{}`)
	p := NewProxyHandler(api, true, zerolog.Nop())

	callTool(t, p, setRoleOp, map[string]any{"id": "../stats", "body": `{}`}, nil)
	assert.Equal(t, "/admin/users/..%2Fstats/role", seen.get().URI)
}

func TestProxy_UsesServiceTokenByDefault(t *testing.T) {
	api, seen := recordingAPI(t, http.StatusOK, `{}`)
	p := NewProxyHandler(api, true, zerolog.Nop())

	callTool(t, p, listEmailsOp, nil, nil)
	assert.Equal(t, "Bearer service-token", seen.get().Auth)
}

func TestProxy_ForwardsCallerToken(t *testing.T) {
	api, seen := recordingAPI(t, http.StatusOK, `{}`)
	p := NewProxyHandler(api, true, zerolog.Nop())

	header := http.Header{}
	header.Set("Authorization", "Bearer caller-token")
	callTool(t, p, listEmailsOp, nil, header)
	assert.Equal(t, "Bearer caller-token", seen.get().Auth)
	assert.Equal(t, "service-token", api.Token(), "the shared client keeps its own token")
}

func TestProxy_CallerTokenIgnoredWhenForwardingOff(t *testing.T) {
	api, seen := recordingAPI(t, http.StatusOK, `{}`)
	p := NewProxyHandler(api, false, zerolog.Nop())

	header := http.Header{}
	header.Set("Authorization", "Bearer caller-token")
	callTool(t, p, listEmailsOp, nil, header)
	assert.Equal(t, "Bearer service-token", seen.get().Auth)
}

func TestProxy_ObjectBodyIsEncoded(t *testing.T) {
	api, seen := recordingAPI(t, http.StatusOK, `{}`)
	p := NewProxyHandler(api, true, zerolog.Nop())

	body := map[string]any{"role": "admin"}
	res := callTool(t, p, setRoleOp, map[string]any{"id": "u2", "body": body}, nil)
	assert.False(t, res.IsError)
	assert.Equal(t, "application/json", seen.get().Type)
	assert.JSONEq(t, `{"role":"admin"}`, seen.get().Body)
}

func TestProxy_ErrorStatus(t *testing.T) {
	api, _ := recordingAPI(t, http.StatusForbidden, `{"error":"admin access required"}`)
	p := NewProxyHandler(api, true, zerolog.Nop())

	res := callTool(t, p, setRoleOp, map[string]any{"id": "u2", "body": `{"role":"admin"}`}, nil)
	assert.True(t, res.IsError)
	assert.Equal(t, `HTTP 403: {"error":"admin access required"}`, resultText(t, res))
}

func TestProxy_NoContent(t *testing.T) {
	api, _ := recordingAPI(t, http.StatusNoContent, ``)
	p := NewProxyHandler(api, true, zerolog.Nop())

	res := callTool(t, p, setRoleOp, map[string]any{"id": "u2"}, nil)
	assert.False(t, res.IsError)
	var out map[string]bool
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.True(t, out["success"])
}

func TestFormatArg(t *testing.T) {
	assert.Equal(t, "25", formatArg(float64(25)))
	assert.Equal(t, "2.5", formatArg(2.5))
	assert.Equal(t, "true", formatArg(true))
	assert.Equal(t, "x", formatArg("x"))
}
