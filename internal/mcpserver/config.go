package mcpserver

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIURL   = "http://127.0.0.1:4000"
	defaultSpecPath = "/docs/openapi.json"
	defaultTokenEnv = "UNIHUB_TOKEN"

	// unifiedGroup is the endpoint serving every tool at once.
	unifiedGroup = "all"
)

var knownMethods = []string{"GET", "POST", "PUT", "DELETE"}

// Config is the MCP server configuration loaded from mcp.yaml.
type Config struct {
	APIURL    string                    `yaml:"api_url"`
	SpecPath  string                    `yaml:"spec_path"`
	Auth      AuthConfig                `yaml:"auth"`
	Defaults  map[string]MethodDefaults `yaml:"defaults"`
	Groups    map[string]GroupConfig    `yaml:"groups"`
	Overrides map[string]ToolOverride   `yaml:"overrides"`
	// Exclude lists tool names, after overrides, that are never exposed.
	Exclude []string `yaml:"exclude"`
}

// AuthConfig decides which bearer token a proxied tool call carries.
type AuthConfig struct {
	// ForwardCaller passes the MCP caller's Authorization header through to
	// the API. Defaults to true. When false every call uses the service token.
	ForwardCaller *bool `yaml:"forward_caller"`
	// TokenEnv names the environment variable holding the service token.
	TokenEnv string `yaml:"token_env"`
}

// ForwardsCaller reports whether caller tokens reach the API.
func (a AuthConfig) ForwardsCaller() bool {
	return a.ForwardCaller == nil || *a.ForwardCaller
}

// MethodDefaults are the annotations every tool of one HTTP method starts with.
type MethodDefaults struct {
	ReadOnly    *bool `yaml:"readonly"`
	Destructive *bool `yaml:"destructive"`
	Idempotent  *bool `yaml:"idempotent"`
}

// GroupConfig maps OpenAPI tags to one MCP endpoint.
type GroupConfig struct {
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

// ToolOverride renames a derived tool or adjusts its annotations.
type ToolOverride struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ReadOnly    *bool  `yaml:"readonly"`
	Destructive *bool  `yaml:"destructive"`
	Idempotent  *bool  `yaml:"idempotent"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes mcp.yaml, fills defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse mcp config: %w", err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.SpecPath == "" {
		cfg.SpecPath = defaultSpecPath
	}
	if cfg.Auth.TokenEnv == "" {
		cfg.Auth.TokenEnv = defaultTokenEnv
	}

	// Method keys are matched against upper-case HTTP methods.
	defaults := make(map[string]MethodDefaults, len(cfg.Defaults))
	for method, d := range cfg.Defaults {
		defaults[strings.ToUpper(method)] = d
	}
	cfg.Defaults = defaults

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("parse mcp config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Groups) == 0 {
		return fmt.Errorf("no tool groups defined")
	}
	if _, ok := c.Groups[unifiedGroup]; ok {
		return fmt.Errorf("group name %q is reserved", unifiedGroup)
	}
	for method := range c.Defaults {
		if !slices.Contains(knownMethods, method) {
			return fmt.Errorf("defaults: unknown method %q", method)
		}
	}

	owner := make(map[string]string)
	for group, gc := range c.Groups {
		if len(gc.Tags) == 0 {
			return fmt.Errorf("group %s: no tags", group)
		}
		for _, tag := range gc.Tags {
			if other, ok := owner[tag]; ok && other != group {
				return fmt.Errorf("tag %q is in both %s and %s", tag, other, group)
			}
			owner[tag] = group
		}
	}

	renamed := make(map[string]string)
	for from, o := range c.Overrides {
		if o.Name == "" {
			continue
		}
		if other, ok := renamed[o.Name]; ok {
			return fmt.Errorf("overrides %s and %s both rename to %s", other, from, o.Name)
		}
		renamed[o.Name] = from
	}
	return nil
}

// tagToGroup builds a reverse mapping from OpenAPI tag to group name.
func (c *Config) tagToGroup() map[string]string {
	m := make(map[string]string)
	for group, gc := range c.Groups {
		for _, tag := range gc.Tags {
			m[tag] = group
		}
	}
	return m
}

func (c *Config) excluded(tool string) bool {
	return slices.Contains(c.Exclude, tool)
}
