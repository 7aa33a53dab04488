package router

import (
	"fmt"
	"os"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvPath           = "PATH_ROUTER"
	EnvListen         = "APOLLO_ROUTER_LISTEN_ADDRESS"
	EnvConfigPath     = "APOLLO_ROUTER_CONFIG_PATH"
	EnvSupergraphPath = "APOLLO_ROUTER_SUPERGRAPH_PATH"
)

// Defaults applied when the matching variable is unset or empty.
const (
	DefaultListen         = "127.0.0.1:4000"
	DefaultConfigPath     = "./router.yaml"
	DefaultSupergraphPath = "./supergraph.graphql"
)

// Config locates the router and the documents it is started with.
type Config struct {
	// Path is the router binary. Empty selects the in-process router.
	Path           string
	Listen         string
	ConfigPath     string
	SupergraphPath string

	// ListenSet, ConfigPathSet and SupergraphPathSet report whether the
	// values came from the environment rather than the defaults.
	ListenSet         bool
	ConfigPathSet     bool
	SupergraphPathSet bool

	getenv func(string) string
}

// ConfigFromEnv resolves a Config. Environment values take precedence over
// the defaults. A nil getenv reads the process environment.
func ConfigFromEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	c := Config{
		Path:           getenv(EnvPath),
		Listen:         getenv(EnvListen),
		ConfigPath:     getenv(EnvConfigPath),
		SupergraphPath: getenv(EnvSupergraphPath),
		getenv:         getenv,
	}
	c.ListenSet = c.Listen != ""
	if !c.ListenSet {
		c.Listen = DefaultListen
	}
	c.ConfigPathSet = c.ConfigPath != ""
	if !c.ConfigPathSet {
		c.ConfigPath = DefaultConfigPath
	}
	c.SupergraphPathSet = c.SupergraphPath != ""
	if !c.SupergraphPathSet {
		c.SupergraphPath = DefaultSupergraphPath
	}
	return c
}

// Args is the argument list the router binary is started with.
func (c Config) Args() []string {
	return []string{
		"--anonymous-telemetry-disabled",
		"--listen=" + c.Listen,
		"--config=" + c.ConfigPath,
		"--supergraph=" + c.SupergraphPath,
	}
}

// URL is the GraphQL endpoint the router serves.
func (c Config) URL() string { return fmt.Sprintf("http://%s/", c.Listen) }

func (c Config) env(key string) string {
	if c.getenv == nil {
		return os.Getenv(key)
	}
	return c.getenv(key)
}

// Documents holds a router configuration document and a supergraph SDL.
type Documents struct {
	Config     []byte
	Supergraph []byte
}

// Documents returns defaults, replacing each document whose path was set in
// the environment with the file at that path.
func (c Config) Documents(defaults Documents) (Documents, error) {
	docs := defaults
	if c.ConfigPathSet {
		b, err := os.ReadFile(c.ConfigPath)
		if err != nil {
			return Documents{}, fmt.Errorf("read router config: %w", err)
		}
		docs.Config = b
	}
	if c.SupergraphPathSet {
		b, err := os.ReadFile(c.SupergraphPath)
		if err != nil {
			return Documents{}, fmt.Errorf("read supergraph: %w", err)
		}
		docs.Supergraph = b
	}
	return docs, nil
}
