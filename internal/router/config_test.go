package router

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestConfigDefaults(t *testing.T) {
	c := ConfigFromEnv(mapEnv(nil))
	require.Empty(t, c.Path)
	require.Equal(t, "127.0.0.1:4000", c.Listen)
	require.Equal(t, "./router.yaml", c.ConfigPath)
	require.Equal(t, "./supergraph.graphql", c.SupergraphPath)
	require.False(t, c.ListenSet)
	require.False(t, c.ConfigPathSet)
	require.False(t, c.SupergraphPathSet)
	require.Equal(t, "http://127.0.0.1:4000/", c.URL())
}

func TestConfigFromEnv(t *testing.T) {
	c := ConfigFromEnv(mapEnv(map[string]string{
		EnvPath:           "/opt/router",
		EnvListen:         "127.0.0.1:5000",
		EnvConfigPath:     "/etc/router.yaml",
		EnvSupergraphPath: "/etc/supergraph.graphql",
	}))
	want := []string{
		"--anonymous-telemetry-disabled",
		"--listen=127.0.0.1:5000",
		"--config=/etc/router.yaml",
		"--supergraph=/etc/supergraph.graphql",
	}
	if diff := cmp.Diff(want, c.Args()); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "/opt/router", c.Path)
	require.True(t, c.ListenSet)
	require.True(t, c.ConfigPathSet)
	require.True(t, c.SupergraphPathSet)
}

func TestConfigDefaultArgs(t *testing.T) {
	want := []string{
		"--anonymous-telemetry-disabled",
		"--listen=127.0.0.1:4000",
		"--config=./router.yaml",
		"--supergraph=./supergraph.graphql",
	}
	if diff := cmp.Diff(want, ConfigFromEnv(mapEnv(nil)).Args()); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestDocuments(t *testing.T) {
	defaults := Documents{Config: []byte("default-config"), Supergraph: []byte("default-sdl")}

	docs, err := ConfigFromEnv(mapEnv(nil)).Documents(defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, docs)

	dir := t.TempDir()
	path := filepath.Join(dir, "supergraph.graphql")
	require.NoError(t, os.WriteFile(path, []byte("from-disk"), 0o644))
	docs, err = ConfigFromEnv(mapEnv(map[string]string{EnvSupergraphPath: path})).Documents(defaults)
	require.NoError(t, err)
	require.Equal(t, "default-config", string(docs.Config))
	require.Equal(t, "from-disk", string(docs.Supergraph))

	_, err = ConfigFromEnv(mapEnv(map[string]string{EnvConfigPath: filepath.Join(dir, "missing.yaml")})).Documents(defaults)
	require.ErrorIs(t, err, os.ErrNotExist)
}
