package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
	"github.com/vyrodovalexey/avadispatch/internal/util"
)

const sampleConfigYAML = `
server:
  address: ":9090"
  readTimeout: 2s
logging:
  level: debug
  format: console
metrics:
  path: /internal/metrics
endpoints:
  - name: home-index
    displayName: Home.Index
    routeValues:
      controller: Home
      action: Index
      area: null
    constraints:
      - kind: method
        methods: [GET, HEAD]
      - kind: expression
        expression: 'headers["x-tenant"] == "acme"'
        stage: 5
  - name: api-v2
    attributeRouted: true
`

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "dispatcher.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(sampleConfigYAML), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout.Duration())
	assert.Equal(t, DefaultWriteTimeout, cfg.Server.WriteTimeout.Duration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/internal/metrics", cfg.Metrics.Path)
	assert.Equal(t, DefaultServiceName, cfg.Tracing.ServiceName)

	require.Len(t, cfg.Endpoints, 2)
	home := cfg.Endpoints[0]
	assert.Equal(t, RouteValues{
		{Key: "controller", Value: routevalue.String("Home")},
		{Key: "action", Value: routevalue.String("Index")},
		{Key: "area", Value: routevalue.Null},
	}, home.RouteValues)
	require.Len(t, home.Constraints, 2)
	assert.Equal(t, []string{"GET", "HEAD"}, home.Constraints[0].Methods)
	assert.Nil(t, home.Constraints[0].Stage)
	require.NotNil(t, home.Constraints[1].Stage)
	assert.Equal(t, 5, *home.Constraints[1].Stage)
	assert.True(t, cfg.Endpoints[1].AttributeRouted)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig("/nonexistent/path/dispatcher.yaml")
	assert.Error(t, err)
}

func TestLoadConfigFromReader_Empty(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromReader_InvalidYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: "server: [unclosed"},
		{name: "unknown field", content: "server:\n  port: 80\n"},
		{name: "bad duration", content: "server:\n  readTimeout: soon\n"},
		{name: "route values not a mapping", content: "endpoints:\n  - name: x\n    routeValues: [a, b]\n"},
		{name: "nested route value", content: "endpoints:\n  - name: x\n    routeValues:\n      a: {b: c}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfigFromReader(strings.NewReader(tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, util.ErrConfigInvalid)
		})
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("DISPATCH_TEST_ADDR", ":7070")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "set variable", input: "address: ${DISPATCH_TEST_ADDR}", expected: "address: :7070"},
		{name: "default used", input: "level: ${DISPATCH_TEST_UNSET:-warn}", expected: "level: warn"},
		{name: "default ignored", input: "a: ${DISPATCH_TEST_ADDR:-:1}", expected: "a: :7070"},
		{name: "unset without default", input: "x: ${DISPATCH_TEST_UNSET}", expected: "x: "},
		{name: "escaped dollar", input: "expr: $${literal}", expected: "expr: ${literal}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, substituteEnvVars(tt.input))
		})
	}
}

func TestLoadConfigFromReader_EnvSubstitution(t *testing.T) {
	t.Setenv("DISPATCH_TEST_LEVEL", "error")

	cfg, err := LoadConfigFromReader(strings.NewReader("logging:\n  level: ${DISPATCH_TEST_LEVEL}\n"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestRouteValues_MarshalRoundTrip(t *testing.T) {
	t.Parallel()

	rv := RouteValues{
		{Key: "controller", Value: routevalue.String("Home")},
		{Key: "area", Value: routevalue.Null},
	}
	data, err := yaml.Marshal(rv)
	require.NoError(t, err)
	assert.Equal(t, "controller: Home\narea: null\n", string(data))

	var decoded RouteValues
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, rv, decoded)
}

func TestResolveConfigPath(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "dispatcher.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("{}"), 0644))

	resolved, err := ResolveConfigPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, configPath, resolved)

	_, err = ResolveConfigPath(filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)
}
