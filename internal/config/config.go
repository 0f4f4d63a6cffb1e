package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
)

// Default configuration values.
const (
	DefaultAddress         = ":8080"
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultServiceName     = "avadispatch"
	DefaultMetricsPath     = "/metrics"
)

// Constraint kinds accepted in the endpoint catalog.
const (
	ConstraintKindMethod     = "method"
	ConstraintKindConsumes   = "consumes"
	ConstraintKindHeader     = "header"
	ConstraintKindQuery      = "query"
	ConstraintKindExpression = "expression"
)

// DispatcherConfig is the root configuration.
type DispatcherConfig struct {
	Server    ServerConfig     `yaml:"server" json:"server"`
	Logging   LoggingConfig    `yaml:"logging" json:"logging"`
	Tracing   TracingConfig    `yaml:"tracing" json:"tracing"`
	Metrics   MetricsConfig    `yaml:"metrics" json:"metrics"`
	Endpoints []EndpointConfig `yaml:"endpoints" json:"endpoints"`
}

// ServerConfig configures the HTTP front-end.
type ServerConfig struct {
	Address         string   `yaml:"address" json:"address"`
	ReadTimeout     Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout" json:"writeTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	ServiceName  string  `yaml:"serviceName" json:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint" json:"otlpEndpoint"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// EndpointConfig declares one endpoint of the catalog.
type EndpointConfig struct {
	Name            string             `yaml:"name" json:"name"`
	DisplayName     string             `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	AttributeRouted bool               `yaml:"attributeRouted,omitempty" json:"attributeRouted,omitempty"`
	RouteValues     RouteValues        `yaml:"routeValues,omitempty" json:"routeValues,omitempty"`
	Constraints     []ConstraintConfig `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// ConstraintConfig declares one endpoint constraint. Which fields apply
// depends on Kind.
type ConstraintConfig struct {
	Kind  string `yaml:"kind" json:"kind"`
	Stage *int   `yaml:"stage,omitempty" json:"stage,omitempty"`

	// method
	Methods   []string `yaml:"methods,omitempty" json:"methods,omitempty"`
	Preflight bool     `yaml:"preflight,omitempty" json:"preflight,omitempty"`

	// consumes
	MediaTypes []string `yaml:"mediaTypes,omitempty" json:"mediaTypes,omitempty"`

	// header, query
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Exact   string `yaml:"exact,omitempty" json:"exact,omitempty"`
	Prefix  string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Regex   string `yaml:"regex,omitempty" json:"regex,omitempty"`
	Present *bool  `yaml:"present,omitempty" json:"present,omitempty"`
	Absent  *bool  `yaml:"absent,omitempty" json:"absent,omitempty"`

	// expression
	Expression string `yaml:"expression,omitempty" json:"expression,omitempty"`
}

// RouteValues is an ordered route-value mapping. A YAML null value is kept
// as routevalue.Null.
type RouteValues []routevalue.Entry

// UnmarshalYAML implements yaml.Unmarshaler preserving key order.
func (rv *RouteValues) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: routeValues must be a mapping", node.Line)
	}

	out := make(RouteValues, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: route value %q must be a scalar", value.Line, key.Value)
		}
		entry := routevalue.Entry{Key: key.Value}
		if value.ShortTag() != "!!null" {
			entry.Value = routevalue.String(value.Value)
		}
		out = append(out, entry)
	}

	*rv = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (rv RouteValues) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range rv {
		value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value.Str()}
		if e.Value.IsNull() {
			value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			value,
		)
	}
	return node, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *DispatcherConfig {
	return &DispatcherConfig{
		Server: ServerConfig{
			Address:         DefaultAddress,
			ReadTimeout:     Duration(DefaultReadTimeout),
			WriteTimeout:    Duration(DefaultWriteTimeout),
			ShutdownTimeout: Duration(DefaultShutdownTimeout),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Tracing: TracingConfig{
			ServiceName:  DefaultServiceName,
			SamplingRate: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}

// Duration is a time.Duration written as a string such as "300ms" or
// "1h30m" in YAML. An empty or null value is zero.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.ShortTag() == "!!null" || node.Value == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
