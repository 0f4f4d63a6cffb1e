package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
	"github.com/vyrodovalexey/avadispatch/internal/util"
)

func boolPtr(b bool) *bool { return &b }

func validConfig() *DispatcherConfig {
	cfg := DefaultConfig()
	cfg.Endpoints = []EndpointConfig{
		{
			Name: "home-index",
			RouteValues: RouteValues{
				{Key: "controller", Value: routevalue.String("Home")},
				{Key: "area", Value: routevalue.Null},
			},
			Constraints: []ConstraintConfig{
				{Kind: ConstraintKindMethod, Methods: []string{"GET"}},
				{Kind: ConstraintKindConsumes, MediaTypes: []string{"application/json"}},
				{Kind: ConstraintKindHeader, Name: "X-Tenant", Exact: "acme"},
				{Kind: ConstraintKindQuery, Name: "debug", Present: boolPtr(true)},
				{Kind: ConstraintKindExpression, Expression: `method == "GET"`},
			},
		},
		{DisplayName: "Unnamed endpoint"},
	}
	return cfg
}

func TestValidateConfig_Valid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateConfig(validConfig()))
	assert.NoError(t, ValidateConfig(DefaultConfig()))
}

func TestValidateConfig_Nil(t *testing.T) {
	t.Parallel()

	err := ValidateConfig(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrConfigInvalid)
}

func TestValidateConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(cfg *DispatcherConfig)
		field  string
	}{
		{
			name:   "missing address",
			mutate: func(cfg *DispatcherConfig) { cfg.Server.Address = "" },
			field:  "server.address",
		},
		{
			name:   "negative timeout",
			mutate: func(cfg *DispatcherConfig) { cfg.Server.ReadTimeout = -1 },
			field:  "server.readTimeout",
		},
		{
			name:   "unknown log level",
			mutate: func(cfg *DispatcherConfig) { cfg.Logging.Level = "verbose" },
			field:  "logging.level",
		},
		{
			name:   "unknown log format",
			mutate: func(cfg *DispatcherConfig) { cfg.Logging.Format = "xml" },
			field:  "logging.format",
		},
		{
			name:   "sampling rate out of range",
			mutate: func(cfg *DispatcherConfig) { cfg.Tracing.SamplingRate = 2 },
			field:  "tracing.samplingRate",
		},
		{
			name:   "tracing without endpoint",
			mutate: func(cfg *DispatcherConfig) { cfg.Tracing.Enabled = true },
			field:  "tracing.otlpEndpoint",
		},
		{
			name:   "metrics path",
			mutate: func(cfg *DispatcherConfig) { cfg.Metrics.Path = "metrics" },
			field:  "metrics.path",
		},
		{
			name: "duplicate endpoint name",
			mutate: func(cfg *DispatcherConfig) {
				cfg.Endpoints[1].Name = "home-index"
			},
			field: "endpoints[1].name",
		},
		{
			name:   "missing name and display name",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[1].DisplayName = "" },
			field:  "endpoints[1].name",
		},
		{
			name: "duplicate folded route value key",
			mutate: func(cfg *DispatcherConfig) {
				cfg.Endpoints[0].RouteValues = append(cfg.Endpoints[0].RouteValues,
					routevalue.Entry{Key: "Controller", Value: routevalue.String("Other")})
			},
			field: "endpoints[0].routeValues.Controller",
		},
		{
			name: "empty route value key",
			mutate: func(cfg *DispatcherConfig) {
				cfg.Endpoints[0].RouteValues = append(cfg.Endpoints[0].RouteValues,
					routevalue.Entry{Key: " ", Value: routevalue.String("x")})
			},
			field: "endpoints[0].routeValues",
		},
		{
			name:   "invalid method",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[0].Constraints[0].Methods = []string{"FETCH"} },
			field:  "endpoints[0].constraints[0].methods[0]",
		},
		{
			name:   "no methods",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[0].Constraints[0].Methods = nil },
			field:  "endpoints[0].constraints[0].methods",
		},
		{
			name:   "invalid media type",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[0].Constraints[1].MediaTypes = []string{"json"} },
			field:  "endpoints[0].constraints[1].mediaTypes[0]",
		},
		{
			name:   "invalid header name",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[0].Constraints[2].Name = "X Tenant" },
			field:  "endpoints[0].constraints[2].name",
		},
		{
			name:   "conflicting header rules",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[0].Constraints[2].Prefix = "ac" },
			field:  "endpoints[0].constraints[2]",
		},
		{
			name:   "invalid regex",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[0].Constraints[3].Regex = "[" },
			field:  "endpoints[0].constraints[3].regex",
		},
		{
			name: "query without rule",
			mutate: func(cfg *DispatcherConfig) {
				cfg.Endpoints[0].Constraints[3].Present = nil
			},
			field: "endpoints[0].constraints[3]",
		},
		{
			name:   "empty expression",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[0].Constraints[4].Expression = " " },
			field:  "endpoints[0].constraints[4].expression",
		},
		{
			name:   "expression does not compile",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[0].Constraints[4].Expression = "method ==" },
			field:  "endpoints[0].constraints[4].expression",
		},
		{
			name:   "missing kind",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[0].Constraints[4].Kind = "" },
			field:  "endpoints[0].constraints[4].kind",
		},
		{
			name:   "unknown kind",
			mutate: func(cfg *DispatcherConfig) { cfg.Endpoints[0].Constraints[4].Kind = "tenant" },
			field:  "endpoints[0].constraints[4].kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, util.ErrConfigInvalid)

			var validationErr *util.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Contains(t, validationErr.Fields, tt.field)
		})
	}
}
