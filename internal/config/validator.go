package config

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/avadispatch/internal/constraint"
	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
	"github.com/vyrodovalexey/avadispatch/internal/util"
)

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

// Validator validates dispatcher configuration.
type Validator struct {
	errors *util.ValidationError
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig validates a dispatcher configuration. The returned error is
// a *util.ValidationError listing every invalid field.
func ValidateConfig(config *DispatcherConfig) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *DispatcherConfig) error {
	v.errors = util.NewValidationError("invalid dispatcher configuration")

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&config.Server)
	v.validateLogging(&config.Logging)
	v.validateTracing(&config.Tracing)
	v.validateMetrics(&config.Metrics)
	v.validateEndpoints(config.Endpoints)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(server *ServerConfig) {
	if server.Address == "" {
		v.addError("server.address", "address is required")
	}
	if server.ReadTimeout < 0 {
		v.addError("server.readTimeout", "must not be negative")
	}
	if server.WriteTimeout < 0 {
		v.addError("server.writeTimeout", "must not be negative")
	}
	if server.ShutdownTimeout < 0 {
		v.addError("server.shutdownTimeout", "must not be negative")
	}
}

func (v *Validator) validateLogging(logging *LoggingConfig) {
	if !validLogLevels[strings.ToLower(logging.Level)] {
		v.addError("logging.level", fmt.Sprintf("unknown level %q", logging.Level))
	}
	if !validLogFormats[strings.ToLower(logging.Format)] {
		v.addError("logging.format", "format must be json or console")
	}
}

func (v *Validator) validateTracing(tracing *TracingConfig) {
	if err := util.ValidateSamplingRate(tracing.SamplingRate); err != nil {
		v.addError("tracing.samplingRate", err.Error())
	}
	if tracing.Enabled && tracing.OTLPEndpoint == "" {
		v.addError("tracing.otlpEndpoint", "otlpEndpoint is required when tracing is enabled")
	}
}

func (v *Validator) validateMetrics(metrics *MetricsConfig) {
	if metrics.Enabled && !strings.HasPrefix(metrics.Path, "/") {
		v.addError("metrics.path", "path must start with /")
	}
}

func (v *Validator) validateEndpoints(endpoints []EndpointConfig) {
	names := make(map[string]bool)

	for i := range endpoints {
		ep := &endpoints[i]
		path := fmt.Sprintf("endpoints[%d]", i)

		if ep.Name == "" && ep.DisplayName == "" {
			v.addError(path+".name", "name or displayName is required")
		}
		if ep.Name != "" {
			if names[ep.Name] {
				v.addError(path+".name", fmt.Sprintf("duplicate endpoint name: %s", ep.Name))
			}
			names[ep.Name] = true
		}

		v.validateRouteValues(ep.RouteValues, path+".routeValues")

		for j := range ep.Constraints {
			v.validateConstraint(&ep.Constraints[j], fmt.Sprintf("%s.constraints[%d]", path, j))
		}
	}
}

func (v *Validator) validateRouteValues(values RouteValues, path string) {
	seen := make(map[string]bool, len(values))
	for _, e := range values {
		if strings.TrimSpace(e.Key) == "" {
			v.addError(path, "route value key cannot be empty")
			continue
		}
		folded := routevalue.Fold(e.Key)
		if seen[folded] {
			v.addError(path+"."+e.Key, "duplicate route value key")
		}
		seen[folded] = true
	}
}

func (v *Validator) validateConstraint(c *ConstraintConfig, path string) {
	switch c.Kind {
	case ConstraintKindMethod:
		if len(c.Methods) == 0 {
			v.addError(path+".methods", "at least one method is required")
		}
		for i, method := range c.Methods {
			if err := util.ValidateHTTPMethod(method); err != nil {
				v.addError(fmt.Sprintf("%s.methods[%d]", path, i), err.Error())
			}
		}
	case ConstraintKindConsumes:
		if len(c.MediaTypes) == 0 {
			v.addError(path+".mediaTypes", "at least one media type is required")
		}
		for i, mt := range c.MediaTypes {
			if err := util.ValidateMediaType(mt); err != nil {
				v.addError(fmt.Sprintf("%s.mediaTypes[%d]", path, i), err.Error())
			}
		}
	case ConstraintKindHeader:
		if err := util.ValidateHeaderName(c.Name); err != nil {
			v.addError(path+".name", err.Error())
		}
		v.validateStringMatch(c, path)
	case ConstraintKindQuery:
		if c.Name == "" {
			v.addError(path+".name", "query parameter name is required")
		}
		v.validateStringMatch(c, path)
	case ConstraintKindExpression:
		if strings.TrimSpace(c.Expression) == "" {
			v.addError(path+".expression", "expression is required")
		} else if err := constraint.CompileExpression(c.Expression); err != nil {
			v.addError(path+".expression", err.Error())
		}
	case "":
		v.addError(path+".kind", "kind is required")
	default:
		v.addError(path+".kind", fmt.Sprintf("unknown constraint kind %q", c.Kind))
	}
}

func (v *Validator) validateStringMatch(c *ConstraintConfig, path string) {
	count := 0
	for _, set := range []bool{c.Exact != "", c.Prefix != "", c.Regex != ""} {
		if set {
			count++
		}
	}
	if count > 1 {
		v.addError(path, "only one of exact, prefix, or regex can be specified")
	}
	if count == 0 && c.Present == nil && c.Absent == nil {
		v.addError(path, "one of exact, prefix, regex, present, or absent is required")
	}
	if err := util.ValidateRegex(c.Regex); err != nil {
		v.addError(path+".regex", err.Error())
	}
}

func (v *Validator) addError(path, message string) {
	v.errors.AddField(path, message)
}
