package constraint

import (
	"mime"
	"strings"
)

// ConsumesStage is the default stage of Consumes constraints.
const ConsumesStage = 200

// Consumes accepts requests whose Content-Type matches a declared media type.
// Declared types may use a "type/*" wildcard. Requests without a
// Content-Type are rejected.
type Consumes struct {
	types []string
	stage int
}

// NewConsumes creates a Consumes constraint at the default stage.
func NewConsumes(mediaTypes []string) *Consumes {
	return NewConsumesAtStage(mediaTypes, ConsumesStage)
}

// NewConsumesAtStage creates a Consumes constraint at the given stage.
func NewConsumesAtStage(mediaTypes []string, stage int) *Consumes {
	c := &Consumes{stage: stage}
	for _, t := range mediaTypes {
		c.types = append(c.types, strings.ToLower(strings.TrimSpace(t)))
	}
	return c
}

// Accept implements Constraint.
func (c *Consumes) Accept(ctx *Context) bool {
	if ctx == nil || ctx.Request == nil {
		return false
	}

	raw := ctx.Request.Header.Get("Content-Type")
	if raw == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return false
	}

	for _, declared := range c.types {
		if mediaTypeMatches(declared, mediaType) {
			return true
		}
	}
	return false
}

// Stage implements Staged.
func (c *Consumes) Stage() int {
	return c.stage
}

func mediaTypeMatches(declared, actual string) bool {
	if declared == "*/*" || declared == actual {
		return true
	}
	if prefix, ok := strings.CutSuffix(declared, "/*"); ok {
		return strings.HasPrefix(actual, prefix+"/")
	}
	return false
}
