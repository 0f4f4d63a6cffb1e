package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHeaderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{name: "simple", header: "X-Tenant"},
		{name: "empty", header: "", wantErr: true},
		{name: "space", header: "X Tenant", wantErr: true},
		{name: "colon", header: "X:Tenant", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateHeaderName(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRegex(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRegex(""))
	assert.NoError(t, ValidateRegex(`^v[0-9]+$`))
	assert.Error(t, ValidateRegex(`[unclosed`))
}

func TestValidateHTTPMethod(t *testing.T) {
	t.Parallel()

	for _, m := range []string{"GET", "post", "Delete", "*"} {
		assert.NoError(t, ValidateHTTPMethod(m), m)
	}
	assert.Error(t, ValidateHTTPMethod("FETCH"))
	assert.Error(t, ValidateHTTPMethod(""))
}

func TestValidateMediaType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mediaType string
		wantErr   bool
	}{
		{mediaType: "application/json"},
		{mediaType: "text/*"},
		{mediaType: "*/*"},
		{mediaType: "application/json; charset=utf-8"},
		{mediaType: "json", wantErr: true},
		{mediaType: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			t.Parallel()
			err := ValidateMediaType(tt.mediaType)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSamplingRate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateSamplingRate(0))
	assert.NoError(t, ValidateSamplingRate(0.5))
	assert.NoError(t, ValidateSamplingRate(1))
	assert.Error(t, ValidateSamplingRate(-0.1))
	assert.Error(t, ValidateSamplingRate(1.5))
}
