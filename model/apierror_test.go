package model

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAPIErrorDetailString(t *testing.T) {
	err := ParseAPIError(http.StatusUnauthorized, []byte(`{"detail":"token expired"}`))
	assert.Equal(t, "token expired", err.Message)
	assert.True(t, err.IsUnauthorized())
	assert.EqualError(t, err, "api error 401: token expired")
}

func TestParseAPIErrorValidationIssues(t *testing.T) {
	err := ParseAPIError(http.StatusUnprocessableEntity, []byte(
		`{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"},{"loc":["body","password"],"msg":"too short"}]}`))
	assert.Equal(t, "validation failed", err.Message)
	assert.Equal(t, []string{
		"body.email: value is not a valid email address",
		"body.password: too short",
	}, err.Issues)
}

func TestParseAPIErrorLegacyShape(t *testing.T) {
	err := ParseAPIError(http.StatusBadGateway, []byte(`{"error":"upstream exchange unavailable"}`))
	assert.Equal(t, "upstream exchange unavailable", err.Message)
}

func TestParseAPIErrorGarbageBody(t *testing.T) {
	err := ParseAPIError(http.StatusNotFound, []byte(`<html>nope</html>`))
	assert.Equal(t, "Not Found", err.Message)
	assert.True(t, err.IsNotFound())
}
