package app

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEndpoint(t *testing.T) {
	rec := serve(httptest.NewRequest("GET", "/test", nil))
	require.Equal(t, 200, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(readBody(t, rec), &resp))
	assert.Equal(t, map[string]string{"Test": "message"}, resp)
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest("OPTIONS", "/tensorflow", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := serve(req)
	assert.Equal(t, 204, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = serve(req)
	assert.Equal(t, 200, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatus(t *testing.T) {
	rec := serve(httptest.NewRequest("GET", "/status", nil))
	require.Equal(t, 200, rec.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(readBody(t, rec), &status))
	assert.Equal(t, "(None, 128, 128, 1)", status.DeclarativeInput)
	assert.Equal(t, "(1, 1, 128, 128)", status.ImperativeInput)
	assert.NotZero(t, status.MemoryTotal)
}
