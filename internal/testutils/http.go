package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"worldatlas/internal/auth"

	"github.com/stretchr/testify/require"
)

type TestServer struct {
	*httptest.Server
	t     *testing.T
	token string
}

func NewTestServer(t *testing.T, handler http.Handler) *TestServer {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &TestServer{
		Server: server,
		t:      t,
	}
}

// AsUser makes every following request carry a bearer token for userID
func (ts *TestServer) AsUser(key []byte, userID string) *TestServer {
	token, err := auth.GenerateJWT(key, userID, time.Hour)
	require.NoError(ts.t, err)
	ts.token = token
	return ts
}

// Anonymous drops the bearer token
func (ts *TestServer) Anonymous() *TestServer {
	ts.token = ""
	return ts
}

func (ts *TestServer) do(method, path string, body interface{}) *http.Response {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(ts.t, err)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, ts.URL+path, bodyReader)
	require.NoError(ts.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(ts.t, err)
	return resp
}

func (ts *TestServer) GET(path string) *http.Response {
	return ts.do(http.MethodGet, path, nil)
}

func (ts *TestServer) POST(path string, body interface{}) *http.Response {
	return ts.do(http.MethodPost, path, body)
}

func (ts *TestServer) PUT(path string, body interface{}) *http.Response {
	return ts.do(http.MethodPut, path, body)
}

func (ts *TestServer) DELETE(path string) *http.Response {
	return ts.do(http.MethodDelete, path, nil)
}

// Envelope mirrors the API response wrapper with a typed data field
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// AssertJSONResponse checks the status and decodes the envelope's data into target
func AssertJSONResponse[T any](t *testing.T, resp *http.Response, expectedStatus int) T {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, expectedStatus, resp.StatusCode)

	var env Envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.True(t, env.Success)
	return env.Data
}

func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, expectedStatus, resp.StatusCode)

	var env Envelope[json.RawMessage]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.False(t, env.Success)

	if expectedMessage != "" {
		require.Contains(t, env.Message, expectedMessage)
	}
}
