// Package testutil provides shared helpers for exercising the ledger API
// in tests: JSON request plumbing, response envelope decoding, and access
// tokens minted the way the identity service mints them.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// RequestOption mutates a test request before it is served.
type RequestOption func(*http.Request)

// WithBearerToken sets the Authorization header on the request.
func WithBearerToken(token string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// WithHeader sets an arbitrary header on the request.
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// PerformRequest serves one JSON request against the engine and returns the
// recorder. A nil body sends an empty request body.
func PerformRequest(t *testing.T, engine *gin.Engine, method, path string, body any, opts ...RequestOption) *httptest.ResponseRecorder {
	t.Helper()

	reqBody := &bytes.Buffer{}
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// Envelope mirrors the API response envelope for assertions. Data stays
// raw so callers decode it into whatever payload the endpoint returns.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *EnvelopeError  `json:"error"`
	Meta    *EnvelopeMeta   `json:"meta"`
}

// EnvelopeError is the error half of the response envelope.
type EnvelopeError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// EnvelopeMeta carries the pagination block of list responses.
type EnvelopeMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// DecodeEnvelope unmarshals the recorded response body into an Envelope.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var envelope Envelope
	err := json.Unmarshal(w.Body.Bytes(), &envelope)
	require.NoError(t, err, "Response body is not a valid envelope: %s", w.Body.String())
	return envelope
}

// DecodeData asserts a successful envelope and unmarshals its data into out.
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	envelope := DecodeEnvelope(t, w)
	require.True(t, envelope.Success, "Expected success envelope, got: %s", w.Body.String())
	require.NotNil(t, envelope.Data, "Success envelope carries no data")
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// RequireErrorCode asserts the response status and the envelope error code.
func RequireErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	require.Equal(t, status, w.Code, "Response body: %s", w.Body.String())
	envelope := DecodeEnvelope(t, w)
	require.False(t, envelope.Success)
	require.NotNil(t, envelope.Error, "Error envelope carries no error info")
	require.Equal(t, code, envelope.Error.Code)
}

// SignTestToken mints a short-lived HS256 access token carrying the given
// username, signed and stamped the way the identity service does it.
func SignTestToken(t *testing.T, secret, issuer, username string) string {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":      issuer,
		"sub":      username,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err, "Failed to sign test token")
	return signed
}
