package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
)

type sampleBody struct {
	Action string `json:"action" validate:"required,oneof=accept reject"`
	Email  string `json:"email" validate:"omitempty,email"`
}

func bodyRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func requireValidation(t *testing.T, err error) *pkgerrors.Error {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	return typed
}

func TestDecodeJSONBody(t *testing.T) {
	var dest sampleBody
	require.NoError(t, DecodeJSONBody(bodyRequest(`{"action":"accept","email":"a@b.co"}`), &dest))
	assert.Equal(t, "accept", dest.Action)
}

func TestDecodeJSONBodyRejections(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"unknown field": `{"action":"accept","extra":1}`,
		"trailing":      `{"action":"accept"}{"action":"reject"}`,
		"malformed":     `{"action":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var dest sampleBody
			requireValidation(t, DecodeJSONBody(bodyRequest(body), &dest))
		})
	}
}

func TestDecodeJSONBodyReportsJSONFieldNames(t *testing.T) {
	var dest sampleBody
	typed := requireValidation(t, DecodeJSONBody(bodyRequest(`{"action":"maybe","email":"nope"}`), &dest))

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be one of [accept reject]", details["action"])
	assert.Equal(t, "must be a valid email", details["email"])
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	var dest sampleBody
	body := `{"action":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	typed := requireValidation(t, DecodeJSONBody(bodyRequest(body), &dest))
	assert.Equal(t, "request body too large", typed.Message())
}

func withParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	got, err := ParseUUIDParam(withParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String()), "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(withParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "abc"), "id")
	requireValidation(t, err)

	_, err = ParseUUIDParam(httptest.NewRequest(http.MethodGet, "/", nil), "id")
	requireValidation(t, err)
}

func TestParseQueryValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=20&unread=true&cursor=%20abcdef%20", nil)

	limit, err := ParseQueryInt(r, "limit", 10, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	fallback, err := ParseQueryInt(r, "missing", 10, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 10, fallback)

	_, err = ParseQueryInt(r, "limit", 10, 1, 5)
	requireValidation(t, err)

	unread, err := ParseQueryBool(r, "unread")
	require.NoError(t, err)
	assert.True(t, unread)

	assert.Equal(t, "abc", ParseQueryString(r, "cursor", 3))

	_, err = ParseQueryBool(httptest.NewRequest(http.MethodGet, "/?unread=maybe", nil), "unread")
	requireValidation(t, err)
}
