package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chirpnet/apiserver/internal/auth"
	"github.com/stretchr/testify/require"
)

func TestRequireAuthAttachesClaims(t *testing.T) {
	tokens := newTokens("test-secret", time.Hour)
	token, err := tokens.Issue("user-1", "ann@x.com")
	require.NoError(t, err)

	var gotSubject string
	handler := auth.RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := auth.SubjectFromContext(r.Context())
		require.NoError(t, err)
		gotSubject = subject

		claims, err := auth.ClaimsFromContext(r.Context())
		require.NoError(t, err)
		require.Equal(t, "ann@x.com", claims.Email)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", gotSubject)
}

func TestRequireAuthRejects(t *testing.T) {
	tokens := newTokens("test-secret", time.Hour)
	otherTokens := newTokens("other-secret", time.Hour)
	foreign, err := otherTokens.Issue("user-1", "ann@x.com")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc123"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.token"},
		{name: "wrong secret", header: "Bearer " + foreign},
		{name: "expired token", header: "Bearer " + signToken(t, "test-secret", "user-1", time.Now().Add(-time.Minute))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := auth.RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.False(t, called)
		})
	}
}

func TestSubjectFromContextWithoutGuard(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := auth.SubjectFromContext(req.Context())
	require.ErrorIs(t, err, auth.ErrNoClaims)
}
