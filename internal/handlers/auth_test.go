package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chirpnet/apiserver/config"
	"github.com/chirpnet/apiserver/internal/auth"
	"github.com/chirpnet/apiserver/internal/handlers"
	"github.com/chirpnet/apiserver/internal/services"
	"github.com/chirpnet/apiserver/internal/store"
	"github.com/chirpnet/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memUserRepo is a minimal in-memory UserRepository for handler tests.
type memUserRepo struct {
	users map[string]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]types.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	user.ID = uuid.NewString()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) ListOthers(_ context.Context, excludeID string) ([]types.User, error) {
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		if user.ID != excludeID {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *memUserRepo) ListByIDs(_ context.Context, ids []string) ([]types.User, error) {
	users := make([]types.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func newAuthRouter(t *testing.T) (*chi.Mux, *memUserRepo) {
	t.Helper()

	repo := newMemUserRepo()
	hasher := auth.NewHasher(4)
	tokens := auth.NewTokens(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
	authService := services.NewAuthService(repo, hasher, tokens)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, auth.RequireAuth(tokens))
	})
	return router, repo
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type authPayload struct {
	User  types.User `json:"user"`
	Token string     `json:"token"`
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func register(t *testing.T, router http.Handler, name, email, password string) (authPayload, *httptest.ResponseRecorder) {
	t.Helper()

	rec, env := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	var payload authPayload
	if rec.Code == http.StatusCreated {
		require.NoError(t, json.Unmarshal(env.Data, &payload))
	}
	return payload, rec
}

func login(t *testing.T, router http.Handler, email, password string) (authPayload, *httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec, env := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	var payload authPayload
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(env.Data, &payload))
	}
	return payload, rec, env
}

func TestAuthLifecycle(t *testing.T) {
	router, _ := newAuthRouter(t)

	// register("Ann","ann@x.com","secret1") -> 201 with token
	created, rec := register(t, router, "Ann", "ann@x.com", "secret1")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, created.Token)
	require.NotEmpty(t, created.User.ID)

	// login with wrong password -> 401 Invalid credentials
	_, rec401, env := login(t, router, "ann@x.com", "wrong")
	require.Equal(t, http.StatusUnauthorized, rec401.Code)
	require.Equal(t, "Invalid credentials", env.Error)

	// login with correct password -> 200, same subject
	logged, rec200, _ := login(t, router, "ann@x.com", "secret1")
	require.Equal(t, http.StatusOK, rec200.Code)
	require.Equal(t, created.User.ID, logged.User.ID)

	// change password -> 200
	recChange, envChange := doJSON(t, router, http.MethodPatch, "/auth/change-password", logged.Token, map[string]string{
		"currentPassword": "secret1",
		"newPassword":     "secret2",
	})
	require.Equal(t, http.StatusOK, recChange.Code)
	require.Equal(t, "Password changed successfully", envChange.Message)

	// old password -> 401; new password -> 200
	_, recOld, _ := login(t, router, "ann@x.com", "secret1")
	require.Equal(t, http.StatusUnauthorized, recOld.Code)
	_, recNew, _ := login(t, router, "ann@x.com", "secret2")
	require.Equal(t, http.StatusOK, recNew.Code)
}

func TestRegisterConflict(t *testing.T) {
	router, _ := newAuthRouter(t)

	_, rec := register(t, router, "Ann", "ann@x.com", "secret1")
	require.Equal(t, http.StatusCreated, rec.Code)

	_, recDup := register(t, router, "Ann Again", "ANN@x.com", "secret2")
	require.Equal(t, http.StatusConflict, recDup.Code)
}

func TestRegisterValidation(t *testing.T) {
	router, _ := newAuthRouter(t)

	_, recMissing := register(t, router, "", "ann@x.com", "secret1")
	require.Equal(t, http.StatusBadRequest, recMissing.Code)

	_, recShort := register(t, router, "Ann", "ann@x.com", "short")
	require.Equal(t, http.StatusBadRequest, recShort.Code)

	for _, email := range []string{"not-an-email", "a@", "@x.com", "Ann <ann@x.com>"} {
		_, recEmail := register(t, router, "Ann", email, "secret1")
		require.Equal(t, http.StatusBadRequest, recEmail.Code, "email %q", email)
	}
}

func TestLoginFailuresShareMessage(t *testing.T) {
	router, _ := newAuthRouter(t)

	_, rec := register(t, router, "Ann", "ann@x.com", "secret1")
	require.Equal(t, http.StatusCreated, rec.Code)

	_, recWrong, envWrong := login(t, router, "ann@x.com", "wrong")
	_, recUnknown, envUnknown := login(t, router, "nobody@x.com", "secret1")

	require.Equal(t, http.StatusUnauthorized, recWrong.Code)
	require.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	require.Equal(t, envWrong.Error, envUnknown.Error)
}

func TestMe(t *testing.T) {
	router, repo := newAuthRouter(t)

	created, rec := register(t, router, "Ann", "ann@x.com", "secret1")
	require.Equal(t, http.StatusCreated, rec.Code)

	recMe, env := doJSON(t, router, http.MethodGet, "/auth/me", created.Token, nil)
	require.Equal(t, http.StatusOK, recMe.Code)

	var user types.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	require.Equal(t, created.User.ID, user.ID)
	require.Equal(t, "ann@x.com", user.Email)

	// The projection must never carry the hash.
	require.NotContains(t, recMe.Body.String(), "password")

	// Vanished identity -> 404 even with a valid token.
	delete(repo.users, created.User.ID)
	recGone, _ := doJSON(t, router, http.MethodGet, "/auth/me", created.Token, nil)
	require.Equal(t, http.StatusNotFound, recGone.Code)
}

func TestGuardedRoutesRejectWithoutToken(t *testing.T) {
	router, _ := newAuthRouter(t)

	recMe, _ := doJSON(t, router, http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, recMe.Code)

	recChange, _ := doJSON(t, router, http.MethodPatch, "/auth/change-password", "", map[string]string{
		"currentPassword": "a",
		"newPassword":     "b",
	})
	require.Equal(t, http.StatusUnauthorized, recChange.Code)

	recLogout, _ := doJSON(t, router, http.MethodPost, "/auth/logout", "", nil)
	require.Equal(t, http.StatusUnauthorized, recLogout.Code)
}

func TestLogout(t *testing.T) {
	router, _ := newAuthRouter(t)

	created, rec := register(t, router, "Ann", "ann@x.com", "secret1")
	require.Equal(t, http.StatusCreated, rec.Code)

	recOut, env := doJSON(t, router, http.MethodPost, "/auth/logout", created.Token, nil)
	require.Equal(t, http.StatusOK, recOut.Code)
	require.Equal(t, "Logged out successfully", env.Message)

	// Stateless tokens: the token still verifies after logout.
	recMe, _ := doJSON(t, router, http.MethodGet, "/auth/me", created.Token, nil)
	require.Equal(t, http.StatusOK, recMe.Code)
}
