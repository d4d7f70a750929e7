package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/auth"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/config"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/models"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/service"
)

const testSecret = "test-secret-at-least-32-chars-long-for-security"

type memBlobStore struct {
	stored map[string][]byte
}

func (m *memBlobStore) Store(_ context.Context, r io.Reader, originalName string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url := "https://blobs.test/" + originalName
	m.stored[url] = b
	return url, nil
}

type fakeVerifier struct {
	identity *auth.Identity
	err      error
}

func (f *fakeVerifier) AuthCodeURL(state string) string {
	return "https://accounts.test/auth?state=" + state
}

func (f *fakeVerifier) Exchange(_ context.Context, code string) (*auth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type testEnv struct {
	srv      *HTTPServer
	svc      *service.General
	jwt      *auth.JWTManager
	verifier *fakeVerifier
	blobs    *memBlobStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop().Sugar()
	gdb, err := db.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		PublicURL:   "http://localhost:1323",
		FrontendURL: "http://localhost:5173/",
	}
	blobs := &memBlobStore{stored: map[string][]byte{}}
	svc := service.NewGeneral(gdb, blobs, logger)
	jwt := auth.NewJWTManager(testSecret, "studynotes-test", time.Hour)
	verifier := &fakeVerifier{}

	return &testEnv{
		srv:      newHTTPServer(cfg, svc, jwt, verifier, blobs, logger),
		svc:      svc,
		jwt:      jwt,
		verifier: verifier,
		blobs:    blobs,
	}
}

// user registers a user and returns a bearer token for it.
func (env *testEnv) user(t *testing.T, googleID, email string) (*db.User, string) {
	t.Helper()
	u, err := env.svc.UserLogin(context.Background(), &auth.Identity{GoogleID: googleID, Email: email, Name: googleID})
	require.NoError(t, err)
	token, err := env.jwt.Issue(u.ID, u.Email)
	require.NoError(t, err)
	return u, token
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.srv.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestCensorBody(t *testing.T) {
	b := `{
		"email": "email@email.com",
		"code": "6f1c2a5e-invite",
		"token": "eyJhbGciOi"
	}`

	got := censorBody([]byte(b))
	assert.JSONEq(t, `{
		"email": "email@email.com",
		"code": "$censored",
		"token": "$censored"
	}`, string(got))

	assert.Equal(t, "not json", string(censorBody([]byte("not json"))))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Equal(t, "", bearerToken("Bearer "))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken(""))
	assert.Equal(t, "", bearerToken("abc"))
	assert.Equal(t, "", bearerToken("Basic abc"))
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)
	u, token := env.user(t, "g-a", "a@stud.ase.ro")

	t.Run("missing credential", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/subjects", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bare scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer")
		rec := httptest.NewRecorder()
		env.srv.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("no scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
		req.Header.Set(echo.HeaderAuthorization, token)
		rec := httptest.NewRecorder()
		env.srv.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid credential", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/subjects", "garbage", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("expired credential", func(t *testing.T) {
		expired, err := auth.NewJWTManager(testSecret, "studynotes-test", -time.Minute).Issue(u.ID, u.Email)
		require.NoError(t, err)

		rec := env.do(t, http.MethodGet, "/api/subjects", expired, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("valid credential", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		me := models.UserResp{}
		decode(t, rec, &me)
		assert.Equal(t, u.ID, me.ID)
		assert.Equal(t, "a@stud.ase.ro", me.Email)
	})
}

func TestErrorHandler(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user(t, "g-a", "a@stud.ase.ro")

	t.Run("bad id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/notes/abc", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/subjects", token, map[string]string{"professor": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found body", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/notes/42", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)

		msg := models.MessageResp{}
		decode(t, rec, &msg)
		assert.Equal(t, "not found", msg.Message)
	})
}
