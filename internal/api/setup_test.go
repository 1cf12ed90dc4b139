package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/recipeshare/backend/internal/middleware"
	"github.com/pageza/recipeshare/backend/internal/service"
	"github.com/pageza/recipeshare/backend/internal/session"
	"github.com/pageza/recipeshare/backend/internal/storage"
	"github.com/pageza/recipeshare/backend/internal/testhelpers"
)

const (
	testCookie   = "test_session"
	testMaxBytes = 1 << 20
)

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	uploads  string
	frontend string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.NewSQLiteDB(t)
	uploads := t.TempDir()
	frontend := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(frontend, "index.html"), []byte("<html>spa</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(frontend, "app.js"), []byte("console.log('hi')"), 0o644))

	images, err := storage.NewLocalStore(uploads)
	require.NoError(t, err)

	logger := zap.NewNop()
	manager := session.NewManager(session.NewGormStore(db), "test-secret", time.Hour)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.ErrorHandler(logger),
		middleware.BodyLimit(testMaxBytes),
		middleware.Session(manager, testCookie, logger),
	)
	RegisterRoutes(router, Handlers{
		Auth:     NewAuthHandler(service.NewAuthService(db, bcrypt.MinCost, nil), manager, CookieOptions{Name: testCookie}),
		Recipes:  NewRecipeHandler(service.NewRecipeService(db, images, logger, nil), testMaxBytes),
		Images:   NewImageHandler(images),
		Frontend: NewFrontendHandler(frontend),
	})

	return &testEnv{router: router, db: db, uploads: uploads, frontend: frontend}
}

func (e *testEnv) do(method, path string, body io.Reader, contentType string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) postJSON(path string, payload interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	data, _ := json.Marshal(payload)
	return e.do(http.MethodPost, path, bytes.NewReader(data), "application/json", cookies)
}

// register creates an account and returns its session cookies
func (e *testEnv) register(t *testing.T, email string) []*http.Cookie {
	t.Helper()
	rr := e.postJSON("/api/auth/register", map[string]string{"email": email, "password": "secret123"}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

type formFile struct {
	name    string
	content []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("image", file.name)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func recipeFields(title string) map[string]string {
	return map[string]string{
		"title":        title,
		"description":  "Fluffy breakfast",
		"ingredients":  "egg, flour, milk",
		"instructions": "Mix and fry",
	}
}

// createRecipe posts a recipe with a PNG image and returns its decoded JSON
func (e *testEnv) createRecipe(t *testing.T, cookies []*http.Cookie, title string) map[string]interface{} {
	t.Helper()
	body, ct := multipartBody(t, recipeFields(title), &formFile{name: "photo.png", content: []byte("png-bytes")})
	rr := e.do(http.MethodPost, "/api/recipes", body, ct, cookies)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	resp := decode(t, rr)
	return resp["recipe"].(map[string]interface{})
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func recipePath(recipe map[string]interface{}, suffix string) string {
	return fmt.Sprintf("/api/recipes/%d%s", int(recipe["id"].(float64)), suffix)
}
