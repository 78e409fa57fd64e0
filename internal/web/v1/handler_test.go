package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/marketplace/internal/core/domain"
	logicv1 "github.com/duynhne/marketplace/internal/logic/v1"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store := newMemStore()
	auth := logicv1.NewAuthService(memUsers{store}, memSessions{store}, time.Hour)
	products := logicv1.NewProductService(memProducts{store})
	uploads := &Uploader{Dir: t.TempDir(), PublicURL: "/uploads", MaxBytes: 1 << 20}

	r := gin.New()
	NewHandler(auth, products, uploads).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r http.Handler, username string) domain.AuthResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", domain.RegisterRequest{
		Username: username, Email: username + "@example.com", Password: "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp domain.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	return resp
}

func TestAuthFlow(t *testing.T) {
	r := newTestRouter(t)
	reg := register(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", domain.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "secret123",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "alice", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/me", reg.Token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"username":"alice"`) {
		t.Fatalf("me status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", reg.Token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/me", reg.Token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d", w.Code)
	}
}

func TestRequireAuthRejectsBadHeaders(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"unknown token", "Bearer nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Fatalf("body = %s, want error JSON", w.Body.String())
			}
		})
	}
}

func TestProductEndpoints(t *testing.T) {
	r := newTestRouter(t)
	seller := register(t, r, "seller")
	other := register(t, r, "other")

	w := doJSON(t, r, http.MethodPost, "/api/v1/products", "", domain.CreateProductRequest{Title: "Chair", Price: 30})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/products", seller.Token, domain.CreateProductRequest{Title: "Chair", Price: 30, City: "Lyon"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created domain.Product
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode product: %v", err)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/products?city=Lyon", "", nil)
	var list []domain.Product
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("list = %s (err %v)", w.Body.String(), err)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/products/999", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing product status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/products/abc", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}

	zip := "69001"
	path := fmt.Sprintf("/api/v1/products/%d", created.ID)
	w = doJSON(t, r, http.MethodPatch, path, other.Token, domain.UpdateProductRequest{ZipCode: &zip})
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-owner update status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPatch, path, seller.Token, domain.UpdateProductRequest{ZipCode: &zip})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"zipCode":"69001"`) {
		t.Fatalf("owner update status = %d, body = %s", w.Code, w.Body.String())
	}
}

func multipartBody(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	store := newMemStore()
	auth := logicv1.NewAuthService(memUsers{store}, memSessions{store}, time.Hour)
	dir := t.TempDir()
	r := gin.New()
	NewHandler(auth, logicv1.NewProductService(memProducts{store}), &Uploader{Dir: dir, PublicURL: "/uploads", MaxBytes: 1 << 20}).
		RegisterRoutes(r.Group("/api/v1"))

	reg := register(t, r, "uploader")
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	body, ct := multipartBody(t, png)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous upload status = %d", w.Code)
	}

	body, ct = multipartBody(t, png)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if !strings.HasPrefix(resp.URL, "/uploads/") || !strings.HasSuffix(resp.URL, ".png") {
		t.Fatalf("url = %q", resp.URL)
	}
	if _, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(resp.URL, "/uploads/"))); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	body, ct = multipartBody(t, []byte("plain text, not an image"))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("text upload status = %d", w.Code)
	}
}
