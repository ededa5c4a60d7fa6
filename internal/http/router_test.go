package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitmerch/bitmerch/internal/domain"
	"github.com/bitmerch/bitmerch/internal/payment"
	"github.com/bitmerch/bitmerch/internal/service"
	"github.com/bitmerch/bitmerch/internal/store"
	"github.com/bitmerch/bitmerch/internal/store/drivers/sqlite"
	"github.com/bitmerch/bitmerch/pkg/httpx"
	"github.com/bitmerch/bitmerch/pkg/idempotency"
	"github.com/bitmerch/bitmerch/pkg/idx"
	"github.com/bitmerch/bitmerch/pkg/jwtx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type fakeConverter struct {
	url string
	err error
}

func (f *fakeConverter) Convert(context.Context, string, string) (string, error) {
	return f.url, f.err
}

type fakeVerifier struct {
	v   payment.Verification
	err error
}

func (f *fakeVerifier) VerifyReference(context.Context, string) (payment.Verification, error) {
	return f.v, f.err
}

type testEnv struct {
	router *Router
	store  store.Store
	codec  *jwtx.Codec

	converter *fakeConverter
	verifier  *fakeVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	codec, err := jwtx.NewCodec(jwtx.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		Issuer:        "bitmerch-api",
		Audience:      "bitmerch-clients",
		AccessTTL:     time.Minute,
		RefreshTTL:    2 * time.Minute,
	})
	require.NoError(t, err)

	converter := &fakeConverter{url: "https://files.example.com/tmp/archive.zip"}
	verifier := &fakeVerifier{v: payment.Verification{
		Status:        "success",
		Reference:     "ref-ok",
		CustomerEmail: "buyer@example.com",
		Amount:        150000,
	}}

	logger := slogx.New(slogx.Config{Service: "test", Level: "error", Format: "text"})

	router := NewRouter(codec, idempotency.New(time.Minute),
		RouterConfig{
			BuildVersion:  "test",
			AllowedOrigin: "http://localhost:3000",
			AdminRole:     "admin",
			UploadDir:     t.TempDir(),
		},
		st, logger)

	router.AuthService = &service.AuthService{Store: st, Codec: codec, DefaultRole: "client"}
	router.ProductService = &service.ProductService{Store: st, Converter: converter}
	router.PaymentService = &service.PaymentService{Store: st, Verifier: verifier}
	router.ApplyRoutes()

	return &testEnv{router: router, store: st, codec: codec, converter: converter, verifier: verifier}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, httpx.Envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env httpx.Envelope
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) (*httptest.ResponseRecorder, httpx.Envelope) {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

func (e *testEnv) register(t *testing.T, email, password string) {
	t.Helper()

	rec, env := e.postJSON(t, "/api/v1/register", map[string]string{
		"firstname": "Ada", "lastname": "Lovelace",
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	require.True(t, env.Success)
}

func (e *testEnv) login(t *testing.T, email, password string) domain.TokenPair {
	t.Helper()

	rec, env := e.postJSON(t, "/api/v1/login", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	return domain.TokenPair{
		AccessToken:  data["accessToken"].(string),
		RefreshToken: data["refreshToken"].(string),
	}
}

// createProduct seeds an admin row plus one product directly through the
// store, bypassing the upload endpoint.
func (e *testEnv) createProduct(t *testing.T) domain.Product {
	t.Helper()

	adminID := idx.New().String()
	err := e.store.Users().CreateUser(context.Background(), domain.User{
		ID:           adminID,
		Email:        adminID + "@example.com",
		PasswordHash: "unused",
		Role:         "admin",
	})
	require.NoError(t, err)

	p, err := e.router.ProductService.CreateProduct(context.Background(), adminID, "archive.zip", "public")
	require.NoError(t, err)
	return p
}

func TestRegister(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t, "ada@example.com", "password123")

	t.Run("duplicate email", func(t *testing.T) {
		rec, body := env.postJSON(t, "/api/v1/register", map[string]string{
			"firstname": "Ada", "lastname": "Lovelace",
			"email": "ADA@example.com", "password": "password456",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized, login to continue", body.Message)
		require.False(t, body.Success)
	})

	t.Run("weak password", func(t *testing.T) {
		rec, body := env.postJSON(t, "/api/v1/register", map[string]string{
			"firstname": "Ada", "lastname": "Lovelace",
			"email": "new@example.com", "password": "short",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.False(t, body.Success)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec, _ := env.postJSON(t, "/api/v1/register", map[string]string{
			"firstname": "Ada", "lastname": "Lovelace",
			"email": "not-an-email", "password": "password123",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t, "ada@example.com", "password123")

	t.Run("unknown email", func(t *testing.T) {
		rec, body := env.postJSON(t, "/api/v1/login", map[string]string{
			"email": "nobody@example.com", "password": "password123",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized, register to continue", body.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec, body := env.postJSON(t, "/api/v1/login", map[string]string{
			"email": "ada@example.com", "password": "password456",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Invalid email or password", body.Message)
	})

	t.Run("success", func(t *testing.T) {
		pair := env.login(t, "ada@example.com", "password123")
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t, "ada@example.com", "password123")
	pair := env.login(t, "ada@example.com", "password123")

	refresh := func(token string) (*httptest.ResponseRecorder, httpx.Envelope) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return env.do(t, req)
	}

	t.Run("missing header", func(t *testing.T) {
		rec, body := refresh("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized - Missing Authorization header", body.Message)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rec, body := env.do(t, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized - Invalid or Missing Bearer Token", body.Message)
	})

	t.Run("unknown token", func(t *testing.T) {
		rec, body := refresh("never-issued")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized - Invalid Refresh Token", body.Message)
	})

	t.Run("rotation invalidates the old token", func(t *testing.T) {
		rec, body := refresh(pair.RefreshToken)
		require.Equal(t, http.StatusOK, rec.Code, body.Message)

		data := body.Data.(map[string]any)
		rotated := data["refreshToken"].(string)
		require.NotEqual(t, pair.RefreshToken, rotated)

		rec, body = refresh(pair.RefreshToken)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized - Invalid Refresh Token", body.Message)

		rec, _ = refresh(rotated)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestDownloadEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("malformed product id", func(t *testing.T) {
		env := newTestEnv(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-ulid/download?payment_reference=ref-ok", nil)
		rec, body := env.do(t, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Invalid product id", body.Message)
	})

	t.Run("missing payment reference", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.createProduct(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+p.ID+"/download", nil)
		rec, body := env.do(t, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "payment_reference is required", body.Message)
	})

	t.Run("unsettled payment", func(t *testing.T) {
		env := newTestEnv(t)
		env.verifier.v = payment.Verification{Status: "abandoned", Reference: "ref-bad"}
		p := env.createProduct(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+p.ID+"/download?payment_reference=ref-bad", nil)
		rec, body := env.do(t, req)
		require.Equal(t, http.StatusPaymentRequired, rec.Code)
		require.Equal(t, "Payment is required to access this resource.", body.Message)
	})

	t.Run("success then duplicate", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.createProduct(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+p.ID+"/download?payment_reference=ref-ok", nil)
		rec, body := env.do(t, req)
		require.Equal(t, http.StatusOK, rec.Code, body.Message)
		require.Equal(t, "accepted", rec.Header().Get("X-Idempotent-Status"))

		data := body.Data.(map[string]any)
		require.Equal(t, env.converter.url, data["tempDownloadUrl"])
		require.NotEmpty(t, data["password"])

		// Same product again within the TTL window.
		req = httptest.NewRequest(http.MethodGet, "/api/v1/products/"+p.ID+"/download?payment_reference=ref-ok", nil)
		rec, body = env.do(t, req)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "duplicate", rec.Header().Get("X-Idempotent-Status"))
		require.Equal(t, "Duplicate request. This request has already been processed.", body.Message)
	})

	t.Run("declined payment still consumes the key", func(t *testing.T) {
		env := newTestEnv(t)
		env.verifier.v = payment.Verification{Status: "abandoned"}
		p := env.createProduct(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+p.ID+"/download?payment_reference=ref-bad", nil)
		rec, _ := env.do(t, req)
		require.Equal(t, http.StatusPaymentRequired, rec.Code)

		// Paying up afterwards does not help until the window expires.
		env.verifier.v = payment.Verification{Status: "success", Reference: "ref-ok"}
		req = httptest.NewRequest(http.MethodGet, "/api/v1/products/"+p.ID+"/download?payment_reference=ref-ok", nil)
		rec, _ = env.do(t, req)
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestListProductsEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	p := env.createProduct(t)
	for range 4 {
		_, err := env.router.ProductService.CreateProduct(context.Background(), p.UserID, "another.zip", "public")
		require.NoError(t, err)
	}

	t.Run("missing parameters", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/products/list",
			"/api/v1/products/list?page=1",
			"/api/v1/products/list?limit=2",
			"/api/v1/products/list?page=0&limit=2",
			"/api/v1/products/list?page=x&limit=2",
		} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec, _ := env.do(t, req)
			require.Equal(t, http.StatusBadRequest, rec.Code, path)
		}
	})

	t.Run("paginated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/list?page=2&limit=2", nil)
		rec, body := env.do(t, req)
		require.Equal(t, http.StatusOK, rec.Code)

		data := body.Data.(map[string]any)
		require.EqualValues(t, 3, data["pageCount"])
		require.Len(t, data["products"], 2)
	})
}

func TestUploadEndpoint(t *testing.T) {
	t.Parallel()

	zipForm := func(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
		t.Helper()
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return buf, mw.FormDataContentType()
	}

	// Minimal zip: local file header magic is all the handler checks.
	zipBytes := []byte("PK\x03\x04fakezipcontents")

	accessToken := func(t *testing.T, env *testEnv, role string) string {
		t.Helper()

		id := idx.New().String()
		err := env.store.Users().CreateUser(context.Background(), domain.User{
			ID:           id,
			Email:        id + "@example.com",
			PasswordHash: "unused",
			Role:         role,
		})
		require.NoError(t, err)

		token, err := env.codec.Sign(jwtx.KindAccess, jwtx.Identity{ID: id, Role: role})
		require.NoError(t, err)
		return token
	}

	upload := func(t *testing.T, env *testEnv, token string, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, httpx.Envelope) {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/upload", body)
		req.Header.Set("Content-Type", contentType)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return env.do(t, req)
	}

	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t)
		body, ct := zipForm(t, "zip", "product.zip", zipBytes)
		rec, msg := upload(t, env, "", body, ct)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized - Missing Authorization header", msg.Message)
	})

	t.Run("requires admin role", func(t *testing.T) {
		env := newTestEnv(t)
		body, ct := zipForm(t, "zip", "product.zip", zipBytes)
		rec, msg := upload(t, env, accessToken(t, env, "client"), body, ct)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "Forbidden", msg.Message)
	})

	t.Run("rejects non-zip uploads", func(t *testing.T) {
		env := newTestEnv(t)
		token := accessToken(t, env, "admin")

		body, ct := zipForm(t, "zip", "notes.txt", []byte("plain text"))
		rec, msg := upload(t, env, token, body, ct)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "Unprocessable Entity - File Upload Error", msg.Message)

		// Right extension, wrong magic.
		body, ct = zipForm(t, "zip", "fake.zip", []byte("not actually a zip"))
		rec, _ = upload(t, env, token, body, ct)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		// Wrong field name.
		body, ct = zipForm(t, "file", "product.zip", zipBytes)
		rec, _ = upload(t, env, token, body, ct)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("stores the archive and records the product", func(t *testing.T) {
		env := newTestEnv(t)
		token := accessToken(t, env, "admin")

		body, ct := zipForm(t, "zip", "product.zip", zipBytes)
		rec, msg := upload(t, env, token, body, ct)
		require.Equal(t, http.StatusOK, rec.Code, msg.Message)

		data := msg.Data.(map[string]any)
		productID := data["productId"].(string)
		storedName := data["fileName"].(string)
		require.True(t, strings.HasSuffix(storedName, ".zip"))

		p, err := env.store.Products().GetProductByID(context.Background(), productID)
		require.NoError(t, err)
		require.Equal(t, storedName, p.FileName)

		saved, err := os.ReadFile(filepath.Join(p.Destination, storedName))
		require.NoError(t, err)
		require.Equal(t, zipBytes, saved)
	})
}

func TestUnknownRoutesAndMethods(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	t.Run("unknown path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
		rec, body := env.do(t, req)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		require.Equal(t, "Method Not Allowed", body.Message)
	})

	t.Run("disallowed method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/register", nil)
		rec, _ := env.do(t, req)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	for _, path := range []string{"/livez", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "ok", resp["status"], path)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	rec, _ := env.do(t, req)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
