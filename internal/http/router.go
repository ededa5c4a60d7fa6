package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bitmerch/bitmerch/internal/service"
	"github.com/bitmerch/bitmerch/internal/store"
	"github.com/bitmerch/bitmerch/pkg/httpx"
	"github.com/bitmerch/bitmerch/pkg/idempotency"
	"github.com/bitmerch/bitmerch/pkg/jwtx"
	"github.com/bitmerch/bitmerch/pkg/slogx"

	_ "github.com/bitmerch/bitmerch/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	guard        *idempotency.Guard
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	adminRole string
	uploadDir string

	AuthService    *service.AuthService
	ProductService *service.ProductService
	PaymentService *service.PaymentService
}

// RouterConfig carries the non-service knobs the router needs.
type RouterConfig struct {
	BuildVersion  string
	AllowedOrigin string
	AdminRole     string
	UploadDir     string
}

func NewRouter(
	codec *jwtx.Codec,
	guard *idempotency.Guard,
	cfg RouterConfig,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		guard:        guard,
		buildVersion: cfg.BuildVersion,
		startTime:    time.Now(),
		store:        st,
		adminRole:    cfg.AdminRole,
		uploadDir:    cfg.UploadDir,
		logger:       logger,
	}

	// Global middleware chain, outermost first. The blanket per-IP limit
	// sits after CORS so preflights are still answered under pressure.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(httpx.CORSConfig{
			AllowedOrigins: []string{cfg.AllowedOrigin},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			ExposedHeaders: []string{"X-Request-ID", "X-Idempotent-Status"},
			MaxAge:         600,
		}),
		httpx.AllowedMethods(http.MethodGet, http.MethodPost, http.MethodOptions),
		httpx.RateLimitByIP(httpx.GeneralLimit),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProducts()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	// Anything that misses a registered pattern is answered with the same
	// envelope shape as real endpoints.
	r.Mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		httpx.Fail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			BitMerch Storefront API
//	@version		0.1.0
//	@description	Digital archive storefront backend: account registration and login with
//	@description	rotating JWT refresh tokens, admin product uploads, paginated listing,
//	@description	and payment-gated downloads of password-protected archives.
//
//	@contact.name				BitMerch Team
//	@contact.url				https://github.com/bitmerch/bitmerch
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:7000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Credential endpoints get the strict per-IP limit on top of the
	// global one to slow brute force attempts.
	r.Mux.Handle("POST /api/v1/register",
		httpx.Chain(&RegisterHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/v1/login",
		httpx.Chain(&LoginHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/v1/refresh",
		httpx.Chain(&RefreshHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProducts() {
	upload := &UploadHandler{
		ProductService: r.ProductService,
		UploadDir:      r.uploadDir,
	}
	r.Mux.Handle("POST /api/v1/products/upload",
		httpx.Chain(upload,
			httpx.AuthnMiddleware(r.codec),
			httpx.RequireRole(r.adminRole),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Order matters: the idempotency guard must consume the key before
	// payment verification runs, so a declined payment still burns the
	// product's key for the TTL window.
	download := &DownloadHandler{ProductService: r.ProductService}
	r.Mux.Handle("GET /api/v1/products/{id}/download",
		httpx.Chain(download,
			IdempotencyMiddleware(r.guard),
			PaymentMiddleware(r.PaymentService),
		),
	)

	r.Mux.Handle("GET /api/v1/products/list",
		&ListProductsHandler{ProductService: r.ProductService},
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
