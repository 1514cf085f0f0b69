package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Wishlist *WishlistHandler
	Orders   *OrdersHandler
	Payments *PaymentHandler
	Admin    *AdminHandler
	Auth     *Authenticator
	Limiter  *RateLimiter
	Metrics  *metrics.Metrics
	Gateway  payment.Gateway
	Checks   map[string]HealthCheck
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	if h.Metrics != nil {
		r.Use(metricsMiddleware(h.Metrics))
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	r.Get("/health", health(h.Gateway, h.Checks))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{product_id}", h.Products.Get)
		})

		r.Get("/payments/key", h.Payments.Key)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Middleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{item_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{item_id}", h.Cart.RemoveItem)
				r.Delete("/", h.Cart.ClearCart)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", h.Wishlist.Get)
				r.Post("/", h.Wishlist.Add)
				r.Get("/check/{product_id}", h.Wishlist.Check)
				r.Delete("/{product_id}", h.Wishlist.Remove)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.Orders.Create)
				r.Get("/mine", h.Orders.ListMine)
				r.Get("/{order_id}", h.Orders.Get)
			})

			r.Route("/payments", func(r chi.Router) {
				if h.Limiter != nil {
					r.Use(h.Limiter.Middleware)
				}
				r.Post("/create-order", h.Payments.CreateOrder)
				r.Post("/verify", h.Payments.Verify)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Get("/orders", h.Admin.ListOrders)
				r.Get("/orders/{order_id}", h.Admin.GetOrder)
				r.Put("/orders/{order_id}/status", h.Admin.UpdateOrderStatus)
				r.Post("/orders/{order_id}/refund", h.Admin.RefundOrder)

				r.Get("/products", h.Admin.ListProducts)
				r.Post("/products", h.Admin.CreateProduct)
				r.Put("/products/{product_id}", h.Admin.UpdateProduct)
				r.Delete("/products/{product_id}", h.Admin.DeleteProduct)
				r.Post("/products/{product_id}/variants", h.Admin.AddVariant)

				r.Get("/users", h.Admin.ListUsers)
				r.Put("/users/{user_id}/role", h.Admin.UpdateUserRole)

				r.Get("/reconciliations", h.Admin.ListReconciliations)
				r.Post("/reconciliations/{case_id}/resolve", h.Admin.ResolveReconciliation)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}

func metricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(route, r.Method, status, time.Since(start))
		})
	}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Gateway string            `json:"gateway"`
	Checks  map[string]string `json:"checks"`
}

// health answers 503 when a store is down. A disabled or degraded gateway is reported but
// the service still accepts direct orders.
func health(gw payment.Gateway, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		if gw != nil {
			resp.Gateway = gw.Status().String()
		}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "up"
		}
		respondJSON(w, code, resp)
	}
}
