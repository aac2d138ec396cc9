package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/safar/storefront/internal/cart"
	"github.com/safar/storefront/internal/service"
)

const defaultMaxUploadBytes = 10 << 20

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Dependencies struct {
	Orders    service.OrderService
	Catalog   service.CatalogService
	Users     service.UserService
	Analytics service.AnalyticsService
	Wishlist  *cart.Wishlist
	Cart      *cart.Cart
	DB        Pinger

	// MediaDir is served under MediaPrefix when both are set.
	MediaDir       string
	MediaPrefix    string
	MaxUploadBytes int64
}

type handler struct {
	Dependencies
}

func Router(deps Dependencies) http.Handler {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = defaultMaxUploadBytes
	}
	h := &handler{Dependencies: deps}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	s := r.PathPrefix("/api").Subrouter()

	s.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	s.HandleFunc("/orders", h.createOrder).Methods(http.MethodPost)
	s.HandleFunc("/orders", h.updateOrderStatus).Methods(http.MethodPut)
	s.HandleFunc("/orders", h.cancelOrder).Methods(http.MethodDelete)
	s.HandleFunc("/orders/{id}", h.getOrder).Methods(http.MethodGet)

	s.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	s.HandleFunc("/products", h.createProduct).Methods(http.MethodPost)
	s.HandleFunc("/products", h.updateProduct).Methods(http.MethodPut)
	s.HandleFunc("/products", h.deleteProduct).Methods(http.MethodDelete)
	s.HandleFunc("/products/{id}", h.getProduct).Methods(http.MethodGet)

	s.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)
	s.HandleFunc("/users", h.createUser).Methods(http.MethodPost)
	s.HandleFunc("/user/update", h.updateProfile).Methods(http.MethodPut)

	s.HandleFunc("/admin/analytics", h.analytics).Methods(http.MethodGet)

	s.HandleFunc("/wishlist", h.getWishlist).Methods(http.MethodGet)
	s.HandleFunc("/wishlist", h.toggleWishlist).Methods(http.MethodPost)
	s.HandleFunc("/wishlist", h.removeWishlist).Methods(http.MethodDelete)
	s.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	s.HandleFunc("/cart", h.addToCart).Methods(http.MethodPost)
	s.HandleFunc("/cart", h.removeFromCart).Methods(http.MethodDelete)

	if deps.MediaDir != "" && deps.MediaPrefix != "" {
		prefix := strings.TrimSuffix(deps.MediaPrefix, "/") + "/"
		r.PathPrefix(prefix).
			Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(deps.MediaDir)))).
			Methods(http.MethodGet, http.MethodHead)
	}

	return withServerDefaults(logMiddleware(r))
}
