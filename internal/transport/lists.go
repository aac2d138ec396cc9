package transport

import (
	"net/http"
	"strings"

	"github.com/safar/storefront/internal/cart"
	"github.com/shopspring/decimal"
)

func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	o := strings.TrimSpace(r.URL.Query().Get("owner"))
	if o == "" {
		writeMessage(w, http.StatusBadRequest, "Owner is required")
		return "", false
	}
	return o, true
}

func (h *handler) getWishlist(w http.ResponseWriter, r *http.Request) {
	o, ok := owner(w, r)
	if !ok {
		return
	}

	items, err := h.Wishlist.Items(r.Context(), o)
	if err != nil {
		respondError(w, r, err, "Failed to fetch wishlist")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *handler) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	o, ok := owner(w, r)
	if !ok {
		return
	}

	var item cart.WishlistItem
	if err := decodeJSON(r, &item); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid wishlist item")
		return
	}

	added, items, err := h.Wishlist.Toggle(r.Context(), o, item)
	if err != nil {
		respondError(w, r, err, "Failed to update wishlist")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"added": added, "items": items})
}

// removeWishlist drops one item when id is given and clears the list
// otherwise.
func (h *handler) removeWishlist(w http.ResponseWriter, r *http.Request) {
	o, ok := owner(w, r)
	if !ok {
		return
	}

	items := []cart.WishlistItem{}
	var err error
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		items, err = h.Wishlist.Remove(r.Context(), o, id)
	} else {
		err = h.Wishlist.Clear(r.Context(), o)
	}
	if err != nil {
		respondError(w, r, err, "Failed to update wishlist")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type cartResponse struct {
	Items []cart.CartItem `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	o, ok := owner(w, r)
	if !ok {
		return
	}

	items, err := h.Cart.Items(r.Context(), o)
	if err != nil {
		respondError(w, r, err, "Failed to fetch cart")
		return
	}

	writeJSON(w, http.StatusOK, cartResponse{Items: items, Total: cart.Sum(items)})
}

func (h *handler) addToCart(w http.ResponseWriter, r *http.Request) {
	o, ok := owner(w, r)
	if !ok {
		return
	}

	var body struct {
		cart.CartItem
		Delta *int `json:"delta"`
	}
	if err := decodeJSON(r, &body); err != nil || body.ID == "" {
		writeMessage(w, http.StatusBadRequest, "Invalid cart item")
		return
	}

	delta := 1
	if body.Delta != nil {
		delta = *body.Delta
	}

	items, err := h.Cart.Add(r.Context(), o, body.CartItem, delta)
	if err != nil {
		respondError(w, r, err, "Failed to update cart")
		return
	}

	writeJSON(w, http.StatusOK, cartResponse{Items: items, Total: cart.Sum(items)})
}

func (h *handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	o, ok := owner(w, r)
	if !ok {
		return
	}

	items := []cart.CartItem{}
	var err error
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		items, err = h.Cart.Remove(r.Context(), o, id)
	} else {
		err = h.Cart.Clear(r.Context(), o)
	}
	if err != nil {
		respondError(w, r, err, "Failed to update cart")
		return
	}

	writeJSON(w, http.StatusOK, cartResponse{Items: items, Total: cart.Sum(items)})
}
