package transport

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/service"
	"github.com/safar/storefront/internal/store"
)

type listOrdersResponse struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.OrderFilter{
		Email:  strings.TrimSpace(q.Get("email")),
		Cursor: strings.TrimSpace(q.Get("cursor")),
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	page, err := h.Orders.ListByCustomerEmail(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, "Failed to fetch orders")
		return
	}

	writeJSON(w, http.StatusOK, listOrdersResponse{Orders: page.Items, NextCursor: page.NextCursor})
}

func (h *handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in service.CreateOrderInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	id, err := h.Orders.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err, "Failed to create order")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order created successfully",
		"orderId": id,
	})
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(mux.Vars(r)["id"])
	if !ok {
		writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}

	order, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "Failed to fetch order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("id")
	if strings.TrimSpace(rawID) == "" {
		writeMessage(w, http.StatusBadRequest, "Order ID is required")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil || body.Status == "" {
		writeMessage(w, http.StatusBadRequest, "Status is required")
		return
	}

	id, ok := parseID(rawID)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}

	if err := h.Orders.UpdateStatus(r.Context(), id, body.Status); err != nil {
		respondError(w, r, err, "Failed to update order status")
		return
	}

	writeMessage(w, http.StatusOK, "Order status updated successfully")
}

func (h *handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("id")
	if strings.TrimSpace(rawID) == "" {
		writeMessage(w, http.StatusBadRequest, "Order ID is required")
		return
	}

	id, ok := parseID(rawID)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Order not found or already cancelled")
		return
	}

	if err := h.Orders.Cancel(r.Context(), id); err != nil {
		respondError(w, r, err, "Failed to cancel order")
		return
	}

	writeMessage(w, http.StatusOK, "Order cancelled successfully")
}
