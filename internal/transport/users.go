package transport

import (
	"net/http"

	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/service"
)

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to fetch users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Name and email are required")
		return
	}

	user, err := h.Users.Create(r.Context(), models.User{
		Name:    body.Name,
		Email:   body.Email,
		Phone:   body.Phone,
		Address: body.Address,
	})
	if err != nil {
		respondError(w, r, err, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    user,
	})
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.Users.UpdateProfile(r.Context(), in)
	if err != nil {
		respondError(w, r, err, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *handler) analytics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Analytics.Snapshot(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to compute analytics")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
