package transport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/safar/storefront/internal/service"
)

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	products, err := h.Catalog.List(r.Context(), strings.TrimSpace(q.Get("category")), strings.TrimSpace(q.Get("sort")))
	if err != nil {
		respondError(w, r, err, "Failed to fetch products")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(mux.Vars(r)["id"])
	if !ok {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}

	product, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "Failed to fetch product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *handler) createProduct(w http.ResponseWriter, r *http.Request) {
	in, image, cleanup, err := h.parseProductForm(w, r)
	if err != nil {
		respondError(w, r, err, "Failed to create product")
		return
	}
	defer cleanup()

	product, err := h.Catalog.Create(r.Context(), in, image)
	if err != nil {
		respondError(w, r, err, "Failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Product created successfully",
		"product": product,
	})
}

func (h *handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.URL.Query().Get("id"))
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	in, image, cleanup, err := h.parseProductForm(w, r)
	if err != nil {
		respondError(w, r, err, "Failed to update product")
		return
	}
	defer cleanup()

	product, err := h.Catalog.Update(r.Context(), id, in, image)
	if err != nil {
		respondError(w, r, err, "Failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": product,
	})
}

func (h *handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.URL.Query().Get("id"))
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		respondError(w, r, err, "Failed to delete product")
		return
	}

	writeMessage(w, http.StatusOK, "Product deleted successfully")
}

// parseProductForm reads the multipart admin form. The returned cleanup
// closes the uploaded file and removes multipart temp files.
func (h *handler) parseProductForm(w http.ResponseWriter, r *http.Request) (service.ProductInput, *service.ImageUpload, func(), error) {
	noop := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.ProductInput{}, nil, noop, &service.ValidationError{Msg: "Upload is too large"}
		}
		return service.ProductInput{}, nil, noop, &service.ValidationError{Msg: "Invalid form data"}
	}

	in := service.ProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		Quantity:    r.FormValue("quantity"),
		Category:    r.FormValue("category"),
	}

	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil, cleanup, nil
		}
		cleanup()
		return service.ProductInput{}, nil, noop, &service.ValidationError{Msg: "Invalid image upload"}
	}

	image := &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}

	return in, image, func() {
		file.Close()
		cleanup()
	}, nil
}
