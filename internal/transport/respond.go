package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/service"
	log "github.com/sirupsen/logrus"
)

const maxJSONBody = 1 << 20

var errEmptyBody = errors.New("empty request body")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("write response")
	}
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// respondError maps service errors onto status codes. failMsg is the message
// used for storage failures, which also carry the underlying error text.
func respondError(w http.ResponseWriter, r *http.Request, err error, failMsg string) {
	var (
		vErr *service.ValidationError
		nErr *service.NotFoundError
	)

	switch {
	case errors.As(err, &vErr):
		writeMessage(w, http.StatusBadRequest, vErr.Msg)
	case errors.As(err, &nErr):
		writeMessage(w, http.StatusNotFound, nErr.Msg)
	case errors.Is(err, database.ErrInsufficientStock):
		writeMessage(w, http.StatusConflict, "Insufficient stock for one or more products")
	default:
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"url":    r.URL.String(),
		}).Error(failMsg)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": failMsg,
			"error":   err.Error(),
		})
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON payload")
	}
	return nil
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
