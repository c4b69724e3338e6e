package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"quick-compare/pkg/models"
)

// follows RFC 7807: Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

func (pd *ProblemDetails) Error() string {
	return fmt.Sprintf("%d %s: %s", pd.Status, pd.Title, pd.Detail)
}

func WriteError(w http.ResponseWriter, status int, detail, instance string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	pd := &ProblemDetails{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}

	if err := json.NewEncoder(w).Encode(pd); err != nil {
		log.Printf("Error encoding problem details: %v", err)
	}
}

func WriteBadRequest(w http.ResponseWriter, detail, instance string) {
	WriteError(w, http.StatusBadRequest, detail, instance)
}

func WriteNotFound(w http.ResponseWriter, detail, instance string) {
	WriteError(w, http.StatusNotFound, detail, instance)
}

func WriteTooManyRequests(w http.ResponseWriter, instance string) {
	WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded, slow down.", instance)
}

func WriteGatewayTimeout(w http.ResponseWriter, detail, instance string) {
	WriteError(w, http.StatusGatewayTimeout, detail, instance)
}

func WriteInternalServerError(w http.ResponseWriter, detail, instance string) {
	WriteError(w, http.StatusInternalServerError, detail, instance)
}

// WriteUpstreamError maps a failure of the scraping or lookup layer onto a
// status code: timeouts are 504, a location no store serves 404, the rest 500.
func WriteUpstreamError(w http.ResponseWriter, err error, instance string) {
	switch {
	case IsTimeout(err):
		WriteGatewayTimeout(w, "Upstream service timed out: "+err.Error(), instance)
	case errors.Is(err, models.ErrStoreNotFound):
		WriteNotFound(w, err.Error(), instance)
	default:
		WriteInternalServerError(w, err.Error(), instance)
	}
}

// IsTimeout recognises deadline errors, including ones that only survive as
// text after passing through a browser or HTTP client.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Client.Timeout") || strings.Contains(msg, "timeout")
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
