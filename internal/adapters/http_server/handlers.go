// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"talent_testimonials/internal/app"
	"talent_testimonials/internal/domain"
)

// Querier is the read side the handlers need; *app.QueryService satisfies it.
type Querier interface {
	Page(ctx context.Context, req domain.FilterRequest) (domain.TestimonialsView, error)
	Summary(ctx context.Context) (domain.Summary, error)
	Featured(ctx context.Context, limit int) ([]domain.Review, error)
}

type Handlers struct {
	Q        Querier
	Defaults app.PageDefaults
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type featuredResponse struct {
	Items []domain.Review `json:"items"`
}

const maxFeaturedLimit = 24

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/testimonials", h.listTestimonials)
	s.mux.Get("/v1/testimonials/summary", h.getSummary)
	s.mux.Get("/v1/testimonials/featured", h.listFeatured)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeQueryError turns a store failure into the degraded "unavailable" state.
func writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		w.Header().Set("Retry-After", "30")
		writeProblem(w, http.StatusServiceUnavailable, "Reviews temporarily unavailable", "the review collection could not be loaded")
		return
	}
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any, what string) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("handler", what).Msg("failed to write body")
	}
}

func (h *Handlers) listTestimonials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, ferr := app.ParseFilter(app.RawFilter{
		Rating:   q.Get("rating"),
		Service:  q.Get("service"),
		Page:     q.Get("page"),
		PageSize: q.Get("page_size"),
	}, h.Defaults)
	if ferr != nil {
		// filtering degrades gracefully; the normalised request is used
		log.Debug().Err(ferr).Str("query", r.URL.RawQuery).Msg("filter request normalised")
	}

	view, err := h.Q.Page(r.Context(), req)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, r, view, "listTestimonials")
}

func (h *Handlers) getSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.Q.Summary(r.Context())
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, r, s, "getSummary")
}

func (h *Handlers) listFeatured(w http.ResponseWriter, r *http.Request) {
	limit := 0 // service default
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > maxFeaturedLimit {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 24")
			return
		}
		limit = l
	}
	items, err := h.Q.Featured(r.Context(), limit)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, r, featuredResponse{Items: items}, "listFeatured")
}
