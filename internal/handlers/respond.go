package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Options are the request-layer settings shared by every handler.
type Options struct {
	DefaultLimit int
	MaxLimit     int
	// Production hides internal error details from clients.
	Production bool
}

func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 20
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = 100
	}
	if o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = o.MaxLimit
	}
	return o
}

type responder struct {
	logger *zap.Logger
	opts   Options
}

// serviceError maps a service error onto its HTTP status.
func (rs responder) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *services.ValidationError
		notFound *services.NotFoundError
		state    *services.StateError
		conflict *services.ConflictError
		unauth   *services.UnauthorizedError
	)

	switch {
	case errors.As(err, &verr):
		services.SendErrorResponse(w, verr.Message, http.StatusBadRequest, verr)
	case errors.As(err, &notFound):
		services.SendErrorResponse(w, notFound.Error(), http.StatusNotFound, nil)
	case errors.As(err, &state):
		services.SendErrorResponse(w, state.Message, http.StatusBadRequest, nil)
	case errors.As(err, &conflict):
		services.SendErrorResponse(w, conflict.Message, http.StatusConflict, nil)
	case errors.As(err, &unauth):
		services.SendErrorResponse(w, unauth.Message, http.StatusUnauthorized, nil)
	default:
		rs.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg := "Internal server error"
		if !rs.opts.Production {
			msg = err.Error()
		}
		services.SendErrorResponse(w, msg, http.StatusInternalServerError, nil)
	}
}

// identity returns the caller's business and user ids, writing a 401 when
// the request did not pass through the auth middleware.
func identity(w http.ResponseWriter, r *http.Request) (businessID, userID int64, ok bool) {
	businessID, okB := middleware.BusinessIDFromContext(r.Context())
	userID, okU := middleware.UserIDFromContext(r.Context())
	if !okB || !okU {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return 0, 0, false
	}
	return businessID, userID, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		services.SendErrorResponse(w, "Invalid id", http.StatusBadRequest, nil)
		return 0, false
	}
	return id, true
}

// pagination reads page and limit. Missing or malformed values fall back to
// the defaults; page is capped at models.MaxPage and limit at MaxLimit.
func (rs responder) pagination(r *http.Request) models.Pagination {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	page = min(page, models.MaxPage)
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = rs.opts.DefaultLimit
	}
	if limit > rs.opts.MaxLimit {
		limit = rs.opts.MaxLimit
	}
	return models.Pagination{Page: page, Limit: limit}
}

// queryParams collects filter parse failures so a request reports all of
// them at once.
type queryParams struct {
	r      *http.Request
	fields []services.FieldError
}

func newQueryParams(r *http.Request) *queryParams {
	return &queryParams{r: r}
}

func (p *queryParams) fail(name, msg string) {
	p.fields = append(p.fields, services.FieldError{Field: name, Message: msg})
}

func (p *queryParams) id(name string) int64 {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		p.fail(name, "must be a positive integer")
		return 0
	}
	return v
}

func (p *queryParams) date(name string) string {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return ""
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		p.fail(name, "must be a date in YYYY-MM-DD format")
		return ""
	}
	return raw
}

func (p *queryParams) flag(name string) *bool {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(name, "must be true or false")
		return nil
	}
	return &v
}

func (p *queryParams) enum(name string, allowed ...string) string {
	raw := p.r.URL.Query().Get(name)
	if raw == "" {
		return ""
	}
	if !slices.Contains(allowed, raw) {
		p.fail(name, fmt.Sprintf("must be one of: %s", strings.Join(allowed, " ")))
		return ""
	}
	return raw
}

func (p *queryParams) text(name string) string {
	return p.r.URL.Query().Get(name)
}

// err is nil when every parameter parsed.
func (p *queryParams) err() error {
	if len(p.fields) == 0 {
		return nil
	}
	return &services.ValidationError{Message: "Invalid query parameters", Fields: p.fields}
}
