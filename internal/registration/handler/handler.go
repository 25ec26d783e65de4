// Package handler exposes registration intake and the admin queue surface.
// Handlers stay thin: parsing, result-code envelopes and status mapping only.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"resident-manager/internal/registration/models"
	"resident-manager/internal/registration/service"
)

// RegistrationService is the slice of the registration service the handlers
// need.
type RegistrationService interface {
	Create(ctx context.Context, in service.CreateInput) (*service.CreateResult, error)
	Query(ctx context.Context, f models.Filter, offset int, orderBy models.OrderBy, ascending bool) ([]*models.RegistrationRequest, error)
	Count(ctx context.Context, f models.Filter) (int, error)
	Accept(ctx context.Context, ids []uint64) error
	Reject(ctx context.Context, ids []uint64) error
}

// Header names for the registration credential. The password travels in a
// header, not the body, mirroring the admin surface.
const (
	HeaderUsername = "X-Username"
	HeaderPassword = "X-Password"
)

type Handler struct {
	svc    RegistrationService
	logger *slog.Logger
}

func New(svc RegistrationService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the public intake route.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
}

// RegisterAdmin mounts the admin queue routes; the caller wraps them with
// credential verification.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/registration-requests", h.handleQuery)
	r.Get("/registration-requests/count", h.handleCount)
	r.Post("/registration-requests/accept", h.handleAccept)
	r.Post("/registration-requests/reject", h.handleReject)
	r.Get("/residents/count", h.handlePendingCount)
}

type registerBody struct {
	Name     string     `json:"name"`
	Room     int        `json:"room"`
	Birthday *time.Time `json:"birthday,omitempty"`
	Phone    string     `json:"phone,omitempty"`
	Email    string     `json:"email,omitempty"`
}

// resultEnvelope is the typed-failure payload: clients branch on Code.
type resultEnvelope struct {
	Code int `json:"code"`
	Data any `json:"data"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		// An unparseable body is not a field failure; no 10x code applies.
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	res, err := h.svc.Create(r.Context(), service.CreateInput{
		Name:     body.Name,
		Room:     body.Room,
		Birthday: body.Birthday,
		Phone:    body.Phone,
		Email:    body.Email,
		Username: r.Header.Get(HeaderUsername),
		Password: r.Header.Get(HeaderPassword),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "registration intake failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if res.Code != 0 {
		writeJSON(w, http.StatusBadRequest, resultEnvelope{Code: res.Code})
		return
	}
	writeJSON(w, http.StatusOK, res.Request.Public())
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	f, offset, orderBy, ascending, ok := parseQuery(r)
	if !ok {
		// An unparseable filter value behaves like an invalid one: empty
		// result, no error.
		writeJSON(w, http.StatusOK, []models.PublicInfo{})
		return
	}

	rows, err := h.svc.Query(r.Context(), f, offset, orderBy, ascending)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "queue query failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	out := make([]models.PublicInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Public())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	f, _, _, _, ok := parseQuery(r)
	if !ok {
		writeJSON(w, http.StatusOK, 0)
		return
	}

	count, err := h.svc.Count(r.Context(), f)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "queue count failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

// handlePendingCount reports the pending-queue cardinality.
func (h *Handler) handlePendingCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Count(r.Context(), models.Filter{})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "pending count failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

type idsBody struct {
	IDs []uint64 `json:"ids"`
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	h.handleAdmission(w, r, h.svc.Accept, "accept")
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleAdmission(w, r, h.svc.Reject, "reject")
}

func (h *Handler) handleAdmission(w http.ResponseWriter, r *http.Request, op func(context.Context, []uint64) error, name string) {
	var body idsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := op(r.Context(), body.IDs); err != nil {
		h.logger.ErrorContext(r.Context(), "admission operation failed",
			"operation", name,
			"error", err,
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseQuery extracts filters and pagination. ok is false when a numeric
// parameter is unparseable, which callers treat like an invalid filter.
func parseQuery(r *http.Request) (f models.Filter, offset int, orderBy models.OrderBy, ascending bool, ok bool) {
	q := r.URL.Query()
	ascending = q.Get("ascending") != "false"
	orderBy = models.OrderBy(q.Get("order_by"))

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, 0, orderBy, ascending, false
		}
		offset = n
	}
	if v := q.Get("id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, 0, orderBy, ascending, false
		}
		f.ID = &n
	}
	if v := q.Get("room"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, 0, orderBy, ascending, false
		}
		f.Room = &n
	}
	if v := q.Get("name"); v != "" {
		f.Name = &v
	}
	if v := q.Get("username"); v != "" {
		f.Username = &v
	}
	return f, offset, orderBy, ascending, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
