// Package handler exposes the gateway notification endpoint and the fee
// listings. The IPN endpoint always answers 200 with a gateway envelope; the
// RspCode field, not the HTTP status, tells the gateway what happened.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"resident-manager/internal/auth"
	"resident-manager/internal/payment/models"
	"resident-manager/internal/payment/vnpay"
	"resident-manager/internal/platform/metrics"
)

// PaymentService is the slice of the payment service the handlers need.
type PaymentService interface {
	Apply(ctx context.Context, ref vnpay.Ref) (models.Outcome, error)
	ListFees(ctx context.Context, offset int) ([]*models.Fee, error)
	ListFeesForRoom(ctx context.Context, room int, paid *bool, after, before time.Time, offset int) ([]*models.Fee, error)
	CountFeesForRoom(ctx context.Context, room int, paid *bool, after, before time.Time) (int, error)
}

type Handler struct {
	svc      PaymentService
	verifier *vnpay.Verifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Handler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func New(svc PaymentService, verifier *vnpay.Verifier, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{svc: svc, verifier: verifier, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterIPN mounts the gateway callback at the router root.
func (h *Handler) RegisterIPN(r chi.Router) {
	r.Get("/ipn", h.handleIPN)
}

// RegisterFees mounts the unauthenticated fee catalogue.
func (h *Handler) RegisterFees(r chi.Router) {
	r.Get("/fees", h.handleListFees)
}

// RegisterResidentFees mounts the per-room fee views; the caller wraps them
// with the bearer middleware.
func (h *Handler) RegisterResidentFees(r chi.Router) {
	r.Get("/fees", h.handleResidentFees)
	r.Get("/fees/count", h.handleResidentFeeCount)
}

// ipnResponse is the envelope the gateway expects back.
type ipnResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

var (
	ipnOK           = ipnResponse{RspCode: "00", Message: "Confirm success"}
	ipnDuplicate    = ipnResponse{RspCode: "02", Message: "Data has been updated already"}
	ipnBadSignature = ipnResponse{RspCode: "97", Message: "Invalid signature"}
	ipnBadRequest   = ipnResponse{RspCode: "99", Message: "Missing required fields"}
	ipnBadRef       = ipnResponse{RspCode: "99", Message: "Invalid transaction reference"}
	ipnFailure      = ipnResponse{RspCode: "99", Message: "Unknown error"}
)

func (h *Handler) handleIPN(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	notification, verdict := h.verifier.Verify(params)
	switch verdict {
	case vnpay.VerdictMissingFields:
		writeJSON(w, http.StatusOK, ipnBadRequest)
		return
	case vnpay.VerdictInvalidSignature:
		if h.metrics != nil {
			h.metrics.IPNSignatureFailures.Inc()
		}
		h.logger.WarnContext(r.Context(), "notification signature rejected")
		writeJSON(w, http.StatusOK, ipnBadSignature)
		return
	}

	// A failed or cancelled payment is still acknowledged so the gateway
	// stops retrying; nothing is credited.
	if !vnpay.SuccessResponseCode(notification.ResponseCode) {
		h.logger.InfoContext(r.Context(), "notification acknowledged without settlement",
			"response_code", notification.ResponseCode,
		)
		writeJSON(w, http.StatusOK, ipnOK)
		return
	}

	ref, err := vnpay.ParseRef(notification.TxnRef)
	if err != nil {
		h.logger.WarnContext(r.Context(), "notification carries malformed reference", "error", err)
		writeJSON(w, http.StatusOK, ipnBadRef)
		return
	}

	outcome, err := h.svc.Apply(r.Context(), ref)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "settlement failed", "error", err)
		writeJSON(w, http.StatusOK, ipnFailure)
		return
	}
	if outcome == models.AlreadyApplied {
		writeJSON(w, http.StatusOK, ipnDuplicate)
		return
	}
	writeJSON(w, http.StatusOK, ipnOK)
}

func (h *Handler) handleListFees(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusOK, []models.Fee{})
			return
		}
		offset = n
	}

	fees, err := h.svc.ListFees(r.Context(), offset)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "fee listing failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeFees(w, fees)
}

func (h *Handler) handleResidentFees(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	if claims == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	paid, after, before, offset, ok := parseFeeQuery(r)
	if !ok {
		writeJSON(w, http.StatusOK, []models.Fee{})
		return
	}

	fees, err := h.svc.ListFeesForRoom(r.Context(), claims.Room, paid, after, before, offset)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "resident fee listing failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeFees(w, fees)
}

func (h *Handler) handleResidentFeeCount(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFrom(r.Context())
	if claims == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	paid, after, before, _, ok := parseFeeQuery(r)
	if !ok {
		writeJSON(w, http.StatusOK, 0)
		return
	}

	count, err := h.svc.CountFeesForRoom(r.Context(), claims.Room, paid, after, before)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "resident fee count failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

// parseFeeQuery extracts the paid flag, date window and offset. The window
// defaults to all time. ok is false on an unparseable value.
func parseFeeQuery(r *http.Request) (paid *bool, after, before time.Time, offset int, ok bool) {
	q := r.URL.Query()
	before = time.Now().AddDate(100, 0, 0)

	if v := q.Get("paid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, after, before, 0, false
		}
		paid = &b
	}
	if v := q.Get("created_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, after, before, 0, false
		}
		after = t
	}
	if v := q.Get("created_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, after, before, 0, false
		}
		before = t
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, after, before, 0, false
		}
		offset = n
	}
	return paid, after, before, offset, true
}

func writeFees(w http.ResponseWriter, fees []*models.Fee) {
	out := make([]models.Fee, 0, len(fees))
	for _, f := range fees {
		out = append(out, *f)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
