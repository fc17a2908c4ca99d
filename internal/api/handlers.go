package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/echovault/internal/apperr"
	"github.com/starford/echovault/internal/syncservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *syncservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *syncservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Sync handles POST /api/sync.
//
//	@Summary		Run one sync pass
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncResponse
//	@Failure		409	{object}	SyncResponse	"a sync is already running"
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	// The run outlives a disconnecting client.
	res := h.svc.Sync(context.WithoutCancel(r.Context()))
	if res.Skipped {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Status handles GET /api/status.
//
//	@Summary		Current sync state
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		slog.Error("status failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Pending handles GET /api/pending.
//
//	@Summary		Unsynced captures on the server
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	PendingResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pending [get]
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Pending(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrNotConfigured) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("remote not configured"))
			return
		}
		slog.Error("pending failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("remote unavailable"))
		return
	}
	resp := PendingResponse{Count: p.Count}
	if p.Oldest != nil {
		s := p.Oldest.UTC().Format(time.RFC3339)
		resp.Oldest = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

// Daily handles GET /api/daily/{date}.
//
//	@Summary		Read a daily note
//	@Tags			notes
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD), 'today' or an expression like 'yesterday'"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/daily/{date} [get]
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "date")
	date, err := h.svc.ParseDate(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD, today or a relative day"))
		return
	}

	note, err := h.svc.DailyNote(r.Context(), date, false)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get daily note failed", slog.String("date", raw), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}
