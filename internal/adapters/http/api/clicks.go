package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/toolscout/internal/domain/types"
)

// ClicksHandler handles click ingestion and the click dashboard.
type ClicksHandler struct {
	deps ClickDependencies
}

// NewClicksHandler creates a new clicks handler.
func NewClicksHandler(deps ClickDependencies) *ClicksHandler {
	return &ClicksHandler{deps: deps}
}

// clickRequest is the body of POST /clicks. event_id and occurred_at are
// optional; the server fills them in.
type clickRequest struct {
	EventID    string `json:"event_id"`
	EntityID   string `json:"entity_id"`
	OccurredAt string `json:"occurred_at"`
}

func (c clickRequest) validate() (time.Time, error) {
	if strings.TrimSpace(c.EntityID) == "" {
		return time.Time{}, errors.New("missing entity_id")
	}
	if strings.TrimSpace(c.OccurredAt) == "" {
		return time.Time{}, nil
	}
	at, err := time.Parse(time.RFC3339, c.OccurredAt)
	if err != nil {
		return time.Time{}, errors.New("invalid occurred_at; must be RFC3339")
	}
	return at, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostClick handles POST /clicks requests.
func (h *ClicksHandler) HandlePostClick(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_click"
	var req clickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	at, err := req.validate()
	if err != nil {
		writeError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.RecordClick(r.Context(), strings.TrimSpace(req.EventID), strings.TrimSpace(req.EntityID), at)
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	if ack.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", EventID: ack.EventID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventID: ack.EventID})
}

// HandleStats handles GET /clicks/stats?range= requests.
func (h *ClicksHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.click_stats"
	rng, err := types.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	report, err := h.deps.ClickStats(r.Context(), rng)
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGlobal handles GET /clicks/global requests.
func (h *ClicksHandler) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	counts, err := h.deps.GlobalClicks(r.Context())
	if err != nil {
		writeError(r.Context(), w, Wrap("api.click_global", err))
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
