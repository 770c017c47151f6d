package api

import (
	"net/http"
	"strings"

	"github.com/okian/toolscout/internal/domain/model"
)

// RelatedHandler handles related-content lookups.
type RelatedHandler struct {
	deps RelatedDependencies
}

// NewRelatedHandler creates a new related handler.
func NewRelatedHandler(deps RelatedDependencies) *RelatedHandler {
	return &RelatedHandler{deps: deps}
}

type relatedResponse struct {
	Slug    string              `json:"slug"`
	Related []model.RelatedPost `json:"related"`
}

// HandleRelated handles GET /related/{slug} requests.
func (h *RelatedHandler) HandleRelated(w http.ResponseWriter, r *http.Request) {
	const op = "api.related"
	slug := strings.TrimSpace(r.PathValue("slug"))
	if slug == "" {
		writeError(r.Context(), w, NewKind(op, ErrBadRequest))
		return
	}
	posts, err := h.deps.Related(r.Context(), slug)
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, relatedResponse{Slug: slug, Related: posts})
}
