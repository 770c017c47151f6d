package api

import (
	"net/http"

	"github.com/okian/toolscout/internal/domain/model"
)

// QuizHandler handles questionnaire submissions.
type QuizHandler struct {
	deps QuizDependencies
}

// NewQuizHandler creates a new quiz handler.
func NewQuizHandler(deps QuizDependencies) *QuizHandler {
	return &QuizHandler{deps: deps}
}

// HandleQuiz handles POST /quiz requests.
func (h *QuizHandler) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	const op = "api.quiz"
	var answers model.QuizAnswers
	if err := decodeJSON(w, r, &answers); err != nil {
		writeError(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Recommend(r.Context(), answers, answers.Email)
	if err != nil {
		writeError(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
