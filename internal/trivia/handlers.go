package trivia

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/logging"
	httperrors "github.com/gokatarajesh/trivia-api/pkg/http/errors"
)

const maxBodyBytes = 1 << 20

// HTTPHandlers exposes the trivia REST endpoints.
type HTTPHandlers struct {
	svc    *Service
	pages  PageParser
	logger zerolog.Logger
}

// NewHTTPHandlers creates handlers backed by svc.
func NewHTTPHandlers(svc *Service, pages PageParser, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		pages:  pages,
		logger: logger.With().Str("component", "trivia_http").Logger(),
	}
}

type categoriesResponse struct {
	Success    bool        `json:"success"`
	Categories CategoryMap `json:"categories"`
	Total      int         `json:"total"`
}

type questionsResponse struct {
	Success         bool        `json:"success"`
	Questions       []Question  `json:"questions"`
	TotalQuestions  int         `json:"total_questions"`
	CurrentCategory *string     `json:"current_category"`
	Categories      CategoryMap `json:"categories"`
}

type categoryQuestionsResponse struct {
	Success         bool       `json:"success"`
	Questions       []Question `json:"questions"`
	TotalQuestions  int        `json:"total_questions"`
	CurrentCategory string     `json:"current_category"`
}

type createdResponse struct {
	Success bool `json:"success"`
	Created int  `json:"created"`
}

type deletedResponse struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}

type quizResponse struct {
	Success  bool      `json:"success"`
	Question *Question `json:"question"`
}

// Categories handles GET /categories
func (h *HTTPHandlers) Categories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, categoriesResponse{
		Success:    true,
		Categories: newCategoryMap(categories),
		Total:      len(categories),
	})
}

// Questions handles GET /questions (paginated list) and POST /questions
// (search when the body has searchTerm, create otherwise).
func (h *HTTPHandlers) Questions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listQuestions(w, r)
	case http.MethodPost:
		h.postQuestions(w, r)
	default:
		httperrors.RespondMethodNotAllowed(w, "GET, POST")
	}
}

func (h *HTTPHandlers) listQuestions(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.ListQuestions(r.Context(), h.pages.Parse(r.URL.Query()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, questionsResponse{
		Success:        true,
		Questions:      listing.Questions,
		TotalQuestions: listing.Total,
		Categories:     listing.Categories,
	})
}

func (h *HTTPHandlers) postQuestions(w http.ResponseWriter, r *http.Request) {
	var body questionsPost
	if err := h.decode(w, r, &body); err != nil {
		h.requestLogger(r).Debug().Err(err).Msg("invalid questions payload")
		httperrors.RespondBadRequest(w)
		return
	}

	term, isSearch, err := body.searchTerm()
	if isSearch {
		if err != nil {
			h.requestLogger(r).Debug().Err(err).Msg("invalid search payload")
			httperrors.RespondBadRequest(w)
			return
		}
		h.searchQuestions(w, r, term)
		return
	}

	params, err := body.newQuestion()
	if err != nil {
		h.requestLogger(r).Debug().Err(err).Msg("invalid question payload")
		httperrors.RespondBadRequest(w)
		return
	}

	created, err := h.svc.CreateQuestion(r.Context(), params)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.requestLogger(r).Info().Int("question_id", created.ID).Int("category", created.Category).Msg("question created")
	h.respondJSON(w, http.StatusOK, createdResponse{Success: true, Created: created.ID})
}

func (h *HTTPHandlers) searchQuestions(w http.ResponseWriter, r *http.Request, term string) {
	listing, err := h.svc.SearchQuestions(r.Context(), term, h.pages.Parse(r.URL.Query()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, questionsResponse{
		Success:        true,
		Questions:      listing.Questions,
		TotalQuestions: listing.Total,
		Categories:     listing.Categories,
	})
}

// DeleteQuestion handles DELETE /questions/{id}
func (h *HTTPHandlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		httperrors.RespondMethodNotAllowed(w, http.MethodDelete)
		return
	}

	id, ok := pathInt(r, "id")
	if !ok {
		httperrors.RespondNotFound(w)
		return
	}

	if err := h.svc.DeleteQuestion(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.requestLogger(r).Info().Int("question_id", id).Msg("question deleted")
	h.respondJSON(w, http.StatusOK, deletedResponse{Success: true, Deleted: id})
}

// QuestionsByCategory handles GET /categories/{category_id}/questions
func (h *HTTPHandlers) QuestionsByCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	categoryID, ok := pathInt(r, "category_id")
	if !ok {
		httperrors.RespondNotFound(w)
		return
	}

	listing, err := h.svc.QuestionsByCategory(r.Context(), categoryID, h.pages.Parse(r.URL.Query()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, categoryQuestionsResponse{
		Success:         true,
		Questions:       listing.Questions,
		TotalQuestions:  listing.Total,
		CurrentCategory: listing.CurrentCategory.Type,
	})
}

// PlayQuiz handles POST /quizzes
func (h *HTTPHandlers) PlayQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req quizRequest
	if err := h.decode(w, r, &req); err != nil {
		h.requestLogger(r).Debug().Err(err).Msg("invalid quiz payload")
		httperrors.RespondBadRequest(w)
		return
	}

	previous, err := req.previous()
	if err != nil {
		h.requestLogger(r).Debug().Err(err).Msg("invalid previous_questions")
		httperrors.RespondUnprocessable(w)
		return
	}
	categoryID, err := req.category()
	if err != nil {
		h.requestLogger(r).Debug().Err(err).Msg("invalid quiz_category")
		httperrors.RespondUnprocessable(w)
		return
	}

	question, err := h.svc.NextQuizQuestion(r.Context(), previous, categoryID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, quizResponse{Success: true, Question: question})
}

// NotFound answers unknown routes with the error envelope.
func (h *HTTPHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	httperrors.RespondNotFound(w)
}

func (h *HTTPHandlers) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return nil
}

// respondServiceError logs the underlying cause and writes the envelope for
// its classification. Causes never reach the client.
func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(KindOf(err))
	event := h.requestLogger(r).Warn()
	if status >= http.StatusInternalServerError {
		event = h.requestLogger(r).Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")
	httperrors.RespondError(w, status)
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind Kind) int {
	switch kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPHandlers) requestLogger(r *http.Request) *zerolog.Logger {
	if logger, ok := logging.Lookup(r.Context()); ok {
		l := logger.With().Str("component", "trivia_http").Logger()
		return &l
	}
	return &h.logger
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func pathInt(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, false
	}
	return id, true
}
