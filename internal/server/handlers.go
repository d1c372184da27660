package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/darasa-labs/darasa/internal/authoring"
	"github.com/darasa-labs/darasa/internal/curriculum"
	"github.com/darasa-labs/darasa/internal/docstore"
	httperrors "github.com/darasa-labs/darasa/pkg/http/errors"
)

// Handlers carries the API's dependencies.
type Handlers struct {
	svc    *authoring.Service
	view   authoring.View
	logger zerolog.Logger
}

func NewHandlers(svc *authoring.Service, view authoring.View, logger zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, view: view, logger: logger}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GetCurriculum returns the cache's current snapshot.
func (h *Handlers) GetCurriculum(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.view.Snapshot())
}

// RefreshLevel forces recomputation of one non-root cache level (and,
// transitively, everything beneath it).
func (h *Handlers) RefreshLevel(w http.ResponseWriter, r *http.Request) {
	level := r.PathValue("level")
	switch curriculum.Level(level) {
	case curriculum.LevelUnits:
		h.view.RefreshUnits(r.Context())
	case curriculum.LevelLessons:
		h.view.RefreshLessons(r.Context())
	case curriculum.LevelSections:
		h.view.RefreshSections(r.Context())
	case curriculum.LevelQuizzes:
		h.view.RefreshQuizzes(r.Context())
	default:
		httperrors.RespondBadRequest(w, httperrors.ErrCodeUnknownLevel, fmt.Sprintf("unknown cache level %q", level))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"refreshed": level})
}

type gradeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handlers) CreateGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeBadRequest, "name is required")
		return
	}
	grade, err := h.svc.CreateGrade(r.Context(), req.Name, req.Description)
	if err != nil {
		h.logger.Error().Err(err).Msg("create grade failed")
		httperrors.RespondInternalError(w, "failed to create grade")
		return
	}
	respondJSON(w, http.StatusCreated, grade)
}

func (h *Handlers) UpdateGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeBadRequest, "invalid body")
		return
	}
	grade := curriculum.Grade{ID: r.PathValue("gradeID"), Name: req.Name, Description: req.Description}
	if err := h.svc.UpdateGrade(r.Context(), grade); err != nil {
		h.logger.Error().Err(err).Msg("update grade failed")
		httperrors.RespondInternalError(w, "failed to update grade")
		return
	}
	respondJSON(w, http.StatusOK, grade)
}

func (h *Handlers) DeleteGrade(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGrade(r.Context(), r.PathValue("gradeID")); err != nil {
		h.logger.Error().Err(err).Msg("delete grade failed")
		httperrors.RespondInternalError(w, "failed to delete grade")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Number int `json:"number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeBadRequest, "invalid body")
		return
	}
	unit, err := h.svc.CreateUnit(r.Context(), r.PathValue("gradeID"), req.Number)
	if err != nil {
		h.logger.Error().Err(err).Msg("create unit failed")
		httperrors.RespondInternalError(w, "failed to create unit")
		return
	}
	respondJSON(w, http.StatusCreated, unit)
}

func (h *Handlers) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUnit(r.Context(), r.PathValue("gradeID"), r.PathValue("unitID")); err != nil {
		h.logger.Error().Err(err).Msg("delete unit failed")
		httperrors.RespondInternalError(w, "failed to delete unit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeBadRequest, "title is required")
		return
	}
	lesson, err := h.svc.CreateLesson(r.Context(), r.PathValue("gradeID"), r.PathValue("unitID"), req.Title)
	if err != nil {
		h.logger.Error().Err(err).Msg("create lesson failed")
		httperrors.RespondInternalError(w, "failed to create lesson")
		return
	}
	respondJSON(w, http.StatusCreated, lesson)
}

func (h *Handlers) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteLesson(r.Context(), r.PathValue("gradeID"), r.PathValue("unitID"), r.PathValue("lessonID"))
	if err != nil {
		h.logger.Error().Err(err).Msg("delete lesson failed")
		httperrors.RespondInternalError(w, "failed to delete lesson")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeBadRequest, "title is required")
		return
	}
	section, err := h.svc.CreateSection(r.Context(),
		r.PathValue("gradeID"), r.PathValue("unitID"), r.PathValue("lessonID"), req.Title)
	if err != nil {
		h.logger.Error().Err(err).Msg("create section failed")
		httperrors.RespondInternalError(w, "failed to create section")
		return
	}
	respondJSON(w, http.StatusCreated, section)
}

func (h *Handlers) DeleteSection(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteSection(r.Context(),
		r.PathValue("gradeID"), r.PathValue("unitID"), r.PathValue("lessonID"), r.PathValue("sectionID"))
	if err != nil {
		h.logger.Error().Err(err).Msg("delete section failed")
		httperrors.RespondInternalError(w, "failed to delete section")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// saveQuizRequest is the authoring form's wire shape. Questions arrive with
// flat per-kind fields; toDomain folds them into the typed payload union.
type saveQuizRequest struct {
	ID              string            `json:"id"`
	GradeID         string            `json:"gradeId"`
	UnitID          string            `json:"unitId"`
	LessonID        string            `json:"lessonId"`
	SectionID       string            `json:"sectionId"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	DurationMinutes int               `json:"durationMinutes"`
	QuizType        string            `json:"quizType"`
	IsPublished     bool              `json:"isPublished"`
	Questions       []questionRequest `json:"questions"`
}

type questionRequest struct {
	ID          string `json:"id"`
	Order       int    `json:"order"`
	Type        string `json:"type"`
	Points      int    `json:"points"`
	Prompt      string `json:"prompt"`
	Explanation string `json:"explanation"`

	Blanks           []curriculum.Blank `json:"blanks,omitempty"`
	Answers          []string           `json:"answers,omitempty"`
	Pairs            []curriculum.Pair  `json:"pairs,omitempty"`
	Words            []string           `json:"words,omitempty"`
	CorrectOrder     []string           `json:"correctOrder,omitempty"`
	AdditionalWords  []string           `json:"additionalWords,omitempty"`
	CorrectAnswer    string             `json:"correctAnswer,omitempty"`
	InstructionTitle string             `json:"instructionTitle,omitempty"`
	Punctuation      string             `json:"punctuation,omitempty"`
}

func (q questionRequest) toDomain() (curriculum.Question, error) {
	kind := curriculum.Kind(q.Type)
	question := curriculum.Question{
		ID:          q.ID,
		Order:       q.Order,
		Kind:        kind,
		Points:      q.Points,
		Prompt:      q.Prompt,
		Explanation: q.Explanation,
	}
	switch kind {
	case curriculum.KindFillIn:
		question.Payload = curriculum.FillInPayload{Blanks: q.Blanks}
	case curriculum.KindSpelling:
		question.Payload = curriculum.SpellingPayload{Answers: q.Answers}
	case curriculum.KindMatching:
		question.Payload = curriculum.MatchingPayload{Pairs: q.Pairs}
	case curriculum.KindOrderWords:
		question.Payload = curriculum.OrderWordsPayload{
			Words:            q.Words,
			CorrectOrder:     q.CorrectOrder,
			AdditionalWords:  q.AdditionalWords,
			CorrectAnswer:    q.CorrectAnswer,
			InstructionTitle: q.InstructionTitle,
			Punctuation:      q.Punctuation,
		}
	case curriculum.KindComposition:
		question.Payload = curriculum.CompositionPayload{}
	default:
		return curriculum.Question{}, fmt.Errorf("unknown question type %q", q.Type)
	}
	return question, nil
}

// SaveQuiz encodes and persists one quiz document, then invalidates the quiz
// cache level.
func (h *Handlers) SaveQuiz(w http.ResponseWriter, r *http.Request) {
	var req saveQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeBadRequest, "invalid body")
		return
	}
	if req.GradeID == "" || req.UnitID == "" || req.LessonID == "" || req.SectionID == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeBadRequest, "full parent path is required")
		return
	}

	quiz := curriculum.Quiz{
		ID:              req.ID,
		GradeID:         req.GradeID,
		UnitID:          req.UnitID,
		LessonID:        req.LessonID,
		SectionID:       req.SectionID,
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Kind:            curriculum.Kind(req.QuizType),
		Published:       req.IsPublished,
	}
	questions := make([]curriculum.Question, 0, len(req.Questions))
	for _, qr := range req.Questions {
		q, err := qr.toDomain()
		if err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeEncodeFailed, err.Error())
			return
		}
		questions = append(questions, q)
	}

	saved, err := h.svc.SaveQuiz(r.Context(), quiz, questions)
	if err != nil {
		h.logger.Error().Err(err).Msg("save quiz failed")
		httperrors.RespondError(w, http.StatusUnprocessableEntity, httperrors.ErrCodeEncodeFailed, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// OpenQuiz loads and normalizes one quiz document for editing.
func (h *Handlers) OpenQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, questions, err := h.svc.OpenQuiz(r.Context(),
		r.PathValue("gradeID"), r.PathValue("unitID"), r.PathValue("lessonID"),
		r.PathValue("sectionID"), r.PathValue("quizID"))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "quiz not found")
			return
		}
		h.logger.Error().Err(err).Msg("open quiz failed")
		httperrors.RespondInternalError(w, "failed to open quiz")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"quiz": quiz, "questions": questions})
}

func (h *Handlers) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteQuiz(r.Context(),
		r.PathValue("gradeID"), r.PathValue("unitID"), r.PathValue("lessonID"),
		r.PathValue("sectionID"), r.PathValue("quizID"))
	if err != nil {
		h.logger.Error().Err(err).Msg("delete quiz failed")
		httperrors.RespondInternalError(w, "failed to delete quiz")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
