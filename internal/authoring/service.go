// Package authoring implements the console's write-side operations. Every
// mutation goes straight to the document store and then bumps the matching
// cache level, per the cache's consumer contract. Grades are the exception:
// the cache observes the grade collection live, so grade writes need no
// explicit refresh.
package authoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/darasa-labs/darasa/internal/curriculum"
	"github.com/darasa-labs/darasa/internal/curriculum/source"
	"github.com/darasa-labs/darasa/internal/docstore"
	"github.com/darasa-labs/darasa/internal/quizdoc"
)

// View is the part of the curriculum cache the service depends on: reading
// the current snapshot and invalidating individual levels.
type View interface {
	Snapshot() curriculum.Snapshot
	RefreshUnits(ctx context.Context)
	RefreshLessons(ctx context.Context)
	RefreshSections(ctx context.Context)
	RefreshQuizzes(ctx context.Context)
}

type Service struct {
	store  docstore.Store
	view   View
	logger zerolog.Logger
}

func NewService(store docstore.Store, view View, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		view:   view,
		logger: logger.With().Str("component", "authoring").Logger(),
	}
}

func (s *Service) CreateGrade(ctx context.Context, name, description string) (curriculum.Grade, error) {
	grade := curriculum.Grade{ID: uuid.NewString(), Name: name, Description: description}
	if err := s.store.Set(ctx, source.GradePath(grade.ID), source.EncodeGrade(grade)); err != nil {
		return curriculum.Grade{}, fmt.Errorf("create grade: %w", err)
	}
	return grade, nil
}

func (s *Service) UpdateGrade(ctx context.Context, grade curriculum.Grade) error {
	if err := s.store.Set(ctx, source.GradePath(grade.ID), source.EncodeGrade(grade)); err != nil {
		return fmt.Errorf("update grade %s: %w", grade.ID, err)
	}
	return nil
}

func (s *Service) DeleteGrade(ctx context.Context, gradeID string) error {
	if err := s.store.Delete(ctx, source.GradePath(gradeID)); err != nil {
		return fmt.Errorf("delete grade %s: %w", gradeID, err)
	}
	return nil
}

func (s *Service) CreateUnit(ctx context.Context, gradeID string, number int) (curriculum.Unit, error) {
	unit := curriculum.Unit{ID: uuid.NewString(), GradeID: gradeID, Number: number}
	if err := s.store.Set(ctx, source.UnitPath(gradeID, unit.ID), source.EncodeUnit(unit)); err != nil {
		return curriculum.Unit{}, fmt.Errorf("create unit: %w", err)
	}
	s.view.RefreshUnits(ctx)
	return unit, nil
}

func (s *Service) DeleteUnit(ctx context.Context, gradeID, unitID string) error {
	if err := s.store.Delete(ctx, source.UnitPath(gradeID, unitID)); err != nil {
		return fmt.Errorf("delete unit %s: %w", unitID, err)
	}
	s.view.RefreshUnits(ctx)
	return nil
}

// CreateLesson assigns the lesson's order as the current max within its unit
// plus one, read from the cache snapshot.
func (s *Service) CreateLesson(ctx context.Context, gradeID, unitID, title string) (curriculum.Lesson, error) {
	order := 1
	for _, l := range s.view.Snapshot().Lessons {
		if l.UnitID == unitID && l.Order >= order {
			order = l.Order + 1
		}
	}
	lesson := curriculum.Lesson{
		ID:      uuid.NewString(),
		GradeID: gradeID,
		UnitID:  unitID,
		Title:   title,
		Order:   order,
	}
	if err := s.store.Set(ctx, source.LessonPath(gradeID, unitID, lesson.ID), source.EncodeLesson(lesson)); err != nil {
		return curriculum.Lesson{}, fmt.Errorf("create lesson: %w", err)
	}
	s.view.RefreshLessons(ctx)
	return lesson, nil
}

func (s *Service) DeleteLesson(ctx context.Context, gradeID, unitID, lessonID string) error {
	if err := s.store.Delete(ctx, source.LessonPath(gradeID, unitID, lessonID)); err != nil {
		return fmt.Errorf("delete lesson %s: %w", lessonID, err)
	}
	s.view.RefreshLessons(ctx)
	return nil
}

func (s *Service) CreateSection(ctx context.Context, gradeID, unitID, lessonID, title string) (curriculum.Section, error) {
	section := curriculum.Section{
		ID:       uuid.NewString(),
		GradeID:  gradeID,
		UnitID:   unitID,
		LessonID: lessonID,
		Title:    title,
	}
	if err := s.store.Set(ctx, source.SectionPath(gradeID, unitID, lessonID, section.ID), source.EncodeSection(section)); err != nil {
		return curriculum.Section{}, fmt.Errorf("create section: %w", err)
	}
	s.view.RefreshSections(ctx)
	return section, nil
}

func (s *Service) DeleteSection(ctx context.Context, gradeID, unitID, lessonID, sectionID string) error {
	if err := s.store.Delete(ctx, source.SectionPath(gradeID, unitID, lessonID, sectionID)); err != nil {
		return fmt.Errorf("delete section %s: %w", sectionID, err)
	}
	s.view.RefreshSections(ctx)
	return nil
}

// SaveQuiz encodes the quiz and its questions into one embedded document and
// writes it at the quiz's hierarchical path. Encoding errors (unknown
// question kinds) propagate: failing the save visibly beats writing a wrong
// shape for the learner application to choke on.
func (s *Service) SaveQuiz(ctx context.Context, quiz curriculum.Quiz, questions []curriculum.Question) (curriculum.Quiz, error) {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = uuid.NewString()
		}
		questions[i].QuizID = quiz.ID
	}

	doc, err := quizdoc.Encode(quiz, questions)
	if err != nil {
		return curriculum.Quiz{}, fmt.Errorf("save quiz: %w", err)
	}
	path := source.QuizPath(quiz.GradeID, quiz.UnitID, quiz.LessonID, quiz.SectionID, quiz.ID)
	if err := s.store.Set(ctx, path, doc); err != nil {
		return curriculum.Quiz{}, fmt.Errorf("save quiz %s: %w", quiz.ID, err)
	}
	s.view.RefreshQuizzes(ctx)
	return quiz, nil
}

// OpenQuiz loads one quiz document and normalizes it for editing, whatever
// historical shape it was written in.
func (s *Service) OpenQuiz(ctx context.Context, gradeID, unitID, lessonID, sectionID, quizID string) (curriculum.Quiz, []curriculum.Question, error) {
	doc, err := s.store.Get(ctx, source.QuizPath(gradeID, unitID, lessonID, sectionID, quizID))
	if err != nil {
		return curriculum.Quiz{}, nil, fmt.Errorf("open quiz %s: %w", quizID, err)
	}
	quiz, questions := quizdoc.Decode(doc)
	quiz.GradeID = gradeID
	quiz.UnitID = unitID
	quiz.LessonID = lessonID
	quiz.SectionID = sectionID
	return quiz, questions, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, gradeID, unitID, lessonID, sectionID, quizID string) error {
	if err := s.store.Delete(ctx, source.QuizPath(gradeID, unitID, lessonID, sectionID, quizID)); err != nil {
		return fmt.Errorf("delete quiz %s: %w", quizID, err)
	}
	s.view.RefreshQuizzes(ctx)
	return nil
}
