// Package source feeds the curriculum cache from the document store. It
// implements the cache's Fetcher and Watcher contracts and owns the path
// layout of the curriculum hierarchy inside the store.
package source

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/darasa-labs/darasa/internal/curriculum"
	"github.com/darasa-labs/darasa/internal/docstore"
	"github.com/darasa-labs/darasa/internal/quizdoc"
)

// Source reads curriculum records level by level. Quiz documents are only
// decoded to their quiz-level metadata here; full question normalization is
// deferred until a single quiz is opened for editing.
type Source struct {
	store        docstore.Store
	logger       zerolog.Logger
	debounce     time.Duration
	fetchTimeout time.Duration
}

var (
	_ curriculum.Fetcher = (*Source)(nil)
	_ curriculum.Watcher = (*Source)(nil)
)

// Options tunes the source. WatchDebounce coalesces bursts of
// grade-collection events into a single cache reload; FetchTimeout bounds
// each per-parent store read. Zero disables either.
type Options struct {
	WatchDebounce time.Duration
	FetchTimeout  time.Duration
}

func New(store docstore.Store, logger zerolog.Logger, opts Options) *Source {
	return &Source{
		store:        store,
		logger:       logger.With().Str("component", "curriculum_source").Logger(),
		debounce:     opts.WatchDebounce,
		fetchTimeout: opts.FetchTimeout,
	}
}

// opCtx bounds a single store read. A timed-out branch surfaces as a branch
// fetch failure, not as a cancellation of the whole level.
func (s *Source) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.fetchTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.fetchTimeout)
}

func (s *Source) Grades(ctx context.Context) ([]curriculum.Grade, error) {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	docs, err := s.store.List(opCtx, GradesCollection())
	if err != nil {
		return nil, err
	}
	grades := make([]curriculum.Grade, 0, len(docs))
	for _, doc := range docs {
		if doc.Str("id") == "" {
			continue
		}
		grades = append(grades, curriculum.Grade{
			ID:          doc.Str("id"),
			Name:        doc.Str("name"),
			Description: doc.Str("description"),
		})
	}
	return grades, nil
}

func (s *Source) UnitsByGrade(ctx context.Context, grade curriculum.Grade) ([]curriculum.Unit, error) {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	docs, err := s.store.List(opCtx, UnitsCollection(grade.ID))
	if err != nil {
		return nil, err
	}
	units := make([]curriculum.Unit, 0, len(docs))
	for _, doc := range docs {
		if doc.Str("id") == "" {
			continue
		}
		units = append(units, curriculum.Unit{
			ID:      doc.Str("id"),
			GradeID: grade.ID,
			Number:  doc.Int("number"),
		})
	}
	return units, nil
}

func (s *Source) LessonsByUnit(ctx context.Context, unit curriculum.Unit) ([]curriculum.Lesson, error) {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	docs, err := s.store.List(opCtx, LessonsCollection(unit.GradeID, unit.ID))
	if err != nil {
		return nil, err
	}
	lessons := make([]curriculum.Lesson, 0, len(docs))
	for _, doc := range docs {
		if doc.Str("id") == "" {
			continue
		}
		lessons = append(lessons, curriculum.Lesson{
			ID:      doc.Str("id"),
			GradeID: unit.GradeID,
			UnitID:  unit.ID,
			Title:   doc.Str("title"),
			Order:   doc.Int("order"),
		})
	}
	return lessons, nil
}

func (s *Source) SectionsByLesson(ctx context.Context, lesson curriculum.Lesson) ([]curriculum.Section, error) {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	docs, err := s.store.List(opCtx, SectionsCollection(lesson.GradeID, lesson.UnitID, lesson.ID))
	if err != nil {
		return nil, err
	}
	sections := make([]curriculum.Section, 0, len(docs))
	for _, doc := range docs {
		if doc.Str("id") == "" {
			continue
		}
		sections = append(sections, curriculum.Section{
			ID:       doc.Str("id"),
			GradeID:  lesson.GradeID,
			UnitID:   lesson.UnitID,
			LessonID: lesson.ID,
			Title:    doc.Str("title"),
		})
	}
	return sections, nil
}

func (s *Source) QuizzesBySection(ctx context.Context, section curriculum.Section) ([]curriculum.Quiz, error) {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	docs, err := s.store.List(opCtx, QuizzesCollection(section.GradeID, section.UnitID, section.LessonID, section.ID))
	if err != nil {
		return nil, err
	}
	quizzes := make([]curriculum.Quiz, 0, len(docs))
	for _, doc := range docs {
		if doc.Str("id") == "" {
			continue
		}
		quiz := quizdoc.DecodeQuizMeta(doc)
		// ancestors are authoritative for the parent chain
		quiz.GradeID = section.GradeID
		quiz.UnitID = section.UnitID
		quiz.LessonID = section.LessonID
		quiz.SectionID = section.ID
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// WatchGrades subscribes to the grade collection and forwards a coalesced
// signal per change burst. The returned channel closes when the store
// subscription ends.
func (s *Source) WatchGrades(ctx context.Context) (<-chan struct{}, error) {
	sub, err := s.store.Subscribe(ctx, GradesCollection())
	if err != nil {
		return nil, err
	}
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Events():
				if !ok {
					return
				}
				s.drainBurst(ctx, sub)
				select {
				case out <- struct{}{}:
				default:
					// a reload signal is already pending
				}
			}
		}
	}()
	return out, nil
}

// drainBurst swallows follow-up events arriving within the debounce window
// so that a batch import triggers one reload, not one per document.
func (s *Source) drainBurst(ctx context.Context, sub docstore.Subscription) {
	if s.debounce <= 0 {
		return
	}
	timer := time.NewTimer(s.debounce)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return
		case <-ctx.Done():
			return
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		}
	}
}
