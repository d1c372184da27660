package authoring

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasa-labs/darasa/internal/curriculum"
	"github.com/darasa-labs/darasa/internal/curriculum/source"
	"github.com/darasa-labs/darasa/internal/docstore"
)

type stubView struct {
	mu       sync.Mutex
	snapshot curriculum.Snapshot

	unitRefreshes    int
	lessonRefreshes  int
	sectionRefreshes int
	quizRefreshes    int
}

func (v *stubView) Snapshot() curriculum.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot
}

func (v *stubView) RefreshUnits(context.Context) {
	v.mu.Lock()
	v.unitRefreshes++
	v.mu.Unlock()
}

func (v *stubView) RefreshLessons(context.Context) {
	v.mu.Lock()
	v.lessonRefreshes++
	v.mu.Unlock()
}

func (v *stubView) RefreshSections(context.Context) {
	v.mu.Lock()
	v.sectionRefreshes++
	v.mu.Unlock()
}

func (v *stubView) RefreshQuizzes(context.Context) {
	v.mu.Lock()
	v.quizRefreshes++
	v.mu.Unlock()
}

func newTestService(view *stubView) (*Service, *docstore.MemoryStore) {
	store := docstore.NewMemoryStore()
	return NewService(store, view, zerolog.New(io.Discard)), store
}

func TestCreateGradeWritesDocumentWithoutRefresh(t *testing.T) {
	ctx := context.Background()
	view := &stubView{}
	svc, store := newTestService(view)

	grade, err := svc.CreateGrade(ctx, "Grade 1", "First grade")
	require.NoError(t, err)
	require.NotEmpty(t, grade.ID)

	doc, err := store.Get(ctx, source.GradePath(grade.ID))
	require.NoError(t, err)
	assert.Equal(t, "Grade 1", doc.Str("name"))
	assert.Equal(t, "First grade", doc.Str("description"))

	// grades are observed live through the store subscription
	assert.Zero(t, view.unitRefreshes)
	assert.Zero(t, view.quizRefreshes)
}

func TestCreateUnitTriggersUnitRefresh(t *testing.T) {
	ctx := context.Background()
	view := &stubView{}
	svc, store := newTestService(view)

	unit, err := svc.CreateUnit(ctx, "g1", 3)
	require.NoError(t, err)
	assert.Equal(t, "g1", unit.GradeID)
	assert.Equal(t, 3, unit.Number)
	assert.Equal(t, 1, view.unitRefreshes)

	doc, err := store.Get(ctx, source.UnitPath("g1", unit.ID))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Int("number"))

	require.NoError(t, svc.DeleteUnit(ctx, "g1", unit.ID))
	assert.Equal(t, 2, view.unitRefreshes)
	_, err = store.Get(ctx, source.UnitPath("g1", unit.ID))
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestCreateLessonAssignsNextOrderWithinUnit(t *testing.T) {
	ctx := context.Background()
	view := &stubView{snapshot: curriculum.Snapshot{
		Lessons: []curriculum.Lesson{
			{ID: "l1", UnitID: "u1", Order: 1},
			{ID: "l2", UnitID: "u1", Order: 4},
			{ID: "l3", UnitID: "other", Order: 9},
		},
	}}
	svc, _ := newTestService(view)

	lesson, err := svc.CreateLesson(ctx, "g1", "u1", "New lesson")
	require.NoError(t, err)
	assert.Equal(t, 5, lesson.Order, "order is max within the unit plus one")
	assert.Equal(t, 1, view.lessonRefreshes)
}

func TestCreateLessonInEmptyUnitStartsAtOne(t *testing.T) {
	ctx := context.Background()
	view := &stubView{}
	svc, _ := newTestService(view)

	lesson, err := svc.CreateLesson(ctx, "g1", "u1", "First lesson")
	require.NoError(t, err)
	assert.Equal(t, 1, lesson.Order)
}

func TestCreateSectionTriggersSectionRefresh(t *testing.T) {
	ctx := context.Background()
	view := &stubView{}
	svc, store := newTestService(view)

	section, err := svc.CreateSection(ctx, "g1", "u1", "l1", "Reading")
	require.NoError(t, err)
	assert.Equal(t, 1, view.sectionRefreshes)

	doc, err := store.Get(ctx, source.SectionPath("g1", "u1", "l1", section.ID))
	require.NoError(t, err)
	assert.Equal(t, "Reading", doc.Str("title"))
}

func TestSaveQuizRoundTripsThroughStore(t *testing.T) {
	ctx := context.Background()
	view := &stubView{}
	svc, _ := newTestService(view)

	quiz := curriculum.Quiz{
		GradeID:   "g1",
		UnitID:    "u1",
		LessonID:  "l1",
		SectionID: "s1",
		Title:     "Spelling bee",
		Kind:      curriculum.KindSpelling,
	}
	questions := []curriculum.Question{
		{Order: 1, Kind: curriculum.KindSpelling, Prompt: "Spell the animal.",
			Payload: curriculum.SpellingPayload{Answers: []string{"giraffe"}}},
	}

	saved, err := svc.SaveQuiz(ctx, quiz, questions)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID, "missing quiz id is assigned")
	assert.Equal(t, 1, view.quizRefreshes)

	gotQuiz, gotQuestions, err := svc.OpenQuiz(ctx, "g1", "u1", "l1", "s1", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, gotQuiz.ID)
	assert.Equal(t, curriculum.KindSpelling, gotQuiz.Kind)
	assert.Equal(t, "g1", gotQuiz.GradeID)

	require.Len(t, gotQuestions, 1)
	assert.NotEmpty(t, gotQuestions[0].ID, "missing question id is assigned")
	assert.Equal(t, saved.ID, gotQuestions[0].QuizID)
	payload, ok := gotQuestions[0].Payload.(curriculum.SpellingPayload)
	require.True(t, ok)
	assert.Equal(t, []string{"giraffe"}, payload.Answers)
}

func TestSaveQuizPropagatesEncodeFailure(t *testing.T) {
	ctx := context.Background()
	view := &stubView{}
	svc, _ := newTestService(view)

	quiz := curriculum.Quiz{GradeID: "g1", UnitID: "u1", LessonID: "l1", SectionID: "s1", Kind: curriculum.KindFillIn}
	questions := []curriculum.Question{{ID: "q1", Order: 1, Kind: curriculum.Kind("crossword")}}

	_, err := svc.SaveQuiz(ctx, quiz, questions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported kind")
	assert.Zero(t, view.quizRefreshes, "failed save must not invalidate the cache")
}

func TestOpenQuizNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&stubView{})

	_, _, err := svc.OpenQuiz(ctx, "g1", "u1", "l1", "s1", "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestDeleteQuizTriggersQuizRefresh(t *testing.T) {
	ctx := context.Background()
	view := &stubView{}
	svc, _ := newTestService(view)

	saved, err := svc.SaveQuiz(ctx, curriculum.Quiz{
		GradeID: "g1", UnitID: "u1", LessonID: "l1", SectionID: "s1", Kind: curriculum.KindComposition,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteQuiz(ctx, "g1", "u1", "l1", "s1", saved.ID))
	assert.Equal(t, 2, view.quizRefreshes)

	_, _, err = svc.OpenQuiz(ctx, "g1", "u1", "l1", "s1", saved.ID)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}
