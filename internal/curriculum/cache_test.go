package curriculum

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu sync.Mutex

	grades   []Grade
	units    map[string][]Unit
	lessons  map[string][]Lesson
	sections map[string][]Section
	quizzes  map[string][]Quiz

	gradesErr   error
	unitsErr    map[string]error
	lessonsErr  map[string]error
	sectionsErr map[string]error

	unitCalls int
	// when set, UnitsByGrade blocks until the channel is closed
	unitGate chan struct{}
}

func (f *stubFetcher) Grades(_ context.Context) ([]Grade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gradesErr != nil {
		return nil, f.gradesErr
	}
	return f.grades, nil
}

func (f *stubFetcher) UnitsByGrade(_ context.Context, g Grade) ([]Unit, error) {
	f.mu.Lock()
	f.unitCalls++
	gate := f.unitGate
	err := f.unitsErr[g.ID]
	units := f.units[g.ID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (f *stubFetcher) LessonsByUnit(_ context.Context, u Unit) ([]Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lessonsErr[u.ID]; err != nil {
		return nil, err
	}
	return f.lessons[u.ID], nil
}

func (f *stubFetcher) SectionsByLesson(_ context.Context, l Lesson) ([]Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sectionsErr[l.ID]; err != nil {
		return nil, err
	}
	return f.sections[l.ID], nil
}

func (f *stubFetcher) QuizzesBySection(_ context.Context, s Section) ([]Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quizzes[s.ID], nil
}

type stubWatcher struct {
	events chan struct{}
	err    error
}

func (w *stubWatcher) WatchGrades(_ context.Context) (<-chan struct{}, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.events, nil
}

func fullTreeFetcher() *stubFetcher {
	return &stubFetcher{
		grades: []Grade{{ID: "g1", Name: "Grade 1"}, {ID: "g2", Name: "Grade 2"}},
		units: map[string][]Unit{
			"g1": {{ID: "u1", GradeID: "g1", Number: 1}},
			"g2": {{ID: "u2", GradeID: "g2", Number: 1}},
		},
		lessons: map[string][]Lesson{
			"u1": {{ID: "l1", GradeID: "g1", UnitID: "u1", Title: "Lesson 1", Order: 1}},
			"u2": {{ID: "l2", GradeID: "g2", UnitID: "u2", Title: "Lesson 2", Order: 1}},
		},
		sections: map[string][]Section{
			"l1": {{ID: "s1", GradeID: "g1", UnitID: "u1", LessonID: "l1", Title: "Section 1"}},
			"l2": {{ID: "s2", GradeID: "g2", UnitID: "u2", LessonID: "l2", Title: "Section 2"}},
		},
		quizzes: map[string][]Quiz{
			"s1": {{ID: "q1", SectionID: "s1", Title: "Quiz 1", Kind: KindFillIn}},
			"s2": {{ID: "q2", SectionID: "s2", Title: "Quiz 2", Kind: KindSpelling}},
		},
	}
}

func newTestCache(f Fetcher, w Watcher, opts Options) *Cache {
	return NewCache(f, w, zerolog.New(io.Discard), opts)
}

func TestReloadPopulatesAllLevels(t *testing.T) {
	fetcher := fullTreeFetcher()
	cache := newTestCache(fetcher, &stubWatcher{}, Options{})

	cache.Reload(context.Background())

	snap := cache.Snapshot()
	assert.Len(t, snap.Grades, 2)
	assert.Len(t, snap.Units, 2)
	assert.Len(t, snap.Lessons, 2)
	assert.Len(t, snap.Sections, 2)
	assert.Len(t, snap.Quizzes, 2)
	assert.False(t, snap.Loading)
}

func TestRunReloadsOnWatchSignal(t *testing.T) {
	fetcher := fullTreeFetcher()
	watcher := &stubWatcher{events: make(chan struct{}, 1)}
	cache := newTestCache(fetcher, watcher, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cache.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(cache.Snapshot().Grades) == 2
	}, time.Second, 5*time.Millisecond)

	fetcher.mu.Lock()
	fetcher.grades = append(fetcher.grades, Grade{ID: "g3", Name: "Grade 3"})
	fetcher.mu.Unlock()
	watcher.events <- struct{}{}

	require.Eventually(t, func() bool {
		return len(cache.Snapshot().Grades) == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRefreshLessonsLeavesAncestorsUntouched(t *testing.T) {
	fetcher := fullTreeFetcher()
	cache := newTestCache(fetcher, &stubWatcher{}, Options{})
	cache.Reload(context.Background())

	fetcher.mu.Lock()
	fetcher.grades = nil // would empty grades if the refresh touched them
	fetcher.units = nil
	fetcher.lessons["u1"] = append(fetcher.lessons["u1"],
		Lesson{ID: "l3", GradeID: "g1", UnitID: "u1", Title: "Lesson 3", Order: 2})
	fetcher.mu.Unlock()

	cache.RefreshLessons(context.Background())

	snap := cache.Snapshot()
	assert.Len(t, snap.Grades, 2, "grades must not be recomputed")
	assert.Len(t, snap.Units, 2, "units must not be recomputed")
	assert.Len(t, snap.Lessons, 3)
	assert.Len(t, snap.Sections, 2, "sections cascade from lessons")
	assert.Len(t, snap.Quizzes, 2)
}

func TestRefreshQuizzesDoesNotCascadeUpward(t *testing.T) {
	fetcher := fullTreeFetcher()
	cache := newTestCache(fetcher, &stubWatcher{}, Options{})
	cache.Reload(context.Background())

	before := cache.Snapshot()

	fetcher.mu.Lock()
	fetcher.quizzes["s1"] = nil
	fetcher.mu.Unlock()

	cache.RefreshQuizzes(context.Background())

	snap := cache.Snapshot()
	assert.Equal(t, before.Sections, snap.Sections)
	assert.Len(t, snap.Quizzes, 1)
}

func TestBranchFailureContributesEmptyResult(t *testing.T) {
	fetcher := fullTreeFetcher()
	fetcher.lessonsErr = map[string]error{"u1": errors.New("store unavailable")}
	cache := newTestCache(fetcher, &stubWatcher{}, Options{})

	cache.Reload(context.Background())

	snap := cache.Snapshot()
	assert.Len(t, snap.Units, 2, "sibling levels unaffected")
	require.Len(t, snap.Lessons, 1, "failed branch contributes nothing")
	assert.Equal(t, "l2", snap.Lessons[0].ID)
	assert.Len(t, snap.Sections, 1, "descendants of the failed branch are absent")
	assert.Len(t, snap.Quizzes, 1)
}

func TestGradeEnumerationFailureClearsTree(t *testing.T) {
	fetcher := fullTreeFetcher()
	cache := newTestCache(fetcher, &stubWatcher{}, Options{})
	cache.Reload(context.Background())
	require.Len(t, cache.Snapshot().Grades, 2)

	fetcher.mu.Lock()
	fetcher.gradesErr = errors.New("store down")
	fetcher.mu.Unlock()

	cache.Reload(context.Background())

	snap := cache.Snapshot()
	assert.Empty(t, snap.Grades)
	assert.Empty(t, snap.Units)
	assert.Empty(t, snap.Lessons)
	assert.Empty(t, snap.Sections)
	assert.Empty(t, snap.Quizzes)
	assert.False(t, snap.Loading, "loading must resolve even on failure")
}

func TestCancelledFanOutLeavesLevelEmpty(t *testing.T) {
	fetcher := fullTreeFetcher()
	cache := newTestCache(fetcher, &stubWatcher{}, Options{})
	cache.Reload(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cache.RefreshSections(ctx)

	snap := cache.Snapshot()
	assert.Empty(t, snap.Sections, "the level was cleared before the aborted fan-out")
	assert.Len(t, snap.Lessons, 2, "ancestors untouched")
}

func TestStaleFanOutIsDiscarded(t *testing.T) {
	fetcher := fullTreeFetcher()
	cache := newTestCache(fetcher, &stubWatcher{}, Options{})
	cache.Reload(context.Background())

	gate := make(chan struct{})
	fetcher.mu.Lock()
	fetcher.unitGate = gate
	fetcher.mu.Unlock()

	// first refresh blocks inside the unit fan-out
	firstDone := make(chan struct{})
	go func() {
		cache.RefreshUnits(context.Background())
		close(firstDone)
	}()

	require.Eventually(t, func() bool {
		return cache.Snapshot().Loading
	}, time.Second, time.Millisecond)

	// second refresh completes with fresh data while the first is stuck
	fetcher.mu.Lock()
	fetcher.unitGate = nil
	fetcher.units = map[string][]Unit{
		"g1": {{ID: "u1-new", GradeID: "g1", Number: 1}},
		"g2": {{ID: "u2-new", GradeID: "g2", Number: 1}},
	}
	fetcher.mu.Unlock()
	cache.RefreshUnits(context.Background())

	// release the stale fan-out; its result must not overwrite the newer one
	close(gate)
	select {
	case <-firstDone:
	case <-time.After(time.Second):
		t.Fatal("blocked refresh never finished")
	}

	snap := cache.Snapshot()
	ids := []string{}
	for _, u := range snap.Units {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []string{"u1-new", "u2-new"}, ids)
	assert.False(t, snap.Loading)
}

func TestSnapshotLoadingWhileRefreshInFlight(t *testing.T) {
	fetcher := fullTreeFetcher()
	gate := make(chan struct{})
	fetcher.unitGate = gate
	cache := newTestCache(fetcher, &stubWatcher{}, Options{})
	cache.grades = fetcher.grades

	done := make(chan struct{})
	go func() {
		cache.RefreshUnits(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		return cache.Snapshot().Loading
	}, time.Second, time.Millisecond)

	close(gate)
	<-done
	assert.False(t, cache.Snapshot().Loading)
}

func TestOnUpdateFiresPerRecomputedLevel(t *testing.T) {
	fetcher := fullTreeFetcher()
	var mu sync.Mutex
	var updated []Level
	cache := newTestCache(fetcher, &stubWatcher{}, Options{
		OnUpdate: func(lvl Level) {
			mu.Lock()
			updated = append(updated, lvl)
			mu.Unlock()
		},
	})

	cache.Reload(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Level{LevelGrades, LevelUnits, LevelLessons, LevelSections, LevelQuizzes}, updated)
}

func TestRunFailsWhenWatcherFails(t *testing.T) {
	watcher := &stubWatcher{err: errors.New("subscribe failed")}
	cache := newTestCache(fullTreeFetcher(), watcher, Options{})

	err := cache.Run(context.Background())
	assert.EqualError(t, err, "subscribe failed")
}

func TestSnapshotReturnsIndependentCopies(t *testing.T) {
	fetcher := fullTreeFetcher()
	cache := newTestCache(fetcher, &stubWatcher{}, Options{})
	cache.Reload(context.Background())

	snap := cache.Snapshot()
	snap.Grades[0].Name = "mutated"

	assert.Equal(t, "Grade 1", cache.Snapshot().Grades[0].Name)
}
