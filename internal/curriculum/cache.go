package curriculum

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level names one collection level of the hierarchy.
type Level string

const (
	LevelGrades   Level = "grades"
	LevelUnits    Level = "units"
	LevelLessons  Level = "lessons"
	LevelSections Level = "sections"
	LevelQuizzes  Level = "quizzes"
)

// Fetcher loads one level's children for a single parent record. Implemented
// over the document store; the cache never touches the store directly.
type Fetcher interface {
	Grades(ctx context.Context) ([]Grade, error)
	UnitsByGrade(ctx context.Context, grade Grade) ([]Unit, error)
	LessonsByUnit(ctx context.Context, unit Unit) ([]Lesson, error)
	SectionsByLesson(ctx context.Context, lesson Lesson) ([]Section, error)
	QuizzesBySection(ctx context.Context, section Section) ([]Quiz, error)
}

// Watcher delivers a signal whenever the grade collection changes. Signals
// carry no payload; the cache re-reads the whole grade set on each one.
type Watcher interface {
	WatchGrades(ctx context.Context) (<-chan struct{}, error)
}

// Snapshot is the cache's externally visible state: all five levels
// flattened, plus whether a recomputation is in flight. No ordering is
// promised on the flattened slices; consumers sort by their own attributes.
type Snapshot struct {
	Grades   []Grade   `json:"grades"`
	Units    []Unit    `json:"units"`
	Lessons  []Lesson  `json:"lessons"`
	Sections []Section `json:"sections"`
	Quizzes  []Quiz    `json:"quizzes"`
	Loading  bool      `json:"loading"`
}

// Options carries the cache's optional collaborators.
type Options struct {
	Metrics  *Metrics
	OnUpdate func(Level)
}

// Cache holds a lazily-cascading view of the five-level curriculum tree.
// Grades are observed live through the Watcher; every other level is
// recomputed as a fan-out over its parent level whenever that parent's
// snapshot changes or the level's own generation counter is bumped by a
// RefreshX call.
//
// Each recomputation captures the level's generation at start; a fan-out
// whose generation is no longer current when it settles is discarded, so a
// slow stale fan-out can never overwrite a newer result.
type Cache struct {
	fetcher  Fetcher
	watcher  Watcher
	logger   zerolog.Logger
	metrics  *Metrics
	onUpdate func(Level)

	mu       sync.Mutex
	grades   []Grade
	units    []Unit
	lessons  []Lesson
	sections []Section
	quizzes  []Quiz
	gen      map[Level]uint64
	inflight int
}

func NewCache(fetcher Fetcher, watcher Watcher, logger zerolog.Logger, opts Options) *Cache {
	return &Cache{
		fetcher:  fetcher,
		watcher:  watcher,
		logger:   logger.With().Str("component", "curriculum_cache").Logger(),
		metrics:  opts.Metrics,
		onUpdate: opts.OnUpdate,
		gen:      make(map[Level]uint64),
	}
}

// Snapshot returns a copy of the current state. The returned slices are the
// caller's to keep; the cache never mutates a committed slice.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Grades:   slices.Clone(c.grades),
		Units:    slices.Clone(c.units),
		Lessons:  slices.Clone(c.lessons),
		Sections: slices.Clone(c.sections),
		Quizzes:  slices.Clone(c.quizzes),
		Loading:  c.inflight > 0,
	}
}

// Run performs the initial load and then recomputes the whole tree on every
// grade-collection signal until ctx is cancelled.
func (c *Cache) Run(ctx context.Context) error {
	events, err := c.watcher.WatchGrades(ctx)
	if err != nil {
		return err
	}
	c.Reload(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			c.Reload(ctx)
		}
	}
}

// Reload re-reads grades and cascades through every dependent level.
func (c *Cache) Reload(ctx context.Context) {
	c.beginLoading()
	defer c.endLoading()
	if !c.reloadGrades(ctx) {
		return
	}
	c.cascadeFrom(ctx, LevelUnits)
}

// RefreshUnits recomputes units and everything beneath them. Grades are not
// touched; sibling levels never force each other's recomputation.
func (c *Cache) RefreshUnits(ctx context.Context) { c.refresh(ctx, LevelUnits) }

// RefreshLessons recomputes lessons, sections and quizzes.
func (c *Cache) RefreshLessons(ctx context.Context) { c.refresh(ctx, LevelLessons) }

// RefreshSections recomputes sections and quizzes.
func (c *Cache) RefreshSections(ctx context.Context) { c.refresh(ctx, LevelSections) }

// RefreshQuizzes recomputes only the quiz level.
func (c *Cache) RefreshQuizzes(ctx context.Context) { c.refresh(ctx, LevelQuizzes) }

func (c *Cache) refresh(ctx context.Context, lvl Level) {
	c.beginLoading()
	defer c.endLoading()
	c.cascadeFrom(ctx, lvl)
}

var cascadeOrder = []Level{LevelUnits, LevelLessons, LevelSections, LevelQuizzes}

// cascadeFrom recomputes lvl and every level beneath it in dependency order.
// A discarded (stale) recomputation aborts the rest of the cascade: the
// newer chain that superseded it recomputes the children itself.
func (c *Cache) cascadeFrom(ctx context.Context, lvl Level) {
	start := slices.Index(cascadeOrder, lvl)
	if start < 0 {
		return
	}
	for _, next := range cascadeOrder[start:] {
		var ok bool
		switch next {
		case LevelUnits:
			ok = recomputeLevel(ctx, c, next,
				func() []Grade { return c.grades },
				func(v []Unit) { c.units = v },
				c.fetcher.UnitsByGrade)
		case LevelLessons:
			ok = recomputeLevel(ctx, c, next,
				func() []Unit { return c.units },
				func(v []Lesson) { c.lessons = v },
				c.fetcher.LessonsByUnit)
		case LevelSections:
			ok = recomputeLevel(ctx, c, next,
				func() []Lesson { return c.lessons },
				func(v []Section) { c.sections = v },
				c.fetcher.SectionsByLesson)
		case LevelQuizzes:
			ok = recomputeLevel(ctx, c, next,
				func() []Section { return c.sections },
				func(v []Quiz) { c.quizzes = v },
				c.fetcher.QuizzesBySection)
		}
		if !ok {
			return
		}
	}
}

// reloadGrades replaces the root level. A failure here is a level
// enumeration failure: the whole tree is cleared, logged, and the loading
// flag still resolves so consumers are not stuck.
func (c *Cache) reloadGrades(ctx context.Context) bool {
	c.mu.Lock()
	c.gen[LevelGrades]++
	token := c.gen[LevelGrades]
	c.mu.Unlock()

	start := time.Now()
	grades, err := c.fetcher.Grades(ctx)

	c.mu.Lock()
	if c.gen[LevelGrades] != token {
		c.mu.Unlock()
		c.logger.Debug().Msg("discarding stale grade load")
		return false
	}
	if err != nil {
		c.grades, c.units, c.lessons, c.sections, c.quizzes = nil, nil, nil, nil, nil
		c.mu.Unlock()
		c.logger.Error().Err(err).Msg("grade enumeration failed; curriculum tree cleared")
		return false
	}
	c.grades = grades
	c.mu.Unlock()

	c.observe(LevelGrades, time.Since(start), len(grades))
	c.notifyUpdate(LevelGrades)
	return true
}

// recomputeLevel runs one level's fan-out: all child fetches issued
// concurrently, a failed parent contributing an empty branch only. The
// level's slice is cleared synchronously before fetching (stale-while-
// revalidate is deliberately not implemented), and the result is committed
// only if the generation captured at start is still current.
func recomputeLevel[P, C any](ctx context.Context, c *Cache, lvl Level, parents func() []P, assign func([]C), fetch func(context.Context, P) ([]C, error)) bool {
	c.mu.Lock()
	ps := parents()
	c.gen[lvl]++
	token := c.gen[lvl]
	assign(nil)
	c.mu.Unlock()

	start := time.Now()
	branches := make([][]C, len(ps))
	var wg sync.WaitGroup
	for i := range ps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			children, err := fetch(ctx, ps[i])
			if err != nil {
				c.logger.Warn().Err(err).Str("level", string(lvl)).Msg("branch fetch failed; contributing empty result")
				if c.metrics != nil {
					c.metrics.BranchFailures.WithLabelValues(string(lvl)).Inc()
				}
				return
			}
			branches[i] = children
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		c.logger.Error().Err(err).Str("level", string(lvl)).Msg("level fan-out aborted; level left empty")
		return false
	}

	flat := make([]C, 0)
	for _, branch := range branches {
		flat = append(flat, branch...)
	}

	c.mu.Lock()
	if c.gen[lvl] != token {
		c.mu.Unlock()
		c.logger.Debug().Str("level", string(lvl)).Msg("discarding stale fan-out result")
		return false
	}
	assign(flat)
	c.mu.Unlock()

	c.observe(lvl, time.Since(start), len(flat))
	c.notifyUpdate(lvl)
	return true
}

func (c *Cache) beginLoading() {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()
}

func (c *Cache) endLoading() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}

func (c *Cache) observe(lvl Level, elapsed time.Duration, size int) {
	if c.metrics == nil {
		return
	}
	c.metrics.RefreshDuration.WithLabelValues(string(lvl)).Observe(elapsed.Seconds())
	c.metrics.LevelSize.WithLabelValues(string(lvl)).Set(float64(size))
}

func (c *Cache) notifyUpdate(lvl Level) {
	if c.onUpdate != nil {
		c.onUpdate(lvl)
	}
}
