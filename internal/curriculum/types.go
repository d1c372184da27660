package curriculum

// Kind is the authoring vocabulary for quiz and question types. The external
// learner-facing vocabulary lives in the quizdoc package; the two must only
// ever be translated through that package's mapper.
type Kind string

const (
	KindFillIn      Kind = "fill-in"
	KindSpelling    Kind = "spelling"
	KindMatching    Kind = "matching"
	KindOrderWords  Kind = "order-words"
	KindComposition Kind = "composition"
)

// Kinds lists every canonical authoring kind.
var Kinds = []Kind{KindFillIn, KindSpelling, KindMatching, KindOrderWords, KindComposition}

// Valid reports whether k is one of the canonical authoring kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFillIn, KindSpelling, KindMatching, KindOrderWords, KindComposition:
		return true
	}
	return false
}

// Grade is the root of the curriculum hierarchy.
type Grade struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Unit belongs to a grade and carries a sequence number.
type Unit struct {
	ID      string `json:"id"`
	GradeID string `json:"gradeId"`
	Number  int    `json:"number"`
}

// Lesson belongs to a unit. Order is assigned by the authoring layer as the
// current max within the unit plus one; it is unique-ish, not enforced.
type Lesson struct {
	ID      string `json:"id"`
	GradeID string `json:"gradeId"`
	UnitID  string `json:"unitId"`
	Title   string `json:"title"`
	Order   int    `json:"order"`
}

// Section belongs to a lesson.
type Section struct {
	ID       string `json:"id"`
	GradeID  string `json:"gradeId"`
	UnitID   string `json:"unitId"`
	LessonID string `json:"lessonId"`
	Title    string `json:"title"`
}

// Quiz is the authoring-side view of a quiz document. Questions are stored
// embedded in the quiz document, never as separate records.
type Quiz struct {
	ID              string `json:"id"`
	GradeID         string `json:"gradeId"`
	UnitID          string `json:"unitId"`
	LessonID        string `json:"lessonId"`
	SectionID       string `json:"sectionId"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes"`
	Kind            Kind   `json:"quizType"`
	Published       bool   `json:"isPublished"`
}

// Question is one embedded quiz question. Order is 1-based and dense per
// quiz. Points of zero means "unset"; the write path defaults it to one.
type Question struct {
	ID          string  `json:"id"`
	QuizID      string  `json:"quizId"`
	Order       int     `json:"order"`
	Published   bool    `json:"isPublished"`
	Kind        Kind    `json:"type"`
	Points      int     `json:"points"`
	Prompt      string  `json:"prompt"`
	Explanation string  `json:"explanation,omitempty"`
	Payload     Payload `json:"payload"`
}

// Payload is the per-kind question body. It is a sealed union: exactly one
// concrete payload type exists per Kind, and encoding switches over them
// exhaustively.
type Payload interface {
	Kind() Kind
}

// Blank is a single fill-in gap with its accepted answer and optional
// per-blank answer choices.
type Blank struct {
	ID      string   `json:"id"`
	Answer  string   `json:"answer"`
	Options []string `json:"options,omitempty"`
}

type FillInPayload struct {
	Blanks []Blank `json:"blanks"`
}

func (FillInPayload) Kind() Kind { return KindFillIn }

type SpellingPayload struct {
	Answers []string `json:"answers"`
}

func (SpellingPayload) Kind() Kind { return KindSpelling }

// Pair is one left/right matching couple.
type Pair struct {
	ID    string `json:"id"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

type MatchingPayload struct {
	Pairs []Pair `json:"pairs"`
}

func (MatchingPayload) Kind() Kind { return KindMatching }

type OrderWordsPayload struct {
	Words            []string `json:"words"`
	CorrectOrder     []string `json:"correctOrder,omitempty"`
	AdditionalWords  []string `json:"additionalWords,omitempty"`
	CorrectAnswer    string   `json:"correctAnswer,omitempty"`
	InstructionTitle string   `json:"instructionTitle,omitempty"`
	Punctuation      string   `json:"punctuation,omitempty"`
}

func (OrderWordsPayload) Kind() Kind { return KindOrderWords }

// CompositionPayload has no stored answer material; compositions are
// evaluated outside the platform.
type CompositionPayload struct{}

func (CompositionPayload) Kind() Kind { return KindComposition }
