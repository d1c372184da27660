package quizdoc

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/darasa-labs/darasa/internal/curriculum"
	"github.com/darasa-labs/darasa/internal/docstore"
)

// DecodeQuizMeta recovers the quiz-level record from a stored document
// without touching the embedded questions. The curriculum cache uses this
// during its bulk fan-out; full question normalization only happens when a
// single quiz is opened for editing.
func DecodeQuizMeta(doc docstore.Document) curriculum.Quiz {
	return curriculum.Quiz{
		ID:              doc.Str("id"),
		GradeID:         doc.Str("gradeId"),
		UnitID:          doc.Str("unitId"),
		LessonID:        doc.Str("lessonId"),
		SectionID:       doc.Str("sectionId"),
		Title:           doc.Str("title"),
		Description:     doc.Str("description"),
		DurationMinutes: doc.Int("durationMinutes"),
		Kind:            quizKind(doc),
		Published:       doc.Bool("isPublished"),
	}
}

// Decode recovers an authoring-side quiz plus its questions from a stored
// document. The document may be in the canonical shape or in any of the
// historical shapes still present in the store; decoding never fails, it
// degrades to best-effort defaults. The source document is not mutated.
func Decode(doc docstore.Document) (curriculum.Quiz, []curriculum.Question) {
	quiz := DecodeQuizMeta(doc)

	raw := doc.Slice("questions")
	questions := make([]curriculum.Question, 0, len(raw))
	for _, item := range raw {
		q, ok := asDocument(item)
		if !ok {
			continue
		}
		questions = append(questions, decodeQuestion(quiz.ID, len(questions), q))
	}
	return quiz, questions
}

// quizKind prefers the authoring quizType field, then derives from the
// external type tag, then defaults to fill-in.
func quizKind(doc docstore.Document) curriculum.Kind {
	if k := curriculum.Kind(doc.Str("quizType")); k.Valid() {
		return k
	}
	if t := doc.Str("type"); t != "" {
		return AuthoringKind(t)
	}
	return curriculum.KindFillIn
}

func decodeQuestion(quizID string, index int, q docstore.Document) curriculum.Question {
	kind := normalizeKind(q.Str("type"))
	question := curriculum.Question{
		ID:          q.Str("id"),
		QuizID:      quizID,
		Order:       index + 1,
		Kind:        kind,
		Points:      q.Int("points"),
		Prompt:      q.Str("prompt"),
		Explanation: q.Str("hint"),
	}

	switch kind {
	case curriculum.KindFillIn:
		question.Payload = decodeFillIn(q)
	case curriculum.KindSpelling:
		question.Payload = decodeSpelling(q)
	case curriculum.KindMatching:
		question.Payload = decodeMatching(q)
	case curriculum.KindOrderWords:
		question.Payload = decodeOrderWords(q)
	case curriculum.KindComposition:
		question.Payload = curriculum.CompositionPayload{}
	}
	return question
}

func decodeFillIn(q docstore.Document) curriculum.FillInPayload {
	if raw := q.Slice("blanks"); len(raw) > 0 {
		blanks := make([]curriculum.Blank, 0, len(raw))
		for _, item := range raw {
			b, ok := asDocument(item)
			if !ok {
				continue
			}
			blanks = append(blanks, curriculum.Blank{
				ID:      b.Str("id"),
				Answer:  b.Str("answer"),
				Options: b.StringSlice("options"),
			})
		}
		return curriculum.FillInPayload{Blanks: blanks}
	}

	// legacy flat shape: one blank per answer, options keyed by blank index
	answers := q.StringSlice("answers")
	options := q.Map("blankOptions")
	blanks := make([]curriculum.Blank, 0, len(answers))
	for i, answer := range answers {
		blank := curriculum.Blank{
			ID:     fmt.Sprintf("blank_%d", i),
			Answer: answer,
		}
		if options != nil {
			blank.Options = anyStrings(options[strconv.Itoa(i)])
		}
		blanks = append(blanks, blank)
	}
	return curriculum.FillInPayload{Blanks: blanks}
}

func decodeSpelling(q docstore.Document) curriculum.SpellingPayload {
	answers := q.StringSlice("answers")
	if len(answers) == 0 {
		// legacy singular field
		if a := q.Str("answer"); a != "" {
			answers = []string{a}
		}
	}
	return curriculum.SpellingPayload{Answers: answers}
}

func decodeMatching(q docstore.Document) curriculum.MatchingPayload {
	switch v := q["pairs"].(type) {
	case []any:
		pairs := make([]curriculum.Pair, 0, len(v))
		for _, item := range v {
			p, ok := asDocument(item)
			if !ok {
				continue
			}
			pair := curriculum.Pair{
				ID:    p.Str("id"),
				Left:  p.Str("left"),
				Right: p.Str("right"),
			}
			if pair.ID == "" {
				pair.ID = pair.Left
			}
			pairs = append(pairs, pair)
		}
		return curriculum.MatchingPayload{Pairs: pairs}
	case map[string]any:
		// canonical stored shape: plain left -> right map; the left term
		// doubles as the pair id
		lefts := make([]string, 0, len(v))
		for left := range v {
			lefts = append(lefts, left)
		}
		sort.Strings(lefts)
		pairs := make([]curriculum.Pair, 0, len(lefts))
		for _, left := range lefts {
			right, _ := v[left].(string)
			pairs = append(pairs, curriculum.Pair{ID: left, Left: left, Right: right})
		}
		return curriculum.MatchingPayload{Pairs: pairs}
	}
	return curriculum.MatchingPayload{}
}

func decodeOrderWords(q docstore.Document) curriculum.OrderWordsPayload {
	order := q.StringSlice("order")
	if len(order) == 0 {
		order = q.StringSlice("words")
	}
	return curriculum.OrderWordsPayload{
		Words:            order,
		CorrectOrder:     order,
		AdditionalWords:  q.StringSlice("additionalWords"),
		CorrectAnswer:    q.Str("correctAnswer"),
		InstructionTitle: q.Str("instructionTitle"),
		Punctuation:      q.Str("punctuation"),
	}
}

func asDocument(v any) (docstore.Document, bool) {
	switch m := v.(type) {
	case docstore.Document:
		return m, true
	case map[string]any:
		return docstore.Document(m), true
	}
	return nil, false
}

func anyStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
