package quizdoc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/darasa-labs/darasa/internal/curriculum"
	"github.com/darasa-labs/darasa/internal/docstore"
)

// Encode serializes one quiz and its questions into the single embedded
// document the learner application reads. Canonical fields come first;
// authoring-only metadata (gradeId, unitId, lessonId, quizType, isPublished)
// is additive and ignored by the learner application. Questions are emitted
// in ascending authoring order.
//
// Encoding fails only for a question whose payload kind is not part of the
// union: there is no safe default serialization, and writing a wrong shape
// to the learner-facing store is worse than failing the save.
func Encode(quiz curriculum.Quiz, questions []curriculum.Question) (docstore.Document, error) {
	ordered := make([]curriculum.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	encoded := make([]any, 0, len(ordered))
	totalPoints := 0
	for _, q := range ordered {
		m, points, err := encodeQuestion(q)
		if err != nil {
			return nil, err
		}
		totalPoints += points
		encoded = append(encoded, m)
	}

	return docstore.Document{
		"id":              quiz.ID,
		"sectionId":       quiz.SectionID,
		"title":           quiz.Title,
		"type":            ExternalKind(quiz.Kind),
		"description":     quiz.Description,
		"durationMinutes": quiz.DurationMinutes,
		"totalPoints":     totalPoints,
		"questions":       encoded,

		// authoring-only, appended after the canonical shape
		"gradeId":     quiz.GradeID,
		"unitId":      quiz.UnitID,
		"lessonId":    quiz.LessonID,
		"quizType":    string(quiz.Kind),
		"isPublished": quiz.Published,
	}, nil
}

func encodeQuestion(q curriculum.Question) (map[string]any, int, error) {
	points := q.Points
	if points <= 0 {
		points = 1
	}
	m := map[string]any{
		"id":     q.ID,
		"prompt": q.Prompt,
		"points": points,
	}
	if q.Explanation != "" {
		m["hint"] = q.Explanation
	}

	switch p := q.Payload.(type) {
	case curriculum.FillInPayload:
		m["type"] = ExternalFillBlank
		answers := make([]string, 0, len(p.Blanks))
		// arrays-of-arrays are not representable in the external store, so
		// per-blank option lists become an object keyed by blank index
		options := map[string]any{}
		for i, blank := range p.Blanks {
			if a := strings.TrimSpace(blank.Answer); a != "" {
				answers = append(answers, a)
			}
			if len(blank.Options) > 0 {
				options[strconv.Itoa(i)] = blank.Options
			}
		}
		m["answers"] = answers
		if len(options) > 0 {
			m["blankOptions"] = options
		}

	case curriculum.SpellingPayload:
		m["type"] = ExternalSpelling
		answers := make([]string, 0, len(p.Answers))
		for _, a := range p.Answers {
			if a = strings.TrimSpace(a); a != "" {
				answers = append(answers, a)
			}
		}
		m["answers"] = answers

	case curriculum.MatchingPayload:
		m["type"] = ExternalMatching
		pairs := make(map[string]any, len(p.Pairs))
		for _, pair := range p.Pairs {
			// duplicate left terms overwrite; last one wins
			pairs[strings.TrimSpace(pair.Left)] = strings.TrimSpace(pair.Right)
		}
		m["pairs"] = pairs

	case curriculum.OrderWordsPayload:
		m["type"] = ExternalOrderWords
		order := p.CorrectOrder
		if len(order) == 0 {
			order = p.Words
		}
		m["order"] = order
		if p.CorrectAnswer != "" {
			m["correctAnswer"] = p.CorrectAnswer
		}
		if p.InstructionTitle != "" {
			m["instructionTitle"] = p.InstructionTitle
		}
		if len(p.AdditionalWords) > 0 {
			m["additionalWords"] = p.AdditionalWords
		}
		if p.Punctuation != "" {
			m["punctuation"] = p.Punctuation
		}

	case curriculum.CompositionPayload:
		m["type"] = ExternalComposition
		// compositions are evaluated externally; no stored answers
		m["answers"] = []string{}

	default:
		return nil, 0, fmt.Errorf("encode question %s: unsupported kind %q", q.ID, q.Kind)
	}

	return m, points, nil
}
