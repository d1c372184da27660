// Package quizdoc converts between authoring-side quiz records and the flat
// embedded document the learner application consumes. The write path
// (Encode) is strict about question kinds; the read path (Decode) is total
// and silently repairs the legacy shapes still present in the store.
package quizdoc

import "github.com/darasa-labs/darasa/internal/curriculum"

// External vocabulary for the learner-facing document's type field.
const (
	ExternalFillBlank   = "fill_blank"
	ExternalSpelling    = "spelling"
	ExternalMatching    = "matching"
	ExternalOrderWords  = "order_words"
	ExternalComposition = "composition"
)

// ExternalKind translates an authoring kind into the external vocabulary.
// Unknown kinds fall back to fill_blank.
func ExternalKind(k curriculum.Kind) string {
	switch k {
	case curriculum.KindFillIn:
		return ExternalFillBlank
	case curriculum.KindSpelling:
		return ExternalSpelling
	case curriculum.KindMatching:
		return ExternalMatching
	case curriculum.KindOrderWords:
		return ExternalOrderWords
	case curriculum.KindComposition:
		return ExternalComposition
	}
	return ExternalFillBlank
}

// AuthoringKind translates an external type tag into the authoring
// vocabulary. Unknown strings fall back to fill-in.
func AuthoringKind(external string) curriculum.Kind {
	switch external {
	case ExternalFillBlank:
		return curriculum.KindFillIn
	case ExternalSpelling:
		return curriculum.KindSpelling
	case ExternalMatching:
		return curriculum.KindMatching
	case ExternalOrderWords:
		return curriculum.KindOrderWords
	case ExternalComposition:
		return curriculum.KindComposition
	}
	return curriculum.KindFillIn
}

// normalizeKind accepts a type tag from either vocabulary. Historical
// documents carry external tags (fill_blank, order_words) on questions that
// the authoring model spells differently.
func normalizeKind(tag string) curriculum.Kind {
	if k := curriculum.Kind(tag); k.Valid() {
		return k
	}
	return AuthoringKind(tag)
}
