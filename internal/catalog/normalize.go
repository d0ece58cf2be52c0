package catalog

import (
	"encoding/json"
	"fmt"

	"awakening-quiz-engine/internal/domain"
)

// RawDataset is the content blob as authored: books keyed by book id.
type RawDataset map[string]RawBook

// RawBook mirrors the loosely-typed book records in the content source.
type RawBook struct {
	BookID         string        `json:"bookId"`
	BookTitle      string        `json:"bookTitle"`
	Icon           string        `json:"icon"`
	TotalQuestions int           `json:"totalQuestions"`
	Legendary      RawLegendary  `json:"legendary"`
	Questions      []RawQuestion `json:"questions"`
}

type RawLegendary struct {
	LegendaryID   string   `json:"legendaryId"`
	LegendaryName string   `json:"legendaryName"`
	Powers        []string `json:"powers"`
	Icon          string   `json:"icon"`
}

// RawQuestion keeps the polymorphic fields as raw JSON so normalization can
// inspect their shape. Options appear both as plain strings and as {id,text}
// objects in the source; correctAnswer appears as an index, a bool, an empty
// array, or not at all.
type RawQuestion struct {
	ID              string            `json:"id"`
	Question        string            `json:"question"`
	Options         []json.RawMessage `json:"options"`
	CorrectAnswer   json.RawMessage   `json:"correctAnswer"`
	Difficulty      string            `json:"difficulty"`
	DifficultyLevel int               `json:"difficultyLevel"`
	Explanation     string            `json:"explanation"`
	Hint            string            `json:"hint"`
	BookQuote       string            `json:"bookQuote"`
	ChapterID       string            `json:"chapterId"`
	BookID          string            `json:"bookId"`
}

// labelTiers maps the free-text difficulty taxonomy onto the 1..5 ordinal
// scale. The labels are inconsistent in the source (spanish variants, gender
// forms) so this is advisory only; the numeric difficultyLevel wins whenever
// both are present.
var labelTiers = map[string]int{
	"ninos":        1,
	"facil":        1,
	"principiante": 2,
	"media":        2,
	"intermedio":   3,
	"iniciado":     3,
	"avanzado":     4,
	"avanzada":     4,
	"experto":      5,
}

const (
	minTier     = 1
	maxTier     = 5
	defaultTier = 2
)

// tierFor derives the ordinal tier: difficultyLevel when in range, else the
// label mapping, else the principiante default the original content assumed.
func tierFor(label string, level int) int {
	if level >= minTier && level <= maxTier {
		return level
	}
	if t, ok := labelTiers[label]; ok {
		return t
	}
	return defaultTier
}

// Normalize converts one raw record into exactly one canonical variant. The
// owning book id comes from the catalog walk; a conflicting back-reference in
// the record itself is a data-integrity error. Classification order: present
// non-empty options make a choice question, a strictly boolean correctAnswer
// makes a boolean question, anything else (including the empty-array
// correctAnswer outliers) falls through to reflection.
func Normalize(raw RawQuestion, bookID string) (domain.Question, error) {
	key := domain.QuestionKey{BookID: bookID, ChapterID: raw.ChapterID, ID: raw.ID}

	if raw.BookID != "" && raw.BookID != bookID {
		return domain.Question{}, fmt.Errorf("%w: bookId back-reference %q does not match owning book %q", domain.ErrMalformedQuestion, raw.BookID, bookID)
	}

	q := domain.Question{
		Key:         key,
		Text:        raw.Question,
		Difficulty:  raw.Difficulty,
		Tier:        tierFor(raw.Difficulty, raw.DifficultyLevel),
		Explanation: raw.Explanation,
		Hint:        raw.Hint,
		BookQuote:   raw.BookQuote,
	}

	if len(raw.Options) > 0 {
		options, err := decodeOptions(raw.Options)
		if err != nil {
			return domain.Question{}, fmt.Errorf("%w: %v", domain.ErrMalformedQuestion, err)
		}
		idx, ok := decodeIndex(raw.CorrectAnswer)
		if !ok || idx < 0 || idx >= len(options) {
			return domain.Question{}, fmt.Errorf("%w: correctAnswer %s is not a valid index into %d options", domain.ErrMalformedQuestion, string(raw.CorrectAnswer), len(options))
		}
		q.Kind = domain.KindChoice
		q.Options = options
		q.CorrectIndex = idx
		return q, nil
	}

	if truth, ok := decodeBool(raw.CorrectAnswer); ok {
		q.Kind = domain.KindBoolean
		q.CorrectBool = truth
		return q, nil
	}

	q.Kind = domain.KindReflection
	return q, nil
}

// decodeOptions accepts both authored shapes: plain strings (which receive
// synthetic letter ids, as the original generator did) and {id,text} objects.
// Authored order is preserved; it is the display order.
func decodeOptions(raw []json.RawMessage) ([]domain.Option, error) {
	options := make([]domain.Option, 0, len(raw))
	for i, msg := range raw {
		var text string
		if err := json.Unmarshal(msg, &text); err == nil {
			options = append(options, domain.Option{ID: letterID(i), Text: text})
			continue
		}
		var opt domain.Option
		if err := json.Unmarshal(msg, &opt); err != nil {
			return nil, fmt.Errorf("option %d has unrecognized shape", i)
		}
		if opt.ID == "" {
			opt.ID = letterID(i)
		}
		options = append(options, opt)
	}
	return options, nil
}

func letterID(i int) string {
	return string(rune('a' + i))
}

func decodeIndex(raw json.RawMessage) (int, bool) {
	// json.Unmarshal treats a JSON null as a no-op, so it must be filtered
	// out explicitly or it would read as index 0.
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var idx int
	if err := json.Unmarshal(raw, &idx); err != nil {
		return 0, false
	}
	return idx, true
}

func decodeBool(raw json.RawMessage) (bool, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}
