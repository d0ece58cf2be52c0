package catalog

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"awakening-quiz-engine/internal/domain"
)

func TestLoadToleratesDeclaredCountMismatch(t *testing.T) {
	// The author declared 21 questions but only three parse; load must not
	// fail and all logic uses the actual count.
	cat, err := Load(sampleDataset())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	book, err := cat.Book("codigo-despertar")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if len(book.Questions) != 3 {
		t.Fatalf("expected 3 parsed questions, got %d", len(book.Questions))
	}

	report := cat.Report()["codigo-despertar"]
	if !report.CountMismatch() {
		t.Fatalf("expected count mismatch in report, got %+v", report)
	}
	if report.DeclaredCount != 21 || report.ActualCount != 3 {
		t.Fatalf("expected declared 21 actual 3, got %+v", report)
	}
}

func TestLoadQuarantinesMalformedQuestions(t *testing.T) {
	dataset := sampleDataset()
	book := dataset["codigo-despertar"]
	book.Questions = append(book.Questions, RawQuestion{
		ID:            "broken",
		ChapterID:     "cap1",
		Options:       rawOptions(`"a"`, `"b"`),
		CorrectAnswer: json.RawMessage(`9`),
	})
	dataset["codigo-despertar"] = book

	cat, err := Load(dataset)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	report := cat.Report()["codigo-despertar"]
	if len(report.Malformed) != 1 || report.Malformed[0].Key.ID != "broken" {
		t.Fatalf("expected broken question quarantined, got %+v", report.Malformed)
	}

	loaded, _ := cat.Book("codigo-despertar")
	for _, q := range loaded.Questions {
		if q.Key.ID == "broken" {
			t.Fatalf("malformed question leaked into playable set")
		}
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	first, err := Load(sampleDataset())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := Load(sampleDataset())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if !reflect.DeepEqual(first.Report(), second.Report()) {
		t.Fatalf("reports differ between loads")
	}
	b1, _ := first.Book("codigo-despertar")
	b2, _ := second.Book("codigo-despertar")
	if !reflect.DeepEqual(b1, b2) {
		t.Fatalf("books differ between loads")
	}
}

func TestLookupErrors(t *testing.T) {
	cat, err := Load(sampleDataset())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := cat.Book("no-such-book"); !errors.Is(err, domain.ErrUnknownBook) {
		t.Fatalf("expected unknown book, got %v", err)
	}
	if _, err := cat.Questions("codigo-despertar", "no-such-chapter"); !errors.Is(err, domain.ErrUnknownChapter) {
		t.Fatalf("expected unknown chapter, got %v", err)
	}
}

func TestQuestionsByChapter(t *testing.T) {
	cat, err := Load(sampleDataset())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	questions, err := cat.Questions("codigo-despertar", "cap2")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 1 || questions[0].Key.ChapterID != "cap2" {
		t.Fatalf("expected 1 question from cap2, got %+v", questions)
	}

	all, err := cat.Questions("codigo-despertar", "")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all 3 questions, got %d", len(all))
	}
}

func TestDuplicateIDsAcrossChaptersAreLegal(t *testing.T) {
	// The same bare id appears in cap1 and cap2; the composite key keeps
	// them distinct so neither is quarantined.
	cat, err := Load(sampleDataset())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	report := cat.Report()["codigo-despertar"]
	if len(report.Malformed) != 0 {
		t.Fatalf("expected no quarantined questions, got %+v", report.Malformed)
	}
}

// sampleDataset mirrors the real content shape: a book whose declared total
// disagrees with the parsed count, duplicate bare ids across chapters, and
// all three question variants.
func sampleDataset() RawDataset {
	return RawDataset{
		"codigo-despertar": {
			BookTitle:      "El Código del Despertar",
			Icon:           "🌅",
			TotalQuestions: 21,
			Legendary: RawLegendary{
				LegendaryID:   "el_observador",
				LegendaryName: "El Observador",
				Powers:        []string{"Visión del Despertar", "Colapso de Posibilidades"},
				Icon:          "👁️",
			},
			Questions: []RawQuestion{
				{
					ID:              "q1",
					ChapterID:       "cap1",
					Question:        "¿Qué observa el observador?",
					Options:         rawOptions(`{"id":"a","text":"Nada"}`, `{"id":"b","text":"Todo"}`),
					CorrectAnswer:   json.RawMessage(`1`),
					Difficulty:      "principiante",
					DifficultyLevel: 2,
				},
				{
					ID:              "q1",
					ChapterID:       "cap2",
					Question:        "La conciencia es un proceso.",
					CorrectAnswer:   json.RawMessage(`true`),
					Difficulty:      "iniciado",
					DifficultyLevel: 3,
				},
				{
					ID:         "q2",
					ChapterID:  "cap1",
					Question:   "¿Qué significa despertar para ti?",
					Difficulty: "ninos",
				},
			},
		},
	}
}
