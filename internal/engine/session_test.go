package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"awakening-quiz-engine/internal/catalog"
	"awakening-quiz-engine/internal/domain"
	"awakening-quiz-engine/internal/engine"
	"awakening-quiz-engine/internal/infra/memory"
)

func TestUnlockAtThreshold(t *testing.T) {
	// 3 correct out of 4 scored questions: accuracy 0.75 over the 0.7
	// threshold with the sample floor met, so the first completion unlocks
	// the legendary being.
	store := memory.NewProgressStore()
	eng := newTestEngine(t, store, choiceBook("codigo-despertar", 4))

	result := playSession(t, eng, "codigo-despertar", []bool{true, true, true, false})

	if result.ScoredQuestionCount != 4 {
		t.Fatalf("expected 4 scored questions, got %d", result.ScoredQuestionCount)
	}
	if result.Accuracy == nil || *result.Accuracy != 0.75 {
		t.Fatalf("expected accuracy 0.75, got %v", result.Accuracy)
	}
	if !result.NewlyUnlocked {
		t.Fatalf("expected legendary unlock, got %+v", result)
	}
	if result.Legendary == nil || result.Legendary.ID != "el_observador" {
		t.Fatalf("expected el_observador in result, got %+v", result.Legendary)
	}
	if !result.Persisted {
		t.Fatalf("expected progress persisted")
	}

	progress, err := store.Get(context.Background(), "codigo-despertar")
	if err != nil || progress == nil {
		t.Fatalf("expected stored progress, got %v %v", progress, err)
	}
	if !progress.LegendaryUnlocked || progress.UnlockedAt == nil {
		t.Fatalf("expected unlock recorded, got %+v", progress)
	}
	if progress.BestAccuracy != 0.75 || progress.CorrectCount != 3 {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestNoUnlockBelowSampleFloor(t *testing.T) {
	// A perfect session of only 3 scored questions stays below the minimum
	// sample floor of 4 and must not unlock.
	store := memory.NewProgressStore()
	eng := newTestEngine(t, store, choiceBook("codigo-despertar", 3))

	result := playSession(t, eng, "codigo-despertar", []bool{true, true, true})

	if result.Accuracy == nil || *result.Accuracy != 1.0 {
		t.Fatalf("expected perfect accuracy, got %v", result.Accuracy)
	}
	if result.NewlyUnlocked {
		t.Fatalf("unlock granted below the sample floor")
	}

	progress, _ := store.Get(context.Background(), "codigo-despertar")
	if progress == nil || progress.LegendaryUnlocked {
		t.Fatalf("expected progress without unlock, got %+v", progress)
	}
}

func TestUnlockIsPermanent(t *testing.T) {
	store := memory.NewProgressStore()
	eng := newTestEngine(t, store, choiceBook("codigo-despertar", 4))

	first := playSession(t, eng, "codigo-despertar", []bool{true, true, true, true})
	if !first.NewlyUnlocked {
		t.Fatalf("expected first session to unlock")
	}

	// A later, much worse session never revokes the unlock and never
	// reports it as newly unlocked again.
	second := playSession(t, eng, "codigo-despertar", []bool{false, false, false, false})
	if second.NewlyUnlocked {
		t.Fatalf("unlock reported twice")
	}

	progress, _ := store.Get(context.Background(), "codigo-despertar")
	if !progress.LegendaryUnlocked {
		t.Fatalf("unlock revoked by a worse session")
	}
	if progress.BestAccuracy != 1.0 {
		t.Fatalf("best accuracy regressed to %v", progress.BestAccuracy)
	}
}

func TestReflectionOnlySessionHasNoAccuracy(t *testing.T) {
	dataset := catalog.RawDataset{
		"nacimiento": {
			BookTitle:      "Nacimiento",
			TotalQuestions: 2,
			Legendary:      catalog.RawLegendary{LegendaryID: "el_primigenio"},
			Questions: []catalog.RawQuestion{
				{ID: "r1", ChapterID: "cap1", Question: "¿Quién eres?"},
				{ID: "r2", ChapterID: "cap1", Question: "¿Qué quieres ser?"},
			},
		},
	}
	store := memory.NewProgressStore()
	eng := newTestEngine(t, store, dataset)

	session, err := eng.Start(context.Background(), "nacimiento")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	var result *domain.SessionResult
	for session.Current() != nil {
		_, _, res, err := session.Submit(context.Background(), domain.Submission{Text: "una reflexión"})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		result = res
	}

	if result == nil {
		t.Fatalf("expected completed session")
	}
	if result.ScoredQuestionCount != 0 {
		t.Fatalf("reflections leaked into scored count: %d", result.ScoredQuestionCount)
	}
	if result.Accuracy != nil {
		t.Fatalf("expected nil accuracy, got %v", *result.Accuracy)
	}
	if result.Engaged != 2 {
		t.Fatalf("expected 2 engaged reflections, got %d", result.Engaged)
	}
	if result.NewlyUnlocked {
		t.Fatalf("reflection-only session must not unlock")
	}
}

func TestSubmitAfterAbandonFails(t *testing.T) {
	store := memory.NewProgressStore()
	eng := newTestEngine(t, store, choiceBook("codigo-despertar", 4))

	session, err := eng.Start(context.Background(), "codigo-despertar")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.Abandon(); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	if _, _, _, err := session.Submit(context.Background(), domain.Submission{OptionID: "a"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if err := session.Abandon(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on double abandon, got %v", err)
	}

	// Abandoned sessions write nothing.
	progress, _ := store.Get(context.Background(), "codigo-despertar")
	if progress != nil {
		t.Fatalf("abandoned session persisted progress: %+v", progress)
	}
}

func TestSubmitAfterCompletionFails(t *testing.T) {
	store := memory.NewProgressStore()
	eng := newTestEngine(t, store, choiceBook("codigo-despertar", 2))

	session, err := eng.Start(context.Background(), "codigo-despertar")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for session.Current() != nil {
		if _, _, _, err := session.Submit(context.Background(), domain.Submission{OptionID: "a"}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	if _, _, _, err := session.Submit(context.Background(), domain.Submission{OptionID: "a"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition after completion, got %v", err)
	}
}

func TestStartUnknownBook(t *testing.T) {
	eng := newTestEngine(t, memory.NewProgressStore(), choiceBook("codigo-despertar", 2))
	if _, err := eng.Start(context.Background(), "no-such-book"); !errors.Is(err, domain.ErrUnknownBook) {
		t.Fatalf("expected unknown book, got %v", err)
	}
}

func TestPersistenceFailureStillReturnsResult(t *testing.T) {
	store := &failingStore{}
	eng := newTestEngine(t, store, choiceBook("codigo-despertar", 4))

	result := playSession(t, eng, "codigo-despertar", []bool{true, true, true, true})

	if result.Persisted {
		t.Fatalf("expected unpersisted result")
	}
	if result.PersistErr == nil {
		t.Fatalf("expected persistence error attached")
	}
	if result.Accuracy == nil || *result.Accuracy != 1.0 {
		t.Fatalf("in-memory result corrupted by store failure: %+v", result)
	}
}

func TestSkippedQuestionsCountAgainstAccuracy(t *testing.T) {
	store := memory.NewProgressStore()
	eng := newTestEngine(t, store, choiceBook("codigo-despertar", 4))

	session, err := eng.Start(context.Background(), "codigo-despertar")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	var result *domain.SessionResult
	answered := 0
	for session.Current() != nil {
		sub := domain.Submission{}
		if answered < 2 {
			sub.OptionID = session.Current().CorrectOptionID()
		}
		answered++
		_, _, res, err := session.Submit(context.Background(), sub)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		result = res
	}

	if result.Correct != 2 || result.Skipped != 2 {
		t.Fatalf("expected 2 correct 2 skipped, got %+v", result)
	}
	if result.ScoredQuestionCount != 4 {
		t.Fatalf("skips must stay in the denominator, got %d", result.ScoredQuestionCount)
	}
	if result.Accuracy == nil || *result.Accuracy != 0.5 {
		t.Fatalf("expected accuracy 0.5, got %v", result.Accuracy)
	}
}

// playSession answers every scored question per the outcomes slice (true =
// answer correctly) and returns the final result.
func playSession(t *testing.T, eng *engine.Engine, bookID string, outcomes []bool) *domain.SessionResult {
	t.Helper()
	session, err := eng.Start(context.Background(), bookID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	i := 0
	for {
		q := session.Current()
		if q == nil {
			break
		}
		if i >= len(outcomes) {
			t.Fatalf("more questions than planned outcomes")
		}
		sub := domain.Submission{OptionID: "b"}
		if outcomes[i] {
			sub.OptionID = q.CorrectOptionID()
		}
		i++
		if _, _, _, err := session.Submit(context.Background(), sub); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	result := session.Result()
	if result == nil {
		t.Fatalf("session did not complete")
	}
	return result
}

func newTestEngine(t *testing.T, store engine.ProgressStore, dataset catalog.RawDataset) *engine.Engine {
	t.Helper()
	cat, err := catalog.Load(dataset)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	now := func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return engine.NewWithClock(cat, store, engine.Config{}, now, 42)
}

// choiceBook builds a dataset with n choice questions whose correct option
// is always "a".
func choiceBook(bookID string, n int) catalog.RawDataset {
	questions := make([]catalog.RawQuestion, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, catalog.RawQuestion{
			ID:              fmt.Sprintf("q%d", i+1),
			ChapterID:       "cap1",
			Question:        fmt.Sprintf("Pregunta %d", i+1),
			Options:         []json.RawMessage{json.RawMessage(`"correcta"`), json.RawMessage(`"incorrecta"`)},
			CorrectAnswer:   json.RawMessage(`0`),
			Difficulty:      "principiante",
			DifficultyLevel: 2,
		})
	}
	return catalog.RawDataset{
		bookID: {
			BookTitle:      "El Código del Despertar",
			TotalQuestions: n,
			Legendary: catalog.RawLegendary{
				LegendaryID:   "el_observador",
				LegendaryName: "El Observador",
				Powers:        []string{"Visión del Despertar"},
			},
			Questions: questions,
		},
	}
}

type failingStore struct{}

func (s *failingStore) Get(context.Context, string) (*domain.Progress, error) {
	return nil, nil
}

func (s *failingStore) Put(context.Context, string, domain.Progress) error {
	return errors.New("store unavailable")
}
