package engine

import (
	"context"

	"awakening-quiz-engine/internal/domain"
)

// completeLocked performs the InProgress -> Completed transition: it computes
// the final metrics, merges them into the stored progress record, and decides
// the legendary unlock. The store write is the only I/O of the whole session;
// when it fails the result is still produced, flagged unpersisted, so the
// caller can show the outcome and retry the write on its own schedule.
// Callers must hold s.mu.
func (s *Session) completeLocked(ctx context.Context) {
	s.state = StateCompleted

	res := &domain.SessionResult{
		BookID:              s.book.ID,
		ScoredQuestionCount: s.scored,
		Correct:             s.correct,
		Incorrect:           s.incorrect,
		Skipped:             s.skipped,
		Engaged:             s.engaged,
	}
	if s.scored > 0 {
		acc := float64(s.correct) / float64(s.scored)
		res.Accuracy = &acc
	}
	s.result = res

	prev, err := s.store.Get(ctx, s.book.ID)
	if err != nil {
		// Without the previous record the merge cannot be done safely (a
		// blind write could revoke a stored unlock), so the whole write is
		// skipped and flagged.
		res.PersistErr = err
		return
	}

	progress := domain.Progress{BookID: s.book.ID}
	if prev != nil {
		progress = *prev
	}
	progress.QuestionsAnswered += s.correct + s.incorrect + s.engaged
	progress.CorrectCount += s.correct
	if res.Accuracy != nil && *res.Accuracy > progress.BestAccuracy {
		progress.BestAccuracy = *res.Accuracy
	}

	if !progress.LegendaryUnlocked &&
		res.Accuracy != nil &&
		*res.Accuracy >= s.cfg.UnlockAccuracy &&
		s.scored >= s.cfg.UnlockMinScored {
		progress.LegendaryUnlocked = true
		unlockedAt := s.now()
		progress.UnlockedAt = &unlockedAt
		res.NewlyUnlocked = true
		legendary := s.book.Legendary
		res.Legendary = &legendary
	}

	if err := s.store.Put(ctx, s.book.ID, progress); err != nil {
		res.PersistErr = err
		return
	}
	res.Persisted = true
}
