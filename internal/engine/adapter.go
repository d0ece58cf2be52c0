package engine

import (
	"math/rand"
	"sort"

	"awakening-quiz-engine/internal/domain"
)

// adapter selects and orders a session's questions. Scored questions are
// grouped by tier and served adaptively: the session opens at the book's
// lowest tier, climbs one tier after a streak of consecutive correct
// answers, and drops back one tier (never below the minimum) on a wrong
// answer. Reflection prompts cannot gate progression, so they sit outside
// the adaptive pool and are served at the end, within the session budget.
// Questions are popped from their tier group as they are served, so no
// composite key is ever returned twice in one session.
type adapter struct {
	byTier      map[int][]domain.Question
	tiers       []int
	tierIdx     int
	run         int
	streak      int
	budget      int
	reflections []domain.Question
}

func newAdapter(book *domain.Book, length, streak int, rnd *rand.Rand) *adapter {
	a := &adapter{
		byTier: make(map[int][]domain.Question),
		streak: streak,
		budget: length,
	}
	for _, q := range book.Questions {
		if !q.Scored() {
			a.reflections = append(a.reflections, q)
			continue
		}
		a.byTier[q.Tier] = append(a.byTier[q.Tier], q)
	}
	for tier, qs := range a.byTier {
		rnd.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
		a.tiers = append(a.tiers, tier)
	}
	sort.Ints(a.tiers)
	return a
}

// next returns the next question to ask, or nil when the session budget or
// the book is exhausted. Running out of questions before the budget is spent
// simply ends the session early.
func (a *adapter) next() *domain.Question {
	if a.budget == 0 {
		return nil
	}
	if q := a.takeScored(); q != nil {
		a.budget--
		return q
	}
	if len(a.reflections) > 0 {
		q := a.reflections[0]
		a.reflections = a.reflections[1:]
		a.budget--
		return &q
	}
	return nil
}

// takeScored pops a question from the current tier, or from the nearest tier
// that still has unseen questions (preferring harder over easier when the
// current tier runs dry).
func (a *adapter) takeScored() *domain.Question {
	if len(a.tiers) == 0 {
		return nil
	}
	if q := a.pop(a.tierIdx); q != nil {
		return q
	}
	for i := a.tierIdx + 1; i < len(a.tiers); i++ {
		if q := a.pop(i); q != nil {
			a.tierIdx = i
			return q
		}
	}
	for i := a.tierIdx - 1; i >= 0; i-- {
		if q := a.pop(i); q != nil {
			a.tierIdx = i
			return q
		}
	}
	return nil
}

func (a *adapter) pop(idx int) *domain.Question {
	tier := a.tiers[idx]
	qs := a.byTier[tier]
	if len(qs) == 0 {
		return nil
	}
	q := qs[0]
	a.byTier[tier] = qs[1:]
	return &q
}

// record feeds a scored outcome into tier progression.
func (a *adapter) record(correct bool) {
	if correct {
		a.run++
		if a.run >= a.streak {
			a.run = 0
			if a.tierIdx < len(a.tiers)-1 {
				a.tierIdx++
			}
		}
		return
	}
	a.run = 0
	if a.tierIdx > 0 {
		a.tierIdx--
	}
}
