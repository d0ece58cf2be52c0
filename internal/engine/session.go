package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"awakening-quiz-engine/internal/domain"
)

// State is the session lifecycle. Completed and Abandoned are terminal.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateAbandoned  State = "abandoned"
)

// Session is one user's play-through of a book. It is ephemeral: nothing is
// persisted until the Completed transition, and an abandoned session writes
// nothing at all. The mutex makes misuse from multiple goroutines fail
// deterministically rather than corrupt counts; the intended model is still
// one caller at a time.
type Session struct {
	mu      sync.Mutex
	state   State
	book    *domain.Book
	adp     *adapter
	current *domain.Question

	correct   int
	incorrect int
	skipped   int
	engaged   int
	scored    int

	startedAt time.Time
	result    *domain.SessionResult

	store ProgressStore
	cfg   Config
	now   func() time.Time
}

func newSession(book *domain.Book, store ProgressStore, cfg Config, now func() time.Time, rnd *rand.Rand) *Session {
	return &Session{
		state: StateNotStarted,
		book:  book,
		adp:   newAdapter(book, cfg.SessionLength, cfg.AdvanceStreak, rnd),
		store: store,
		cfg:   cfg,
		now:   now,
	}
}

// start performs the NotStarted -> InProgress transition and pulls the first
// question. A book without playable questions completes on the spot.
func (s *Session) start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedAt = s.now()
	s.state = StateInProgress
	s.current = s.adp.next()
	if s.current == nil {
		s.completeLocked(ctx)
	}
}

// BookID returns the target book id.
func (s *Session) BookID() string {
	return s.book.ID
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the question awaiting an answer, nil outside InProgress.
func (s *Session) Current() *domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return nil
	}
	return s.current
}

// Result returns the final result once the session completed, nil before.
func (s *Session) Result() *domain.SessionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// StartedAt returns the session start timestamp.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// Submit records an answer for the current question and advances the
// session. A zero-value submission counts as a skip. It returns the feedback
// for the answered question and either the next question or, when the
// session just completed, the final result. Calling it in any state other
// than InProgress fails with ErrInvalidTransition.
func (s *Session) Submit(ctx context.Context, sub domain.Submission) (domain.Feedback, *domain.Question, *domain.SessionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return domain.Feedback{}, nil, nil, fmt.Errorf("%w: submit in state %s", domain.ErrInvalidTransition, s.state)
	}

	q := s.current
	fb := domain.Feedback{
		Key:         q.Key,
		Kind:        q.Kind,
		Explanation: q.Explanation,
		BookQuote:   q.BookQuote,
	}
	switch q.Kind {
	case domain.KindChoice:
		s.scored++
		fb.CorrectOptionID = q.CorrectOptionID()
		switch {
		case sub.OptionID == "":
			s.skipped++
			fb.Skipped = true
			s.adp.record(false)
		case sub.OptionID == q.CorrectOptionID():
			s.correct++
			fb.Correct = true
			s.adp.record(true)
		default:
			s.incorrect++
			s.adp.record(false)
		}
	case domain.KindBoolean:
		s.scored++
		truth := q.CorrectBool
		fb.CorrectBool = &truth
		switch {
		case sub.Truth == nil:
			s.skipped++
			fb.Skipped = true
			s.adp.record(false)
		case *sub.Truth == q.CorrectBool:
			s.correct++
			fb.Correct = true
			s.adp.record(true)
		default:
			s.incorrect++
			s.adp.record(false)
		}
	default:
		// Reflection: engagement is recorded, never correctness, and the
		// outcome does not feed tier progression.
		if sub.Answered() {
			s.engaged++
			fb.Engaged = true
		} else {
			s.skipped++
			fb.Skipped = true
		}
	}

	s.current = s.adp.next()
	if s.current != nil {
		next := *s.current
		return fb, &next, nil, nil
	}

	s.completeLocked(ctx)
	return fb, nil, s.result, nil
}

// Abandon discards the session without writing progress. Valid only in
// InProgress.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return fmt.Errorf("%w: abandon in state %s", domain.ErrInvalidTransition, s.state)
	}
	s.state = StateAbandoned
	s.current = nil
	return nil
}
