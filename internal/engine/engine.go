package engine

import (
	"context"
	"math/rand"
	"time"

	"awakening-quiz-engine/internal/catalog"
	"awakening-quiz-engine/internal/domain"
)

// ProgressStore persists per-book progress. Implementations live under
// internal/infra; the engine only consumes this interface. Get returns
// (nil, nil) when no record exists yet.
type ProgressStore interface {
	Get(ctx context.Context, bookID string) (*domain.Progress, error)
	Put(ctx context.Context, bookID string, progress domain.Progress) error
}

// Config tunes session behavior. Zero values fall back to defaults.
type Config struct {
	SessionLength   int     // questions per session, default 5
	AdvanceStreak   int     // consecutive correct answers to climb a tier, default 2
	UnlockAccuracy  float64 // minimum accuracy to unlock the legendary being, default 0.7
	UnlockMinScored int     // minimum scored questions before an unlock counts, default 4
}

func (c Config) withDefaults() Config {
	if c.SessionLength <= 0 {
		c.SessionLength = 5
	}
	if c.AdvanceStreak <= 0 {
		c.AdvanceStreak = 2
	}
	if c.UnlockAccuracy <= 0 {
		c.UnlockAccuracy = 0.7
	}
	if c.UnlockMinScored <= 0 {
		c.UnlockMinScored = 4
	}
	return c
}

// Engine is the public surface consumed by a host UI layer: it starts
// sessions against the loaded catalog and finalizes them into the progress
// store.
type Engine struct {
	catalog *catalog.Catalog
	store   ProgressStore
	cfg     Config
	now     func() time.Time
	seed    func() int64
}

func New(cat *catalog.Catalog, store ProgressStore, cfg Config) *Engine {
	return &Engine{
		catalog: cat,
		store:   store,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		seed:    func() int64 { return time.Now().UnixNano() },
	}
}

// NewWithClock is test-only: it pins timestamps and the question shuffle.
func NewWithClock(cat *catalog.Catalog, store ProgressStore, cfg Config, now func() time.Time, seed int64) *Engine {
	e := New(cat, store, cfg)
	e.now = now
	e.seed = func() int64 { return seed }
	return e
}

// Catalog exposes the read-only catalog handle for listing books.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Start creates a session for a book and serves its first question. It fails
// with ErrUnknownBook for an invalid id. A book with no playable questions
// yields a session that is already completed with an empty result.
func (e *Engine) Start(ctx context.Context, bookID string) (*Session, error) {
	book, err := e.catalog.Book(bookID)
	if err != nil {
		return nil, err
	}
	rnd := rand.New(rand.NewSource(e.seed()))
	s := newSession(book, e.store, e.cfg, e.now, rnd)
	s.start(ctx)
	return s, nil
}

// Progress reads the stored record for a book, nil if none exists.
func (e *Engine) Progress(ctx context.Context, bookID string) (*domain.Progress, error) {
	if _, err := e.catalog.Book(bookID); err != nil {
		return nil, err
	}
	return e.store.Get(ctx, bookID)
}
