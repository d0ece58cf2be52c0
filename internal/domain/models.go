package domain

import "time"

// LegendaryBeing is the reward tied one-to-one to a book. Powers are
// display-only strings in their authored order.
type LegendaryBeing struct {
	ID     string   `json:"legendaryId"`
	Name   string   `json:"legendaryName"`
	Powers []string `json:"powers"`
	Icon   string   `json:"icon"`
}

// Book is an immutable, validated collection of questions plus its reward
// metadata. DeclaredTotal is the author-declared question count; it is kept
// for diagnostics only and all logic uses len(Questions).
type Book struct {
	ID            string         `json:"bookId"`
	Title         string         `json:"bookTitle"`
	Icon          string         `json:"icon"`
	DeclaredTotal int            `json:"declaredTotalQuestions"`
	Legendary     LegendaryBeing `json:"legendary"`
	Questions     []Question     `json:"questions"`
}

// Progress is the per-user, per-book record owned by the progress store.
// Counters are cumulative across sessions; LegendaryUnlocked is permanent
// once set.
type Progress struct {
	BookID            string     `json:"bookId"`
	QuestionsAnswered int        `json:"questionsAnswered"`
	CorrectCount      int        `json:"correctCount"`
	BestAccuracy      float64    `json:"bestAccuracy"`
	LegendaryUnlocked bool       `json:"legendaryUnlocked"`
	UnlockedAt        *time.Time `json:"unlockedAt,omitempty"`
}

// SessionResult is what a completed session reports back to the caller.
// Accuracy is nil when the session contained no scored questions. Persisted
// is false when the progress store write failed; the in-memory result is
// still valid and PersistErr holds the store error for retry.
type SessionResult struct {
	BookID              string          `json:"bookId"`
	Accuracy            *float64        `json:"accuracy"`
	ScoredQuestionCount int             `json:"scoredQuestionCount"`
	Correct             int             `json:"correct"`
	Incorrect           int             `json:"incorrect"`
	Skipped             int             `json:"skipped"`
	Engaged             int             `json:"engaged"`
	NewlyUnlocked       bool            `json:"newlyUnlocked"`
	Legendary           *LegendaryBeing `json:"legendaryBeing,omitempty"`
	Persisted           bool            `json:"persisted"`
	PersistErr          error           `json:"-"`
}
