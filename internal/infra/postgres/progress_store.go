package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"awakening-quiz-engine/internal/domain"
)

// progressRow is the bun model for the progress table.
type progressRow struct {
	bun.BaseModel `bun:"table:progress"`

	BookID            string     `bun:"book_id,pk"`
	QuestionsAnswered int        `bun:"questions_answered"`
	CorrectCount      int        `bun:"correct_count"`
	BestAccuracy      float64    `bun:"best_accuracy"`
	LegendaryUnlocked bool       `bun:"legendary_unlocked"`
	UnlockedAt        *time.Time `bun:"unlocked_at"`
}

// ProgressStore persists per-book progress in Postgres via bun.
type ProgressStore struct {
	db *bun.DB
}

func NewProgressStore(db *bun.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func (s *ProgressStore) Get(ctx context.Context, bookID string) (*domain.Progress, error) {
	row := new(progressRow)
	err := s.db.NewSelect().Model(row).Where("book_id = ?", bookID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get progress: %w", err)
	}
	return &domain.Progress{
		BookID:            row.BookID,
		QuestionsAnswered: row.QuestionsAnswered,
		CorrectCount:      row.CorrectCount,
		BestAccuracy:      row.BestAccuracy,
		LegendaryUnlocked: row.LegendaryUnlocked,
		UnlockedAt:        row.UnlockedAt,
	}, nil
}

func (s *ProgressStore) Put(ctx context.Context, bookID string, progress domain.Progress) error {
	row := &progressRow{
		BookID:            bookID,
		QuestionsAnswered: progress.QuestionsAnswered,
		CorrectCount:      progress.CorrectCount,
		BestAccuracy:      progress.BestAccuracy,
		LegendaryUnlocked: progress.LegendaryUnlocked,
		UnlockedAt:        progress.UnlockedAt,
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (book_id) DO UPDATE").
		Set("questions_answered = EXCLUDED.questions_answered").
		Set("correct_count = EXCLUDED.correct_count").
		Set("best_accuracy = EXCLUDED.best_accuracy").
		Set("legendary_unlocked = EXCLUDED.legendary_unlocked").
		Set("unlocked_at = EXCLUDED.unlocked_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("postgres put progress: %w", err)
	}
	return nil
}
