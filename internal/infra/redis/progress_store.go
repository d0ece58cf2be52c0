package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"awakening-quiz-engine/internal/domain"
)

// ProgressStore keeps per-book progress in a Redis hash per book:
// HSET progress:{bookID} answered/correct/best/unlocked/unlockedAt.
// Records are permanent; no TTL is set.
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) Get(ctx context.Context, bookID string) (*domain.Progress, error) {
	fields, err := s.client.HGetAll(ctx, s.key(bookID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get progress: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	progress := &domain.Progress{BookID: bookID}
	progress.QuestionsAnswered, _ = strconv.Atoi(fields["answered"])
	progress.CorrectCount, _ = strconv.Atoi(fields["correct"])
	progress.BestAccuracy, _ = strconv.ParseFloat(fields["best"], 64)
	progress.LegendaryUnlocked = fields["unlocked"] == "1"
	if raw := fields["unlockedAt"]; raw != "" {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
			t := time.Unix(unix, 0).UTC()
			progress.UnlockedAt = &t
		}
	}
	return progress, nil
}

func (s *ProgressStore) Put(ctx context.Context, bookID string, progress domain.Progress) error {
	unlocked := "0"
	if progress.LegendaryUnlocked {
		unlocked = "1"
	}
	unlockedAt := ""
	if progress.UnlockedAt != nil {
		unlockedAt = strconv.FormatInt(progress.UnlockedAt.Unix(), 10)
	}

	err := s.client.HSet(ctx, s.key(bookID),
		"answered", progress.QuestionsAnswered,
		"correct", progress.CorrectCount,
		"best", strconv.FormatFloat(progress.BestAccuracy, 'f', -1, 64),
		"unlocked", unlocked,
		"unlockedAt", unlockedAt,
	).Err()
	if err != nil {
		return fmt.Errorf("redis put progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) key(bookID string) string {
	return "progress:" + bookID
}
