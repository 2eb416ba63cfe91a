package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
)

const noticeKeyPrefix = "dokan_notice:"

// NoticeRepository stores each notice under its own key with a TTL matching
// its lifetime, so Redis drops expired notices without a sweeper.
type NoticeRepository struct {
	client *redis.Client
}

func NewNoticeRepository(client *redis.Client) *NoticeRepository {
	return &NoticeRepository{client: client}
}

func (r *NoticeRepository) key(sessionID, noticeID string) string {
	return noticeKeyPrefix + sessionID + ":" + noticeID
}

// Create stores the notice with a TTL equal to its remaining lifetime.
func (r *NoticeRepository) Create(ctx context.Context, notice *domain.Notice) error {
	lifetime := notice.ExpiresAt.Sub(notice.CreatedAt)
	if lifetime <= 0 {
		return apperrors.InvalidInput("notice expiry must be after creation time")
	}

	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshaling notice: %w", err)
	}

	if err := r.client.Set(ctx, r.key(notice.SessionID, notice.ID), data, lifetime).Err(); err != nil {
		return fmt.Errorf("saving notice to redis: %w", err)
	}
	return nil
}

// ListActive returns the session's unexpired notices, oldest first.
func (r *NoticeRepository) ListActive(ctx context.Context, sessionID string) ([]domain.Notice, error) {
	pattern := noticeKeyPrefix + sessionID + ":*"

	notices := []domain.Notice{}
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Expired between the scan and the read.
				continue
			}
			return nil, fmt.Errorf("reading notice: %w", err)
		}

		var n domain.Notice
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("unmarshaling notice: %w", err)
		}
		notices = append(notices, n)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning notices: %w", err)
	}

	sort.Slice(notices, func(i, j int) bool {
		return notices[i].CreatedAt.Before(notices[j].CreatedAt)
	})
	return notices, nil
}

// Dismiss removes a notice before its expiry. Returns apperrors.NotFound if
// the notice is unknown or already expired.
func (r *NoticeRepository) Dismiss(ctx context.Context, sessionID, noticeID string) error {
	deleted, err := r.client.Del(ctx, r.key(sessionID, noticeID)).Result()
	if err != nil {
		return fmt.Errorf("deleting notice from redis: %w", err)
	}
	if deleted == 0 {
		return apperrors.NotFound("notice", noticeID)
	}
	return nil
}
