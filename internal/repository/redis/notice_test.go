package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
)

func setupNoticeRepo(t *testing.T) (*NoticeRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewNoticeRepository(client), mr
}

func testNotice(id, sessionID, message string, created time.Time) *domain.Notice {
	return &domain.Notice{
		ID:        id,
		SessionID: sessionID,
		Message:   message,
		Severity:  domain.SeveritySuccess,
		CreatedAt: created,
		ExpiresAt: created.Add(3 * time.Second),
	}
}

func TestNoticeRepository_CreateAndList(t *testing.T) {
	repo, _ := setupNoticeRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, testNotice("n1", "sess-1", "Widget added to cart!", created)))

	notices, err := repo.ListActive(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "n1", notices[0].ID)
	assert.Equal(t, "Widget added to cart!", notices[0].Message)
	assert.Equal(t, domain.SeveritySuccess, notices[0].Severity)
}

func TestNoticeRepository_ListActive_OldestFirst(t *testing.T) {
	repo, _ := setupNoticeRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, testNotice("n2", "sess-1", "second", base.Add(time.Second))))
	require.NoError(t, repo.Create(ctx, testNotice("n1", "sess-1", "first", base)))

	notices, err := repo.ListActive(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, "n1", notices[0].ID)
	assert.Equal(t, "n2", notices[1].ID)
}

func TestNoticeRepository_ListActive_Empty(t *testing.T) {
	repo, _ := setupNoticeRepo(t)

	notices, err := repo.ListActive(context.Background(), "sess-quiet")
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestNoticeRepository_ListActive_SessionIsolation(t *testing.T) {
	repo, _ := setupNoticeRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, testNotice("n1", "sess-1", "mine", created)))

	notices, err := repo.ListActive(ctx, "sess-2")
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestNoticeRepository_Create_SetsLifetimeTTL(t *testing.T) {
	repo, mr := setupNoticeRepo(t)
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(context.Background(), testNotice("n1", "sess-1", "hi", created)))

	assert.Equal(t, 3*time.Second, mr.TTL("dokan_notice:sess-1:n1"))
}

func TestNoticeRepository_ExpiredNoticesDropOff(t *testing.T) {
	repo, mr := setupNoticeRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, testNotice("n1", "sess-1", "fleeting", created)))

	mr.FastForward(4 * time.Second)

	notices, err := repo.ListActive(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestNoticeRepository_Create_RejectsNonPositiveLifetime(t *testing.T) {
	repo, _ := setupNoticeRepo(t)
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	notice := testNotice("n1", "sess-1", "bad", created)
	notice.ExpiresAt = created

	err := repo.Create(context.Background(), notice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestNoticeRepository_Dismiss(t *testing.T) {
	repo, _ := setupNoticeRepo(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, testNotice("n1", "sess-1", "bye", created)))
	require.NoError(t, repo.Dismiss(ctx, "sess-1", "n1"))

	notices, err := repo.ListActive(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestNoticeRepository_Dismiss_NotFound(t *testing.T) {
	repo, _ := setupNoticeRepo(t)

	err := repo.Dismiss(context.Background(), "sess-1", "n-ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
