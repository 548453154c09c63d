package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fivvy/server-go/internal/model"
)

type countingRefreshRepo struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRefreshRepo) Create(ctx context.Context, params model.CreateRefreshTokenParams) (*model.RefreshToken, error) {
	return nil, nil
}

func (r *countingRefreshRepo) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	return nil, nil
}

func (r *countingRefreshRepo) Revoke(ctx context.Context, id int64, replacedByHash *string) error {
	return nil
}

func (r *countingRefreshRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	return nil
}

func (r *countingRefreshRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return 3, nil
}

func (r *countingRefreshRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestCleanupJob(t *testing.T) {
	t.Run("runs immediately on start and again on tick", func(t *testing.T) {
		repo := &countingRefreshRepo{}
		job := NewCleanupJob(repo, 20*time.Millisecond)

		job.Start()
		defer job.Stop()

		assert.Eventually(t, func() bool {
			return repo.callCount() >= 2
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("stops cleanly", func(t *testing.T) {
		repo := &countingRefreshRepo{}
		job := NewCleanupJob(repo, 10*time.Millisecond)

		job.Start()
		time.Sleep(25 * time.Millisecond)
		job.Stop()

		after := repo.callCount()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, after, repo.callCount())
	})
}
