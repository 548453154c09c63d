package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fivvy/server-go/internal/repository"
)

// CleanupJob periodically purges expired and revoked refresh tokens.
// Portal tokens are deliberately not touched: used and expired rows stay
// as an audit trail of who was given access and when.
type CleanupJob struct {
	refreshTokenRepo repository.RefreshTokenRepository
	interval         time.Duration
	done             chan struct{}
}

func NewCleanupJob(refreshTokenRepo repository.RefreshTokenRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		refreshTokenRepo: refreshTokenRepo,
		interval:         interval,
		done:             make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "refresh tokens", j.refreshTokenRepo.DeleteExpired)
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
