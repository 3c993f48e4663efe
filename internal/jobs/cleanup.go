package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crashlink/companion-server/internal/repository"
)

const cleanupTimeout = 30 * time.Second

// CleanupJob deletes pairing codes that expired more than retention ago.
// Codes stay readable for a while after expiry so their location and usage
// history can still be looked up.
type CleanupJob struct {
	pairingCodeRepo repository.PairingCodeRepository
	retention       time.Duration
	interval        time.Duration
	now             func() time.Time
	done            chan struct{}
	stopped         chan struct{}
}

func NewCleanupJob(
	pairingCodeRepo repository.PairingCodeRepository,
	retention time.Duration,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		pairingCodeRepo: pairingCodeRepo,
		retention:       retention,
		interval:        interval,
		now:             time.Now,
		done:            make(chan struct{}),
		stopped:         make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().
		Dur("interval", j.interval).
		Dur("retention", j.retention).
		Msg("cleanup job started")
}

// Stop waits for a cleanup pass in progress to finish.
func (j *CleanupJob) Stop() {
	close(j.done)
	<-j.stopped
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	defer close(j.stopped)

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
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	j.runCleanup(ctx, "pairing codes", func(ctx context.Context) (int64, error) {
		return j.pairingCodeRepo.DeleteExpiredBefore(ctx, cutoff)
	})
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
