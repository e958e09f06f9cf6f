// Package cleanup prunes expired email tokens off the request path.
package cleanup

import (
	"context"
	"time"

	"taskboard/backend/pkg/metrics"

	"go.uber.org/zap"
)

// ExpiredTokenDeleter is the part of the token store the job needs.
type ExpiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenJob deletes tokens whose expiry has passed.
type TokenJob struct {
	tokens ExpiredTokenDeleter
	log    *zap.Logger
	now    func() time.Time
}

func NewTokenJob(tokens ExpiredTokenDeleter, log *zap.Logger) *TokenJob {
	return &TokenJob{tokens: tokens, log: log.Named("token_cleanup"), now: time.Now}
}

// Start runs the job once, then every interval until ctx is cancelled.
func (j *TokenJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.log.Info("Token cleanup started", zap.Duration("interval", interval))
	j.runLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			j.log.Info("Token cleanup stopped")
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

// RunOnce deletes every expired token and returns how many went.
func (j *TokenJob) RunOnce(ctx context.Context) (int64, error) {
	n, err := j.tokens.DeleteExpired(ctx, j.now())
	if err != nil {
		return 0, err
	}
	metrics.TokensPruned.Add(float64(n))
	return n, nil
}

func (j *TokenJob) runLogged(ctx context.Context) {
	n, err := j.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			j.log.Error("Failed to prune expired tokens", zap.Error(err))
		}
		return
	}
	if n > 0 {
		j.log.Info("Pruned expired tokens", zap.Int64("count", n))
	}
}
