package document

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	listenRetryMin = time.Second
	listenRetryMax = 30 * time.Second
)

// Listen relays change notifications from every process writing to the
// database into subscription snapshots. It blocks until ctx is done and
// reconnects with backoff when the listening connection drops; while
// disconnected, subscribers receive the connection error.
func (r *Repo) Listen(ctx context.Context, pool *pgxpool.Pool) error {
	backoff := listenRetryMin
	for {
		connected, err := r.listenOnce(ctx, pool)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			backoff = listenRetryMin
		}

		r.log.WarnContext(ctx, "change listener interrupted",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", backoff),
		)
		r.hub.Fail("", fmt.Errorf("change feed: %w", err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, listenRetryMax)
	}
}

func (r *Repo) listenOnce(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "UNLISTEN *")
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return false, fmt.Errorf("listen: %w", err)
	}

	r.listening.Store(true)
	defer r.listening.Store(false)
	r.log.InfoContext(ctx, "change listener started", slog.String("channel", notifyChannel))

	// Catch up on anything written while no listener was attached.
	r.hub.Notify("")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return true, err
		}
		r.hub.Notify(n.Payload)
	}
}
