package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	listenRetryMin = time.Second
	listenRetryMax = 30 * time.Second
)

// Listen relays change messages published by every process sharing the
// prefix into subscription snapshots. It blocks until ctx is done. While the
// connection is down, subscribers receive the error; after it recovers every
// subscription gets a fresh snapshot.
func (s *Store) Listen(ctx context.Context) error {
	pattern := s.channel("*")
	ps := s.client.PSubscribe(ctx, pattern)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", pattern, err)
	}

	s.listening.Store(true)
	defer s.listening.Store(false)
	s.log.InfoContext(ctx, "change listener started", slog.String("pattern", pattern))
	s.hub.Notify("")

	prefix := s.channel("")
	backoff := listenRetryMin
	for {
		msg, err := ps.ReceiveMessage(ctx)
		if err == nil {
			backoff = listenRetryMin
			s.hub.Notify(strings.TrimPrefix(msg.Channel, prefix))
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		s.log.WarnContext(ctx, "change listener interrupted",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", backoff),
		)
		s.hub.Fail("", fmt.Errorf("change feed: %w", err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, listenRetryMax)

		if err := ps.Ping(ctx); err == nil {
			s.hub.Notify("")
		}
	}
}
