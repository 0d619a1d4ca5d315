// Package live streams mirror state to UI clients over websockets. Every
// connection owns its own mirror; client messages retarget it.
package live

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

const writeTimeout = 10 * time.Second

// Stream describes one mirrored collection exposed over a websocket.
type Stream[T mirror.Record] struct {
	Collection  string
	SellerField string
	Decode      mirror.Decoder[T]
	Render      func(T) any
}

// ClientMessage retargets the connection's mirror. An empty Seller streams
// the whole collection; a malformed one is ignored. Retry reopens a failed
// subscription.
type ClientMessage struct {
	Seller *string `json:"seller,omitempty"`
	Retry  bool    `json:"retry,omitempty"`
}

// StateMessage is pushed to the client on every mirror change.
type StateMessage struct {
	Seller  string `json:"seller,omitempty"`
	Records []any  `json:"records"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Options configures accepted websocket origins.
type Options struct {
	OriginPatterns []string
}

// Handler returns an http.HandlerFunc serving stream s from src.
func Handler[T mirror.Record](src mirror.CollectionSource, s Stream[T], opts Options, log *slog.Logger) http.HandlerFunc {
	log = log.With("handler", "live", slog.String("collection", s.Collection))

	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := ctxutil.PrincipalFromCtx(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		seller, err := parseSeller(r.URL.Query().Get("seller"))
		if err != nil {
			http.Error(w, "seller must be a UUID", http.StatusBadRequest)
			return
		}

		// Server read/write timeouts would otherwise cut long-lived streams.
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns})
		if err != nil {
			log.WarnContext(r.Context(), "websocket accept failed", slog.String("error", err.Error()))
			return
		}

		sess := &session[T]{
			conn:    conn,
			stream:  s,
			mirror:  mirror.NewCollection(src, s.Decode),
			changed: make(chan struct{}, 1),
			log:     log.With(slog.String("principal_id", p.ID.String())),
		}
		err = sess.run(r.Context(), seller)

		switch status := websocket.CloseStatus(err); {
		case status == websocket.StatusNormalClosure, status == websocket.StatusGoingAway,
			errors.Is(err, context.Canceled):
			conn.Close(websocket.StatusNormalClosure, "")
		default:
			sess.log.WarnContext(r.Context(), "live stream ended", slog.String("error", err.Error()))
			conn.Close(websocket.StatusInternalError, "stream failed")
		}
	}
}

type session[T mirror.Record] struct {
	conn    *websocket.Conn
	stream  Stream[T]
	mirror  *mirror.Collection[T]
	changed chan struct{}
	seller  uuid.UUID
	log     *slog.Logger
}

// run serves the connection until the client goes away or ctx ends. The
// mirror is closed on return.
func (s *session[T]) run(ctx context.Context, seller uuid.UUID) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := s.mirror.OnChange(func(mirror.State[T]) { s.signal() })
	defer func() {
		stop()
		s.mirror.Close()
	}()

	messages := make(chan ClientMessage)
	readErr := make(chan error, 1)
	go func() {
		for {
			var msg ClientMessage
			if err := wsjson.Read(ctx, s.conn, &msg); err != nil {
				readErr <- err
				return
			}
			select {
			case messages <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	s.retarget(seller)
	s.log.InfoContext(ctx, "live stream opened", slog.String("seller", seller.String()))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case msg := <-messages:
			switch {
			case msg.Seller != nil:
				seller, err := parseSeller(*msg.Seller)
				if err != nil {
					s.log.WarnContext(ctx, "ignoring malformed seller", slog.String("seller", *msg.Seller))
					continue
				}
				s.retarget(seller)
			case msg.Retry:
				s.mirror.Retry()
			}
		case <-s.changed:
			if err := s.write(ctx); err != nil {
				return err
			}
		}
	}
}

// signal coalesces change notifications; the writer always sends the
// latest state.
func (s *session[T]) signal() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// parseSeller maps a blank filter to uuid.Nil.
func parseSeller(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

func (s *session[T]) retarget(seller uuid.UUID) {
	q := docstore.CollectionQuery(s.stream.Collection)
	if seller != uuid.Nil {
		q = q.Where(s.stream.SellerField, docstore.OpEqual, seller.String())
	}
	s.seller = seller
	s.mirror.SetQuery(&q)
	s.signal()
}

func (s *session[T]) write(ctx context.Context) error {
	state := s.mirror.State()
	msg := StateMessage{
		Records: make([]any, 0, len(state.Records)),
		Loading: state.Loading,
	}
	if s.seller != uuid.Nil {
		msg.Seller = s.seller.String()
	}
	for _, rec := range state.Records {
		msg.Records = append(msg.Records, s.stream.Render(rec))
	}
	if state.Err != nil {
		msg.Error = state.Err.Error()
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, s.conn, msg)
}
