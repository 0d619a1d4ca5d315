package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := docstore.NewID()
	if err := s.Batch(ctx, []docstore.Op{docstore.CreateOp(docstore.Ref{Collection: collection, ID: id}, fields)}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, ref docstore.Ref, fields map[string]any, merge bool) error {
	return s.Batch(ctx, []docstore.Op{docstore.SetOp(ref, fields, merge)})
}

func (s *Store) UpdateFields(ctx context.Context, ref docstore.Ref, fields map[string]any) error {
	return s.Batch(ctx, []docstore.Op{docstore.UpdateOp(ref, fields)})
}

func (s *Store) Delete(ctx context.Context, ref docstore.Ref) error {
	return s.Batch(ctx, []docstore.Op{docstore.DeleteOp(ref)})
}

// docState is the pending state of one document inside a batch.
type docState struct {
	ref     docstore.Ref
	exists  bool
	fresh   bool
	data    map[string]any
	created time.Time
	seq     int64
}

// Batch applies ops in one MULTI/EXEC guarded by WATCH on every touched
// document. A concurrent change to a watched key retries the whole batch.
func (s *Store) Batch(ctx context.Context, ops []docstore.Op) error {
	if len(ops) == 0 {
		return nil
	}

	now := s.now().UTC()
	payloads := make([]docstore.Normalized, len(ops))
	keys := make([]string, 0, len(ops))
	for i, op := range ops {
		if op.Ref.Collection == "" || op.Ref.ID == "" {
			return fmt.Errorf("%s op: empty document path: %w", op.Kind, domain.ErrValidation)
		}
		n, err := docstore.Normalize(op.Fields, now)
		if err != nil {
			return err
		}
		payloads[i] = n
		keys = append(keys, s.docKey(op.Ref))
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			return s.commit(ctx, tx, ops, payloads, now)
		}, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			s.log.DebugContext(ctx, "batch retried after concurrent change", slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return err
		}

		if !s.listening.Load() {
			for _, c := range touchedCollections(ops) {
				s.hub.Notify(c)
			}
		}
		return nil
	}
	return fmt.Errorf("batch: too many concurrent changes: %w", domain.ErrConflict)
}

func (s *Store) commit(ctx context.Context, tx *redis.Tx, ops []docstore.Op, payloads []docstore.Normalized, now time.Time) error {
	pending := make(map[string]*docState)
	var order []string

	load := func(ref docstore.Ref) (*docState, error) {
		path := ref.Path()
		if st, ok := pending[path]; ok {
			return st, nil
		}
		order = append(order, path)
		vals, err := tx.HGetAll(ctx, s.docKey(ref)).Result()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		st := &docState{ref: ref}
		if len(vals) > 0 {
			data, err := docstore.DecodeMap([]byte(vals[fieldData]))
			if err != nil {
				return nil, err
			}
			created, err := time.Parse(time.RFC3339Nano, vals[fieldCreated])
			if err != nil {
				return nil, fmt.Errorf("read %s: created: %w", path, err)
			}
			st.exists = true
			st.data = data
			st.created = created
			st.seq = parseSeq(vals[fieldSeq])
		}
		pending[path] = st
		return st, nil
	}

	for i, op := range ops {
		st, err := load(op.Ref)
		if err != nil {
			return err
		}
		n := payloads[i]
		path := op.Ref.Path()

		switch op.Kind {
		case docstore.OpCreate:
			if st.exists {
				return fmt.Errorf("create %s: %w", path, domain.ErrAlreadyExists)
			}
			st.reset(n, now)
		case docstore.OpSet:
			if !st.exists {
				st.reset(n, now)
			} else if op.Merge {
				n.Apply(st.data)
			} else {
				st.data = n.Map()
			}
		case docstore.OpUpdate:
			if !st.exists {
				return fmt.Errorf("update %s: %w", path, domain.ErrNotFound)
			}
			n.Apply(st.data)
		case docstore.OpDelete:
			st.exists = false
			st.data = nil
		default:
			return fmt.Errorf("unknown op kind %d", op.Kind)
		}
	}

	// Sequence numbers only order documents; gaps are allowed.
	var fresh []*docState
	for _, path := range order {
		if st := pending[path]; st.exists && st.fresh {
			fresh = append(fresh, st)
		}
	}
	if len(fresh) > 0 {
		last, err := tx.IncrBy(ctx, s.seqKey(), int64(len(fresh))).Result()
		if err != nil {
			return fmt.Errorf("allocate sequence: %w", err)
		}
		for i, st := range fresh {
			st.seq = last - int64(len(fresh)-1-i)
		}
	}

	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, path := range order {
			st := pending[path]
			key := s.docKey(st.ref)
			idx := s.indexKey(st.ref.Collection)
			if !st.exists {
				pipe.Del(ctx, key)
				pipe.ZRem(ctx, idx, st.ref.ID)
				continue
			}
			raw, err := docstore.Encode(st.data)
			if err != nil {
				return err
			}
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key,
				fieldData, string(raw),
				fieldCreated, formatTime(st.created),
				fieldUpdated, formatTime(now),
				fieldSeq, st.seq,
			)
			pipe.ZAdd(ctx, idx, redis.Z{Score: float64(st.seq), Member: st.ref.ID})
		}
		for _, c := range touchedCollections(ops) {
			pipe.Publish(ctx, s.channel(c), c)
		}
		return nil
	})
	return err
}

func (st *docState) reset(n docstore.Normalized, now time.Time) {
	st.exists = true
	st.fresh = true
	st.data = n.Map()
	st.created = now
}

func touchedCollections(ops []docstore.Op) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, op := range ops {
		if _, ok := seen[op.Ref.Collection]; ok {
			continue
		}
		seen[op.Ref.Collection] = struct{}{}
		out = append(out, op.Ref.Collection)
	}
	return out
}
