package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/seam-events-api/internal/models"
	"github.com/noah-isme/seam-events-api/pkg/kv"
)

type slot[T any] struct {
	name    string
	loaded  bool
	dirty   bool
	deleted bool
	value   T
}

// Tx is the view of the store handed to a single command.
type Tx struct {
	ctx      context.Context
	store    *Store
	writable bool

	users    slot[[]models.User]
	events   slot[[]models.Event]
	requests slot[[]models.JoinRequest]
	session  slot[*models.UserInfo]
}

func newTx(ctx context.Context, s *Store, writable bool) *Tx {
	return &Tx{
		ctx:      ctx,
		store:    s,
		writable: writable,
		users:    slot[[]models.User]{name: KeyUsers},
		events:   slot[[]models.Event]{name: KeyEvents},
		requests: slot[[]models.JoinRequest]{name: KeyJoinRequests},
		session:  slot[*models.UserInfo]{name: KeyCurrentSession},
	}
}

// Now returns the store clock's current time.
func (tx *Tx) Now() time.Time {
	return tx.store.now()
}

// NewID generates an identifier with the given prefix.
func (tx *Tx) NewID(prefix string) string {
	return NewID(prefix, tx.Now())
}

// Users returns the users collection.
func (tx *Tx) Users() ([]models.User, error) {
	return load(tx, &tx.users)
}

// SetUsers replaces the users collection.
func (tx *Tx) SetUsers(users []models.User) {
	set(&tx.users, users)
}

// Events returns the events collection.
func (tx *Tx) Events() ([]models.Event, error) {
	return load(tx, &tx.events)
}

// SetEvents replaces the events collection.
func (tx *Tx) SetEvents(events []models.Event) {
	set(&tx.events, events)
}

// JoinRequests returns the join requests collection.
func (tx *Tx) JoinRequests() ([]models.JoinRequest, error) {
	return load(tx, &tx.requests)
}

// SetJoinRequests replaces the join requests collection.
func (tx *Tx) SetJoinRequests(requests []models.JoinRequest) {
	set(&tx.requests, requests)
}

// Session returns the current session marker, nil when absent.
func (tx *Tx) Session() (*models.UserInfo, error) {
	return load(tx, &tx.session)
}

// SetSession records info as the current session marker.
func (tx *Tx) SetSession(info models.UserInfo) {
	set(&tx.session, &info)
}

// ClearSession removes the current session marker.
func (tx *Tx) ClearSession() {
	remove(&tx.session)
}

// Reset removes every collection and the session marker.
func (tx *Tx) Reset() {
	remove(&tx.users)
	remove(&tx.events)
	remove(&tx.requests)
	remove(&tx.session)
}

func load[T any](tx *Tx, s *slot[T]) (T, error) {
	if s.loaded {
		return s.value, nil
	}
	var value T
	raw, err := tx.store.backend.Get(tx.ctx, tx.store.key(s.name))
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return value, fmt.Errorf("load %s: %w", s.name, err)
	default:
		if err := json.Unmarshal(raw, &value); err != nil {
			return value, fmt.Errorf("decode %s: %w", s.name, err)
		}
	}
	s.value = value
	s.loaded = true
	return value, nil
}

func set[T any](s *slot[T], value T) {
	s.value = value
	s.loaded = true
	s.dirty = true
	s.deleted = false
}

func remove[T any](s *slot[T]) {
	var zero T
	s.value = zero
	s.loaded = true
	s.dirty = true
	s.deleted = true
}

func slotOp[T any](tx *Tx, s *slot[T]) (kv.Op, bool, error) {
	if !s.dirty {
		return kv.Op{}, false, nil
	}
	key := tx.store.key(s.name)
	if s.deleted {
		return kv.Del(key), true, nil
	}
	raw, err := json.Marshal(s.value)
	if err != nil {
		return kv.Op{}, false, fmt.Errorf("encode %s: %w", s.name, err)
	}
	return kv.Put(key, raw), true, nil
}

func (tx *Tx) commit() error {
	var ops []kv.Op
	for _, build := range []func() (kv.Op, bool, error){
		func() (kv.Op, bool, error) { return slotOp(tx, &tx.users) },
		func() (kv.Op, bool, error) { return slotOp(tx, &tx.events) },
		func() (kv.Op, bool, error) { return slotOp(tx, &tx.requests) },
		func() (kv.Op, bool, error) { return slotOp(tx, &tx.session) },
	} {
		o, ok, err := build()
		if err != nil {
			return err
		}
		if ok {
			ops = append(ops, o)
		}
	}
	if len(ops) == 0 {
		return nil
	}
	if !tx.writable {
		return ErrReadOnly
	}
	if err := tx.store.backend.Apply(tx.ctx, ops...); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
