// Package kv defines the key-value contract the data store persists its
// collections through, with memory, file, Redis, PostgreSQL and S3 backends.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// Op is a single write applied by Store.Apply.
type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

// Put returns an op storing value under key.
func Put(key string, value []byte) Op {
	return Op{Key: key, Value: value}
}

// Del returns an op removing key.
func Del(key string) Op {
	return Op{Key: key, Delete: true}
}

// Store is a flat key-value namespace. Apply writes all ops or, where the
// backend supports it, none of them.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Apply(ctx context.Context, ops ...Op) error
	Close() error
}
