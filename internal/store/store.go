// Package store is the durable layer behind the in-memory ledgers: a
// key-value store of JSON documents grouped into collections. Services load
// their collection fully at startup and flush single records after each
// mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrPersistence marks durable-store failures so callers can tell them apart
// from business-rule errors. In-memory state stays valid when it is returned.
var ErrPersistence = errors.New("durable store failure")

const (
	CollectionUsers         = "users"
	CollectionTrades        = "trades"
	CollectionDeposits      = "deposits"
	CollectionWithdrawals   = "withdrawals"
	CollectionNotifications = "notifications"
)

type Store interface {
	// Load returns every document in the collection, keyed by record id.
	// A collection that has never been written is empty, not an error.
	Load(ctx context.Context, collection string) (map[string]json.RawMessage, error)
	Put(ctx context.Context, collection, id string, doc []byte) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}
