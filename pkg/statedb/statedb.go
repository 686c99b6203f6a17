// Package statedb is the ledger-resident state store.
//
// Every state-changing operation runs through DB.Update: operations are admitted one at a
// time, run to completion against a single badger read-write transaction and then either
// commit every write and buffered event together or discard all of them.
package statedb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

var (
	// ErrNotFound is returned when a key does not exist
	ErrNotFound = errors.New("statedb: key not found")

	// ErrClosed is returned for operations on a closed DB
	ErrClosed = errors.New("statedb: closed")
)

const heightKey = "meta:height"

// Event is an observable side effect buffered by an operation until it commits
type Event interface {
	EventName() string
}

// CommitHook observes committed operations in commit order
type CommitHook func(height uint64, events []Event)

// Options configures the store
type Options struct {
	// Dir is the badger directory. Empty means in-memory.
	Dir string
}

// DB is the serial, atomic state store
type DB struct {
	db     *badger.DB
	mu     sync.Mutex
	hooks  []CommitHook
	closed bool
}

// Open opens a badger-backed state DB
func Open(opts Options) (*DB, error) {
	var bopts badger.Options
	if opts.Dir == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(opts.Dir)
	}
	bopts = bopts.WithLogger(badgerLogger{})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open state db: %w", err)
	}
	return &DB{db: db}, nil
}

// OpenInMemory opens an ephemeral state DB, used by tests and offline runs
func OpenInMemory() (*DB, error) {
	return Open(Options{})
}

// Close closes the underlying badger handle
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

// OnCommit registers a hook called after each successful Update, in commit order.
// Hooks run while the store is still serialized, so they must not call Update.
func (d *DB) OnCommit(hook CommitHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, hook)
}

// Update runs fn as one atomic operation. Any error returned by fn (or a panic)
// discards every write and event of the operation.
func (d *DB) Update(ctx context.Context, fn func(tx *Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	txn := d.db.NewTransaction(true)
	defer txn.Discard()

	tx := &Tx{txn: txn, writable: true}
	if err := fn(tx); err != nil {
		return err
	}

	height, err := tx.incrementHeight()
	if err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}

	for _, hook := range d.hooks {
		hook(height, tx.events)
	}
	return nil
}

// View runs fn against a read-only snapshot of committed state
func (d *DB) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.View(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// Height returns the number of committed operations
func (d *DB) Height(ctx context.Context) (uint64, error) {
	var height uint64
	err := d.View(ctx, func(tx *Tx) error {
		var err error
		height, err = tx.counter(heightKey)
		return err
	})
	return height, err
}

// Ping reports whether the store accepts reads
func (d *DB) Ping(ctx context.Context) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}
	_, err := d.Height(ctx)
	return err
}

// Tx is one operation's view of the state
type Tx struct {
	txn      *badger.Txn
	writable bool
	events   []Event
}

// Get decodes the JSON value stored at key into v
func (t *Tx) Get(key string, v any) error {
	item, err := t.txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Has reports whether key exists
func (t *Tx) Has(key string) (bool, error) {
	_, err := t.txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return true, nil
}

// Put stores v as JSON at key
func (t *Tx) Put(key string, v any) error {
	if !t.writable {
		return badger.ErrReadOnlyTxn
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := t.txn.Set([]byte(key), raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Iterate calls fn for each key with the given prefix in key order
func (t *Tx) Iterate(prefix string, fn func(key string, raw []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		item := it.Item()
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", item.Key(), err)
		}
		if err := fn(string(item.KeyCopy(nil)), raw); err != nil {
			return err
		}
	}
	return nil
}

// NextSequence increments the named counter and returns the new value (first value is 1)
func (t *Tx) NextSequence(name string) (uint64, error) {
	key := "seq:" + name
	current, err := t.counter(key)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := t.setCounter(key, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Emit buffers an event; it is delivered only if the operation commits
func (t *Tx) Emit(e Event) {
	t.events = append(t.events, e)
}

// Events returns the events buffered so far
func (t *Tx) Events() []Event {
	return t.events
}

func (t *Tx) incrementHeight() (uint64, error) {
	height, err := t.counter(heightKey)
	if err != nil {
		return 0, err
	}
	height++
	return height, t.setCounter(heightKey, height)
}

func (t *Tx) counter(key string) (uint64, error) {
	item, err := t.txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read counter %s: %w", key, err)
	}
	var value uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt counter %s", key)
		}
		value = binary.BigEndian.Uint64(val)
		return nil
	})
	return value, err
}

func (t *Tx) setCounter(key string, value uint64) error {
	if !t.writable {
		return badger.ErrReadOnlyTxn
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	if err := t.txn.Set([]byte(key), buf); err != nil {
		return fmt.Errorf("failed to write counter %s: %w", key, err)
	}
	return nil
}
