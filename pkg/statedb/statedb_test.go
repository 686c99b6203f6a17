package statedb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent string

func (e testEvent) EventName() string { return string(e) }

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpdate_CommitsWritesAndEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var committed []Event
	var heights []uint64
	db.OnCommit(func(height uint64, events []Event) {
		heights = append(heights, height)
		committed = append(committed, events...)
	})

	err := db.Update(ctx, func(tx *Tx) error {
		tx.Emit(testEvent("Created"))
		return tx.Put("rec:a", record{Name: "a", Count: 1})
	})
	require.NoError(t, err)

	var got record
	err = db.View(ctx, func(tx *Tx) error { return tx.Get("rec:a", &got) })
	require.NoError(t, err)
	assert.Equal(t, record{Name: "a", Count: 1}, got)
	assert.Equal(t, []Event{testEvent("Created")}, committed)
	assert.Equal(t, []uint64{1}, heights)
}

func TestUpdate_ErrorDiscardsEverything(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	hookCalls := 0
	db.OnCommit(func(uint64, []Event) { hookCalls++ })

	boom := errors.New("boom")
	err := db.Update(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Put("rec:a", record{Name: "a"}))
		_, seqErr := tx.NextSequence("rec")
		require.NoError(t, seqErr)
		tx.Emit(testEvent("Created"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, hookCalls)

	err = db.View(ctx, func(tx *Tx) error {
		var r record
		assert.ErrorIs(t, tx.Get("rec:a", &r), ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	// the discarded sequence value is handed out again
	err = db.Update(ctx, func(tx *Tx) error {
		id, err := tx.NextSequence("rec")
		assert.Equal(t, uint64(1), id)
		return err
	})
	require.NoError(t, err)

	height, err := db.Height(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)
}

func TestUpdate_PanicDiscardsAndReleasesLock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = db.Update(ctx, func(tx *Tx) error {
			_ = tx.Put("rec:a", record{Name: "a"})
			panic("boom")
		})
	})

	err := db.Update(ctx, func(tx *Tx) error {
		ok, err := tx.Has("rec:a")
		assert.False(t, ok)
		return err
	})
	require.NoError(t, err)
}

func TestUpdate_CanceledContextIsRejected(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := db.Update(ctx, func(tx *Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestView_IsReadOnly(t *testing.T) {
	db := newTestDB(t)

	err := db.View(context.Background(), func(tx *Tx) error {
		return tx.Put("rec:a", record{Name: "a"})
	})
	assert.Error(t, err)
}

func TestNextSequence_IsMonotonic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var ids []uint64
	for i := 0; i < 3; i++ {
		err := db.Update(ctx, func(tx *Tx) error {
			id, err := tx.NextSequence("session")
			ids = append(ids, id)
			return err
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestIterate_PrefixInKeyOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Update(ctx, func(tx *Tx) error {
		for _, k := range []string{"rec:b", "rec:a", "other:z", "rec:c"} {
			if err := tx.Put(k, record{Name: k}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var keys []string
	err = db.View(ctx, func(tx *Tx) error {
		return tx.Iterate("rec:", func(key string, _ []byte) error {
			keys = append(keys, key)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rec:a", "rec:b", "rec:c"}, keys)
}

func TestClose_RejectsUpdates(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	err = db.Update(context.Background(), func(tx *Tx) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, db.Ping(context.Background()), ErrClosed)
}
