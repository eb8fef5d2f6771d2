package badger

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/medassist/core"
	"github.com/poiesic/medassist/storage"
)

// ThreadRepository implements storage.ThreadRepository for BadgerDB.
//
// Each thread has a single writer at a time: appends to the same
// thread are serialized by a per-thread mutex so the next sequence
// number is never contended. Distinct threads append concurrently.
type ThreadRepository struct {
	backend *Backend

	mu      sync.Mutex
	threads map[string]*threadState
}

type threadState struct {
	mu      sync.Mutex
	nextSeq uint64
	loaded  bool
}

var _ storage.ThreadRepository = (*ThreadRepository)(nil)

// NewThreadRepository creates a new ThreadRepository.
func NewThreadRepository(backend *Backend) (*ThreadRepository, error) {
	return &ThreadRepository{
		backend: backend,
		threads: make(map[string]*threadState),
	}, nil
}

// Close is a no-op; the shared backend is closed by its owner.
func (r *ThreadRepository) Close() error {
	return nil
}

func (r *ThreadRepository) state(threadID string) *threadState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.threads[threadID]
	if !ok {
		st = &threadState{}
		r.threads[threadID] = st
	}
	return st
}

// loadNextSeq finds the highest stored sequence number of a thread by
// scanning its keyspace backwards. Called once per thread under the
// thread mutex.
func (r *ThreadRepository) loadNextSeq(threadID string) (uint64, error) {
	var next uint64
	prefix := makeThreadPrefix(threadID)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration must seek past the last possible key.
		seek := makeTurnKey(threadID, ^uint64(0))
		iter.Seek(seek)
		if iter.ValidForPrefix(prefix) {
			key := iter.Item().Key()
			seq := binary.BigEndian.Uint64(key[len(key)-8:])
			next = seq + 1
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return next, nil
}

// GetTurns retrieves all turns of a thread in append order.
func (r *ThreadRepository) GetTurns(ctx context.Context, threadID string) ([]core.Turn, error) {
	if threadID == "" {
		return nil, storage.ErrEmptyThreadID
	}
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var turns []core.Turn
	prefix := makeThreadPrefix(threadID)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				turn, err := storage.UnmarshalTurn(val)
				if err != nil {
					return err
				}
				turns = append(turns, *turn)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return turns, nil
}

// AppendTurns appends turns to a thread in a single transaction.
func (r *ThreadRepository) AppendTurns(ctx context.Context, threadID string, turns ...core.Turn) error {
	if threadID == "" {
		return storage.ErrEmptyThreadID
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(turns) == 0 {
		return nil
	}
	for i := range turns {
		if err := core.ValidateTurn(&turns[i]); err != nil {
			return err
		}
	}

	st := r.state(threadID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.loaded {
		next, err := r.loadNextSeq(threadID)
		if err != nil {
			return err
		}
		st.nextSeq = next
		st.loaded = true
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for i := range turns {
			key := makeTurnKey(threadID, st.nextSeq+uint64(i))
			if err := tx.Set(key, storage.MarshalTurn(&turns[i])); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	st.nextSeq += uint64(len(turns))
	return nil
}

// ClearThread removes all turns of a thread.
func (r *ThreadRepository) ClearThread(ctx context.Context, threadID string) error {
	if threadID == "" {
		return storage.ErrEmptyThreadID
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	st := r.state(threadID)
	st.mu.Lock()
	defer st.mu.Unlock()

	prefix := makeThreadPrefix(threadID)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	st.nextSeq = 0
	st.loaded = true
	return nil
}
