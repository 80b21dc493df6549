package kvio

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v2"
	"github.com/gnames/genomcat/internal/ent/kv"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnsys"
	"github.com/gnames/gnuuid"
)

// kvio is a key index on disk, for imports with more parent keys than fit
// in memory.
type kvio struct {
	dir   string
	mu    sync.Mutex
	db    *badger.DB
	txn   *badger.Txn
	dirty bool
	enc   gnfmt.GNgob
}

// New returns a badger-backed key index. The directory is cleaned.
func New(dir string) (kv.KeyIndex, error) {
	res := kvio{
		dir: dir,
	}

	err := gnsys.MakeDir(dir)
	if err != nil {
		slog.Error("Cannot create directory", "error", err, "dir", dir)
		return nil, err
	}

	err = gnsys.CleanDir(dir)
	if err != nil {
		slog.Error("Cannot reset key index", "error", err, "dir", dir)
		return nil, err
	}

	return &res, err
}

// Open opens a key-value store.
func (k *kvio) Open() error {
	if k.db != nil {
		slog.Warn("key-value store is not nil")
	}
	options := badger.DefaultOptions(k.dir)
	options.Logger = nil

	bdb, err := badger.Open(options)
	if err != nil {
		return err
	}
	k.db = bdb
	k.txn = bdb.NewTransaction(true)
	return nil
}

// Close commits pending writes and closes a key-value store.
func (k *kvio) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.db == nil {
		slog.Warn("key-value store is nil")
		return nil
	}
	var err error
	if k.txn != nil {
		err = k.txn.Commit()
		k.txn = nil
	}
	if cerr := k.db.Close(); err == nil {
		err = cerr
	}
	k.db = nil
	return err
}

// Add saves an id under a key if the key is new.
func (k *kvio) Add(key string, id int64) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.db == nil {
		return false, errors.New("key-value store is not open")
	}

	kb := keyBytes(key)
	_, err := k.txn.Get(kb)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return false, err
	}

	val, err := k.enc.Encode(id)
	if err != nil {
		slog.Error("Cannot encode id", "error", err)
		return false, err
	}

	if err = k.txn.Set(kb, val); errors.Is(err, badger.ErrTxnTooBig) {
		err = k.txn.Commit()
		if err != nil {
			slog.Error("Cannot commit key/value transaction", "error", err)
			return false, err
		}
		k.txn = k.db.NewTransaction(true)
		err = k.txn.Set(kb, val)
	}
	if err != nil {
		slog.Error("Cannot set key/value", "error", err)
		return false, err
	}
	k.dirty = true
	return true, nil
}

// Get returns an id for a key. Pending writes are committed first.
func (k *kvio) Get(key string) (int64, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.db == nil {
		return 0, false, errors.New("key-value store is not open")
	}

	if k.dirty {
		if err := k.txn.Commit(); err != nil {
			slog.Error("Cannot commit key/value transaction", "error", err)
			return 0, false, err
		}
		k.txn = k.db.NewTransaction(true)
		k.dirty = false
	}

	var res int64
	var found bool
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyBytes(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		found = true
		return k.enc.Decode(val, &res)
	})
	return res, found, err
}

func keyBytes(key string) []byte {
	u := gnuuid.New(key)
	return u[:]
}
