package lstore

import (
	"errors"
	"sync"
	"testing"

	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/db/engines/flatfile"
	dbtesting "github.com/ValentinKolb/flatkv/lib/db/testing"
	"github.com/ValentinKolb/flatkv/lib/store"
	. "github.com/fulldump/biff"
	"github.com/spf13/afero"
)

func flatFileFactory(fs afero.Fs, id uint64, sorted bool) store.DBFactory {
	return func() (db.KVDB, error) {
		return flatfile.Open(id, &flatfile.Options{
			Fs:           fs,
			Dir:          "/data",
			KeyType:      db.KeyTypeNumericUnsigned,
			KeySize:      dbtesting.KeySize,
			ValueSize:    dbtesting.ValueSize,
			BufferedRows: 4,
			SortedMode:   sorted,
		})
	}
}

func newStore(t *testing.T, sorted bool) store.IStore {
	s, err := NewLocalStore(flatFileFactory(afero.NewMemMapFs(), 1, sorted))
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	return s
}

func code(err error) store.RetCode {
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return store.RetCSuccess
}

func TestLocalStore_Basic(t *testing.T) {
	s := newStore(t, false)
	defer s.Close()

	AssertNil(s.Insert(dbtesting.Key(1), dbtesting.Value(10)))

	value, loaded, err := s.Get(dbtesting.Key(1))
	AssertNil(err)
	AssertTrue(loaded)
	AssertEqual(value, dbtesting.Value(10))

	count, err := s.Update(dbtesting.Key(1), dbtesting.Value(11))
	AssertNil(err)
	AssertEqual(count, 1)

	pairs, err := s.Find(db.PredicateAll())
	AssertNil(err)
	AssertEqual(len(pairs), 1)
	AssertEqual(pairs[0].Value, dbtesting.Value(11))

	count, err = s.Delete(dbtesting.Key(1))
	AssertNil(err)
	AssertEqual(count, 1)

	_, loaded, err = s.Get(dbtesting.Key(1))
	AssertNil(err)
	AssertFalse(loaded)
}

func TestLocalStore_ErrorCodes(t *testing.T) {
	unsorted := newStore(t, false)
	defer unsorted.Close()

	_, err := unsorted.Delete(dbtesting.Key(1))
	AssertEqual(code(err), store.RetCNotFound)
	AssertTrue(errors.Is(err, db.ErrItemNotFound))

	err = unsorted.Insert([]byte{1}, dbtesting.Value(1))
	AssertEqual(code(err), store.RetCInvalidOperation)
	AssertTrue(errors.Is(err, db.ErrInvalidArgument))

	sorted := newStore(t, true)
	defer sorted.Close()

	AssertNil(sorted.Insert(dbtesting.Key(5), dbtesting.Value(5)))
	err = sorted.Insert(dbtesting.Key(4), dbtesting.Value(4))
	AssertEqual(code(err), store.RetCInvalidOperation)
	AssertTrue(errors.Is(err, db.ErrSortedOrderViolation))

	_, err = sorted.Delete(dbtesting.Key(5))
	AssertEqual(code(err), store.RetCUnsupportedOperation)
}

func TestLocalStore_Closed(t *testing.T) {
	s := newStore(t, false)
	AssertNil(s.Close())

	_, _, err := s.Get(dbtesting.Key(1))
	AssertEqual(code(err), store.RetCInvalidOperation)
	AssertTrue(errors.Is(err, db.ErrClosed))
}

func TestLocalStore_FactoryError(t *testing.T) {
	_, err := NewLocalStore(func() (db.KVDB, error) {
		return nil, db.ErrFileOpen
	})
	AssertEqual(code(err), store.RetCInternalError)
	AssertTrue(errors.Is(err, db.ErrFileOpen))
}

func TestLocalStore_Stats(t *testing.T) {
	s := newStore(t, false)
	defer s.Close()

	s.Insert(dbtesting.Key(1), dbtesting.Value(1))
	s.Insert(dbtesting.Key(2), dbtesting.Value(2))
	s.Get(dbtesting.Key(1))
	s.Delete(dbtesting.Key(3))

	AssertEqual(s.GetStats(), store.Stats{Inserts: 2, Gets: 1, Deletes: 1, Errors: 1})
}

func TestLocalStore_Concurrent(t *testing.T) {
	s := newStore(t, false)
	defer s.Close()

	workers, perWorker := 8, 50

	wg := &sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				k := uint64(w*perWorker + i)
				if err := s.Insert(dbtesting.Key(k), dbtesting.Value(k)); err != nil {
					t.Errorf("Insert(%d) failed: %v", k, err)
				}
			}
		}(w)
	}
	wg.Wait()

	pairs, err := s.Find(db.PredicateAll())
	AssertNil(err)
	AssertEqual(len(pairs), workers*perWorker)
}

func TestRegistry(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := NewRegistry(func(id uint64) store.DBFactory {
		return flatFileFactory(fs, id, false)
	})

	first, err := r.Get(7)
	AssertNil(err)
	again, err := r.Get(7)
	AssertNil(err)
	AssertTrue(first == again)

	_, err = r.Get(3)
	AssertNil(err)
	AssertEqual(r.IDs(), []uint64{3, 7})

	AssertNil(first.Insert(dbtesting.Key(1), dbtesting.Value(1)))
	AssertNil(r.Close(7))
	AssertNil(r.Close(7))
	AssertEqual(r.IDs(), []uint64{3})

	// reopening reads the persisted data
	reopened, err := r.Get(7)
	AssertNil(err)
	_, loaded, err := reopened.Get(dbtesting.Key(1))
	AssertNil(err)
	AssertTrue(loaded)

	AssertNil(r.CloseAll())
	AssertEqual(len(r.IDs()), 0)
}

func TestRegistry_OpenError(t *testing.T) {
	r := NewRegistry(func(id uint64) store.DBFactory {
		return flatFileFactory(afero.NewMemMapFs(), id, false)
	})

	// the filename of this id is too long
	_, err := r.Get(1_000_000_000_000_000)
	AssertTrue(errors.Is(err, db.ErrUninitialized))
	AssertEqual(len(r.IDs()), 0)
}

func TestRegistry_Destroy(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := NewRegistry(func(id uint64) store.DBFactory {
		return flatFileFactory(fs, id, false)
	})

	s, err := r.Get(2)
	AssertNil(err)
	AssertNil(s.Insert(dbtesting.Key(1), dbtesting.Value(1)))

	AssertNil(r.Destroy(2))
	AssertEqual(len(r.IDs()), 0)
	exists, err := afero.Exists(fs, "/data/2.ffs")
	AssertNil(err)
	AssertFalse(exists)

	// the next Get starts from an empty dictionary
	s, err = r.Get(2)
	AssertNil(err)
	_, loaded, err := s.Get(dbtesting.Key(1))
	AssertNil(err)
	AssertFalse(loaded)
	AssertNil(r.CloseAll())
}
