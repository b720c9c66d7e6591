package lstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var plog = logger.GetLogger("store")

type storeImpl struct {
	// the engines are not thread-safe, every call into db holds mu
	mu sync.Mutex
	db db.KVDB

	inserts *xsync.Counter
	gets    *xsync.Counter
	updates *xsync.Counter
	deletes *xsync.Counter
	finds   *xsync.Counter
	errors  *xsync.Counter
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// The database returned by factory is owned by the store and closed by Close.
func NewLocalStore(factory store.DBFactory) (store.IStore, error) {
	database, err := factory()
	if err != nil {
		return nil, toStoreError("open", err)
	}
	return &storeImpl{
		db:      database,
		inserts: xsync.NewCounter(),
		gets:    xsync.NewCounter(),
		updates: xsync.NewCounter(),
		deletes: xsync.NewCounter(),
		finds:   xsync.NewCounter(),
		errors:  xsync.NewCounter(),
	}, nil
}

// toStoreError maps the sentinel errors of the db package to store return codes
func toStoreError(op string, err error) *store.Error {
	msg := op + " failed"
	switch {
	case errors.Is(err, db.ErrItemNotFound):
		return store.WrapError(store.RetCNotFound, msg, err)
	case errors.Is(err, db.ErrSortedOrderViolation),
		errors.Is(err, db.ErrInvalidArgument),
		errors.Is(err, db.ErrClosed):
		return store.WrapError(store.RetCInvalidOperation, msg, err)
	default:
		return store.WrapError(store.RetCInternalError, msg, err)
	}
}

// fail counts and logs an engine error and converts it into a *store.Error
func (s *storeImpl) fail(op string, err error) *store.Error {
	s.errors.Inc()
	storeErr := toStoreError(op, err)
	if storeErr.Code == store.RetCInternalError {
		plog.Errorf("%s: %v", op, err)
	} else {
		plog.Debugf("%s: %v", op, err)
	}
	return storeErr
}

// require checks that the underlying database supports feature
func (s *storeImpl) require(feature db.Feature) error {
	if !s.db.SupportsFeature(feature) {
		s.errors.Inc()
		return store.NewError(store.RetCUnsupportedOperation, fmt.Sprintf("%s operation is not supported", feature))
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Insert(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require(db.FeatureInsert); err != nil {
		return err
	}
	s.inserts.Inc()
	if _, err := s.db.Insert(key, value); err != nil {
		return s.fail("insert", err)
	}
	return nil
}

func (s *storeImpl) Update(key, value []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require(db.FeatureUpdate); err != nil {
		return 0, err
	}
	s.updates.Inc()
	count, err := s.db.Update(key, value)
	if err != nil {
		return count, s.fail("update", err)
	}
	return count, nil
}

func (s *storeImpl) Delete(key []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require(db.FeatureDelete); err != nil {
		return 0, err
	}
	s.deletes.Inc()
	count, err := s.db.Delete(key)
	if err != nil {
		return count, s.fail("delete", err)
	}
	return count, nil
}

func (s *storeImpl) Get(key []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require(db.FeatureGet); err != nil {
		return nil, false, err
	}
	s.gets.Inc()
	val, err := s.db.Get(key)
	if errors.Is(err, db.ErrItemNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.fail("get", err)
	}
	return val, true, nil
}

func (s *storeImpl) Find(predicate db.Predicate) ([]store.Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require(db.FeatureFind); err != nil {
		return nil, err
	}
	s.finds.Inc()

	cursor, err := s.db.Find(predicate)
	if err != nil {
		return nil, s.fail("find", err)
	}
	defer cursor.Close()

	var pairs []store.Pair
	for cursor.Next() {
		pairs = append(pairs, store.Pair{Key: cursor.Key(), Value: cursor.Value()})
	}
	if err := cursor.Err(); err != nil {
		return pairs, s.fail("find", err)
	}
	return pairs, nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetInfo(), nil
}

func (s *storeImpl) GetStats() store.Stats {
	return store.Stats{
		Inserts: s.inserts.Value(),
		Gets:    s.gets.Value(),
		Updates: s.updates.Value(),
		Deletes: s.deletes.Value(),
		Finds:   s.finds.Value(),
		Errors:  s.errors.Value(),
	}
}

func (s *storeImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return s.fail("close", err)
	}
	return nil
}

func (s *storeImpl) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require(db.FeatureDestroy); err != nil {
		return err
	}
	if err := s.db.Destroy(); err != nil {
		return s.fail("destroy", err)
	}
	return nil
}
