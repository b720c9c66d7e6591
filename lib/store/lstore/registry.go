package lstore

import (
	"errors"
	"sort"

	"github.com/ValentinKolb/flatkv/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
)

// Registry keeps one open local store per dictionary id.
// Stores of different dictionaries can be used concurrently, each store serialises its own calls.
type Registry struct {
	open   func(id uint64) store.DBFactory
	stores *xsync.MapOf[uint64, store.IStore]
}

// NewRegistry creates a registry. open returns the factory used the first time a dictionary is requested.
func NewRegistry(open func(id uint64) store.DBFactory) *Registry {
	return &Registry{
		open:   open,
		stores: xsync.NewMapOf[uint64, store.IStore](),
	}
}

// Get returns the store of dictionary id, opening it on first use.
func (r *Registry) Get(id uint64) (store.IStore, error) {
	var openErr error
	s, _ := r.stores.Compute(id, func(old store.IStore, loaded bool) (store.IStore, bool) {
		if loaded {
			return old, false
		}
		s, err := NewLocalStore(r.open(id))
		if err != nil {
			openErr = err
			// do not store anything
			return nil, true
		}
		plog.Infof("opened dictionary %d", id)
		return s, false
	})
	if openErr != nil {
		return nil, openErr
	}
	return s, nil
}

// IDs returns the ids of all open dictionaries in ascending order
func (r *Registry) IDs() []uint64 {
	ids := make([]uint64, 0, r.stores.Size())
	r.stores.Range(func(id uint64, _ store.IStore) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close closes and forgets the store of dictionary id. Closing an unknown id is a no-op.
func (r *Registry) Close(id uint64) error {
	s, ok := r.stores.LoadAndDelete(id)
	if !ok {
		return nil
	}
	return s.Close()
}

// Destroy destroys and forgets the store of dictionary id, opening it first if necessary
func (r *Registry) Destroy(id uint64) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	r.stores.Delete(id)
	plog.Infof("destroying dictionary %d", id)
	return s.Destroy()
}

// CloseAll closes every open store and returns the joined errors
func (r *Registry) CloseAll() error {
	var errs []error
	for _, id := range r.IDs() {
		if err := r.Close(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
