package redirects

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"k8s.io/client-go/tools/cache"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
	"github.com/ibotty/kube-redirect-operator/internal/logger"
)

// Store keeps an atomically swapped snapshot of all redirects. A single
// reflector writes, any number of readers query without locking.
type Store struct {
	logger logger.Logger

	// writeLock serialises writers, objects is only touched while holding it
	writeLock *sync.Mutex
	objects   map[string]*v1alpha1.Redirect
	current   atomic.Pointer[Snapshot]
	synced    atomic.Bool

	subscribers     map[string]chan<- string
	subscribersLock *sync.Mutex
	// stopped unblocks publishing once Run is over
	stopped <-chan struct{}
}

// New Store
func New(logger logger.Logger) *Store {
	s := &Store{
		logger:          logger,
		writeLock:       &sync.Mutex{},
		objects:         map[string]*v1alpha1.Redirect{},
		subscribers:     map[string]chan<- string{},
		subscribersLock: &sync.Mutex{},
	}
	s.current.Store(emptySnapshot)
	return s
}

// Run feeds the store from lw until ctx is done. Watch failures are retried
// by the reflector, which resumes from the last resource version or relists.
func (s *Store) Run(ctx context.Context, lw cache.ListerWatcher) error {
	s.subscribersLock.Lock()
	s.stopped = ctx.Done()
	s.subscribersLock.Unlock()

	reflector := cache.NewReflectorWithOptions(lw, &v1alpha1.Redirect{}, &sink{store: s}, cache.ReflectorOptions{
		Name: "redirects",
	})
	s.logger.Info("Starting redirect reflector")
	reflector.Run(ctx.Done())
	s.logger.Info("Stopped redirect reflector")
	return nil
}

// Snapshot returns the current snapshot
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Find the first redirect matching predicate in the current snapshot
func (s *Store) Find(predicate func(*v1alpha1.Redirect) bool) (*v1alpha1.Redirect, bool) {
	return s.Snapshot().Find(predicate)
}

// FindByHost resolves a host in the current snapshot
func (s *Store) FindByHost(host string) (*v1alpha1.Redirect, bool) {
	return s.Snapshot().FindByHost(host)
}

// Get a redirect by namespace/name key
func (s *Store) Get(key string) (*v1alpha1.Redirect, bool) {
	return s.Snapshot().Get(key)
}

// Keys of all redirects in the current snapshot
func (s *Store) Keys() []string {
	return s.Snapshot().Keys()
}

// HasSynced reports whether the first full list has been stored
func (s *Store) HasSynced() bool {
	return s.synced.Load()
}

// Subscribe receives the key of every added, changed or removed redirect
func (s *Store) Subscribe(source string, ch chan<- string) {
	s.subscribersLock.Lock()
	defer s.subscribersLock.Unlock()
	s.subscribers[source] = ch
}

func (s *Store) publish(keys []string) {
	if len(keys) == 0 {
		return
	}
	s.subscribersLock.Lock()
	defer s.subscribersLock.Unlock()

	for _, key := range keys {
		for _, ch := range s.subscribers {
			select {
			case ch <- key:
			case <-s.stopped:
				return
			}
		}
	}
}

// upsert stores objs and returns the keys whose resource version changed
func (s *Store) upsert(objs ...*v1alpha1.Redirect) []string {
	s.writeLock.Lock()
	changed := []string{}
	for _, obj := range objs {
		key := Key(obj)
		if prev, ok := s.objects[key]; ok && prev.ResourceVersion == obj.ResourceVersion && obj.ResourceVersion != "" {
			continue
		}
		s.objects[key] = obj
		changed = append(changed, key)
	}
	if len(changed) > 0 {
		s.swap()
	}
	s.writeLock.Unlock()

	s.publish(changed)
	return changed
}

func (s *Store) remove(key string) {
	s.writeLock.Lock()
	_, ok := s.objects[key]
	if ok {
		delete(s.objects, key)
		s.swap()
	}
	s.writeLock.Unlock()

	if ok {
		s.publish([]string{key})
	}
}

// replace swaps the full content, e.g. after a relist
func (s *Store) replace(objs []*v1alpha1.Redirect) {
	s.writeLock.Lock()
	next := make(map[string]*v1alpha1.Redirect, len(objs))
	changed := []string{}
	for _, obj := range objs {
		key := Key(obj)
		next[key] = obj
		if prev, ok := s.objects[key]; !ok || prev.ResourceVersion != obj.ResourceVersion {
			changed = append(changed, key)
		}
	}
	for key := range s.objects {
		if _, ok := next[key]; !ok {
			changed = append(changed, key)
		}
	}
	s.objects = next
	s.swap()
	s.writeLock.Unlock()

	if !s.synced.Swap(true) {
		s.logger.Infof("Redirect store synced with %d redirects", len(objs))
	}
	sort.Strings(changed)
	s.publish(changed)
}

// swap must be called while holding writeLock
func (s *Store) swap() {
	objs := make([]*v1alpha1.Redirect, 0, len(s.objects))
	for _, obj := range s.objects {
		objs = append(objs, obj)
	}
	next := NewSnapshot(objs)
	prev := s.current.Swap(next)

	for host, losers := range next.conflicts {
		if prevLosers, ok := prev.conflicts[host]; ok && equalKeys(prevLosers, losers) {
			continue
		}
		winner, _ := next.FindByHost(host)
		s.logger.Warningf("Host %s is claimed by several redirects, %s wins over %s",
			host, Key(winner), strings.Join(losers, ", "))
	}
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func toRedirect(obj interface{}) (*v1alpha1.Redirect, error) {
	switch o := obj.(type) {
	case *v1alpha1.Redirect:
		return o, nil
	case cache.DeletedFinalStateUnknown:
		return toRedirect(o.Obj)
	default:
		return nil, fmt.Errorf("unexpected object type %T", obj)
	}
}
