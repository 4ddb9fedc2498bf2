package redirects

import (
	"sort"
	"strings"

	"k8s.io/client-go/tools/cache"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
)

// Snapshot is an immutable view of every known redirect. Objects reachable
// from a snapshot are shared and must not be modified.
type Snapshot struct {
	items  []*v1alpha1.Redirect
	byKey  map[string]*v1alpha1.Redirect
	byHost map[string]*v1alpha1.Redirect
	// conflicts maps a host claimed more than once to the keys of the losing claims
	conflicts map[string][]string
}

var emptySnapshot = &Snapshot{
	byKey:     map[string]*v1alpha1.Redirect{},
	byHost:    map[string]*v1alpha1.Redirect{},
	conflicts: map[string][]string{},
}

// NewSnapshot indexes the given redirects. A host claimed by several
// redirects resolves to the one with the lexicographically smallest
// namespace/name key.
func NewSnapshot(objects []*v1alpha1.Redirect) *Snapshot {
	snap := &Snapshot{
		items:     make([]*v1alpha1.Redirect, 0, len(objects)),
		byKey:     make(map[string]*v1alpha1.Redirect, len(objects)),
		byHost:    map[string]*v1alpha1.Redirect{},
		conflicts: map[string][]string{},
	}
	for _, obj := range objects {
		key := Key(obj)
		if _, ok := snap.byKey[key]; ok {
			continue
		}
		snap.byKey[key] = obj
		snap.items = append(snap.items, obj)
	}
	sort.Slice(snap.items, func(i, j int) bool {
		return Key(snap.items[i]) < Key(snap.items[j])
	})

	for _, obj := range snap.items {
		for _, host := range obj.Spec.Hosts {
			host = normalizeHost(host)
			if host == "" {
				continue
			}
			winner, ok := snap.byHost[host]
			if !ok {
				snap.byHost[host] = obj
				continue
			}
			if winner != obj {
				snap.conflicts[host] = append(snap.conflicts[host], Key(obj))
			}
		}
	}
	return snap
}

// Len of the snapshot
func (s *Snapshot) Len() int {
	return len(s.items)
}

// Items returns all redirects ordered by key
func (s *Snapshot) Items() []*v1alpha1.Redirect {
	out := make([]*v1alpha1.Redirect, len(s.items))
	copy(out, s.items)
	return out
}

// Keys returns all namespace/name keys in order
func (s *Snapshot) Keys() []string {
	keys := make([]string, len(s.items))
	for i, obj := range s.items {
		keys[i] = Key(obj)
	}
	return keys
}

// Get a redirect by namespace/name key
func (s *Snapshot) Get(key string) (*v1alpha1.Redirect, bool) {
	obj, ok := s.byKey[key]
	return obj, ok
}

// Find returns the first redirect in key order matching predicate
func (s *Snapshot) Find(predicate func(*v1alpha1.Redirect) bool) (*v1alpha1.Redirect, bool) {
	for _, obj := range s.items {
		if predicate(obj) {
			return obj, true
		}
	}
	return nil, false
}

// FindByHost resolves a normalised request host
func (s *Snapshot) FindByHost(host string) (*v1alpha1.Redirect, bool) {
	obj, ok := s.byHost[normalizeHost(host)]
	return obj, ok
}

// Conflicts returns hosts claimed by more than one redirect, mapped to the
// keys whose claim is ignored
func (s *Snapshot) Conflicts() map[string][]string {
	out := make(map[string][]string, len(s.conflicts))
	for host, keys := range s.conflicts {
		out[host] = append([]string(nil), keys...)
	}
	return out
}

// Key of a redirect in namespace/name form
func Key(obj *v1alpha1.Redirect) string {
	key, err := cache.MetaNamespaceKeyFunc(obj)
	if err != nil {
		return obj.Namespace + "/" + obj.Name
	}
	return key
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimRight(host, "."))
}
