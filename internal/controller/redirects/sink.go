package redirects

import (
	"k8s.io/client-go/tools/cache"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
)

// sink adapts Store to the cache.Store interface the reflector writes to
type sink struct {
	store *Store
}

var _ cache.Store = &sink{}

func (k *sink) Add(obj interface{}) error {
	redirect, err := toRedirect(obj)
	if err != nil {
		return err
	}
	k.store.upsert(redirect)
	return nil
}

func (k *sink) Update(obj interface{}) error {
	return k.Add(obj)
}

func (k *sink) Delete(obj interface{}) error {
	if tombstone, ok := obj.(cache.DeletedFinalStateUnknown); ok {
		k.store.remove(tombstone.Key)
		return nil
	}
	redirect, err := toRedirect(obj)
	if err != nil {
		return err
	}
	k.store.remove(Key(redirect))
	return nil
}

func (k *sink) List() []interface{} {
	items := k.store.Snapshot().items
	out := make([]interface{}, len(items))
	for i, obj := range items {
		out[i] = obj
	}
	return out
}

func (k *sink) ListKeys() []string {
	return k.store.Keys()
}

func (k *sink) Get(obj interface{}) (interface{}, bool, error) {
	key, err := cache.DeletionHandlingMetaNamespaceKeyFunc(obj)
	if err != nil {
		return nil, false, err
	}
	return k.GetByKey(key)
}

func (k *sink) GetByKey(key string) (interface{}, bool, error) {
	obj, ok := k.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	return obj, true, nil
}

func (k *sink) Replace(list []interface{}, _ string) error {
	objs := make([]*v1alpha1.Redirect, 0, len(list))
	for _, item := range list {
		redirect, err := toRedirect(item)
		if err != nil {
			return err
		}
		objs = append(objs, redirect)
	}
	k.store.replace(objs)
	return nil
}

func (k *sink) Resync() error {
	return nil
}
