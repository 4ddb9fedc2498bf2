package controller

import (
	"context"
	"sync"

	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
)

// fakeCluster records every write and keeps the resulting state in memory
type fakeCluster struct {
	lock       sync.Mutex
	calls      []string
	ingresses  map[string]*networkingv1.Ingress
	statuses   map[string]v1alpha1.RedirectStatus
	finalizers map[string][]string
	errs       map[string]error
	// hook runs inside every call with the call context
	hook func(ctx context.Context, op string)
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{
		ingresses:  map[string]*networkingv1.Ingress{},
		statuses:   map[string]v1alpha1.RedirectStatus{},
		finalizers: map[string][]string{},
		errs:       map[string]error{},
	}
}

func (f *fakeCluster) record(ctx context.Context, op string) error {
	f.lock.Lock()
	f.calls = append(f.calls, op)
	hook := f.hook
	err := f.errs[op]
	f.lock.Unlock()

	if hook != nil {
		hook(ctx, op)
	}
	return err
}

func (f *fakeCluster) Calls() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeCluster) Reset() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = nil
}

func (f *fakeCluster) Ingress(namespace, name string) *networkingv1.Ingress {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.ingresses[namespaceFormat(namespace, name)]
}

func (f *fakeCluster) Status(key string) (v1alpha1.RedirectStatus, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	status, ok := f.statuses[key]
	return status, ok
}

func (f *fakeCluster) ApplyIngress(ctx context.Context, ingress *networkingv1.Ingress) error {
	if err := f.record(ctx, "apply"); err != nil {
		return err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	obj := ingress.DeepCopy()
	obj.ManagedFields = []metav1.ManagedFieldsEntry{{Manager: FieldManager, Operation: metav1.ManagedFieldsOperationApply}}
	f.ingresses[namespaceFormat(obj.Namespace, obj.Name)] = obj
	return nil
}

func (f *fakeCluster) GetIngress(ctx context.Context, namespace, name string) (*networkingv1.Ingress, error) {
	if err := f.record(ctx, "get"); err != nil {
		return nil, err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	obj, ok := f.ingresses[namespaceFormat(namespace, name)]
	if !ok {
		return nil, nil
	}
	return obj.DeepCopy(), nil
}

func (f *fakeCluster) DeleteIngress(ctx context.Context, namespace, name string) error {
	if err := f.record(ctx, "delete"); err != nil {
		return err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.ingresses, namespaceFormat(namespace, name))
	return nil
}

func (f *fakeCluster) PatchRedirectStatus(ctx context.Context, redirect *v1alpha1.Redirect, status v1alpha1.RedirectStatus) error {
	if err := f.record(ctx, "status"); err != nil {
		return err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.statuses[namespaceFormat(redirect.Namespace, redirect.Name)] = status
	return nil
}

func (f *fakeCluster) AddFinalizer(ctx context.Context, redirect *v1alpha1.Redirect, finalizer string) error {
	if err := f.record(ctx, "addFinalizer"); err != nil {
		return err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	obj := redirect.DeepCopy()
	controllerutil.AddFinalizer(obj, finalizer)
	f.finalizers[namespaceFormat(redirect.Namespace, redirect.Name)] = obj.Finalizers
	return nil
}

func (f *fakeCluster) RemoveFinalizer(ctx context.Context, redirect *v1alpha1.Redirect, finalizer string) error {
	if err := f.record(ctx, "removeFinalizer"); err != nil {
		return err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	obj := redirect.DeepCopy()
	controllerutil.RemoveFinalizer(obj, finalizer)
	f.finalizers[namespaceFormat(redirect.Namespace, redirect.Name)] = obj.Finalizers
	return nil
}

// fakeStore is an in-memory RedirectStore
type fakeStore struct {
	lock        sync.Mutex
	objects     map[string]*v1alpha1.Redirect
	subscribers []chan<- string
}

func newFakeStore(objs ...*v1alpha1.Redirect) *fakeStore {
	s := &fakeStore{objects: map[string]*v1alpha1.Redirect{}}
	for _, obj := range objs {
		s.objects[namespaceFormat(obj.Namespace, obj.Name)] = obj
	}
	return s
}

func (s *fakeStore) Get(key string) (*v1alpha1.Redirect, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

func (s *fakeStore) Keys() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}
	return keys
}

func (s *fakeStore) Subscribe(_ string, ch chan<- string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.subscribers = append(s.subscribers, ch)
}

func (s *fakeStore) Put(obj *v1alpha1.Redirect) {
	key := namespaceFormat(obj.Namespace, obj.Name)
	s.lock.Lock()
	s.objects[key] = obj
	subscribers := append([]chan<- string{}, s.subscribers...)
	s.lock.Unlock()
	for _, ch := range subscribers {
		ch <- key
	}
}

// fakeIngressSource lets tests emit ingress events
type fakeIngressSource struct {
	lock    sync.Mutex
	changed []chan<- *networkingv1.Ingress
	deleted []chan<- *networkingv1.Ingress
	// watch replaces the default watch, which blocks until ctx is done
	watch func(ctx context.Context) error
}

func (s *fakeIngressSource) Watch(ctx context.Context) error {
	if s.watch != nil {
		return s.watch(ctx)
	}
	<-ctx.Done()
	return nil
}

func (s *fakeIngressSource) SubscribeIngressChanged(_ string, ch chan<- *networkingv1.Ingress) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.changed = append(s.changed, ch)
}

func (s *fakeIngressSource) SubscribeIngressDeleted(_ string, ch chan<- *networkingv1.Ingress) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.deleted = append(s.deleted, ch)
}

func (s *fakeIngressSource) Subscribed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.changed) > 0 && len(s.deleted) > 0
}

func (s *fakeIngressSource) Delete(ingress *networkingv1.Ingress) {
	s.lock.Lock()
	subscribers := append([]chan<- *networkingv1.Ingress{}, s.deleted...)
	s.lock.Unlock()
	for _, ch := range subscribers {
		ch <- ingress
	}
}
