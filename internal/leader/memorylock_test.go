package leader

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/tools/leaderelection/resourcelock"
)

var leases = schema.GroupResource{Group: "coordination.k8s.io", Resource: "leases"}

var errBlocked = errors.New("lease backend unreachable")

// memoryBackend is a lease shared by several memoryLock handles
type memoryBackend struct {
	lock    sync.Mutex
	record  *resourcelock.LeaderElectionRecord
	version int
	blocked map[string]bool
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{blocked: map[string]bool{}}
}

func (b *memoryBackend) Block(identity string, blocked bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.blocked[identity] = blocked
}

func (b *memoryBackend) Record() *resourcelock.LeaderElectionRecord {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.record == nil {
		return nil
	}
	record := *b.record
	return &record
}

func (b *memoryBackend) Lock(identity string) *memoryLock {
	return &memoryLock{backend: b, identity: identity}
}

// memoryLock implements resourcelock.Interface with optimistic versioning
// tracked per handle, like a LeaseLock caching the last lease it saw
type memoryLock struct {
	backend  *memoryBackend
	identity string
	version  int
}

var _ resourcelock.Interface = &memoryLock{}

func (l *memoryLock) Get(_ context.Context) (*resourcelock.LeaderElectionRecord, []byte, error) {
	b := l.backend
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.blocked[l.identity] {
		return nil, nil, errBlocked
	}
	if b.record == nil {
		return nil, nil, apierrors.NewNotFound(leases, "test")
	}
	record := *b.record
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, nil, err
	}
	l.version = b.version
	return &record, raw, nil
}

func (l *memoryLock) Create(_ context.Context, ler resourcelock.LeaderElectionRecord) error {
	b := l.backend
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.blocked[l.identity] {
		return errBlocked
	}
	if b.record != nil {
		return apierrors.NewAlreadyExists(leases, "test")
	}
	b.record = &ler
	b.version++
	l.version = b.version
	return nil
}

func (l *memoryLock) Update(_ context.Context, ler resourcelock.LeaderElectionRecord) error {
	b := l.backend
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.blocked[l.identity] {
		return errBlocked
	}
	if b.record == nil {
		return errors.New("lease not initialized, call get or create first")
	}
	if l.version != b.version {
		return apierrors.NewConflict(leases, "test", errors.New("stale lease version"))
	}
	b.record = &ler
	b.version++
	l.version = b.version
	return nil
}

func (l *memoryLock) RecordEvent(string) {}

func (l *memoryLock) Identity() string {
	return l.identity
}

func (l *memoryLock) Describe() string {
	return "memory/test"
}

func recordFor(identity string) resourcelock.LeaderElectionRecord {
	now := metav1.Now()
	return resourcelock.LeaderElectionRecord{
		HolderIdentity:       identity,
		LeaseDurationSeconds: 15,
		AcquireTime:          now,
		RenewTime:            now,
	}
}
