package ingress

import (
	"context"
	"fmt"
	"sync"
	"time"

	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"

	"github.com/ibotty/kube-redirect-operator/internal/logger"
)

var errChannelClosed = fmt.Errorf("Closed listening channel")

// DefaultBackoff before a failed watch is restarted
const DefaultBackoff = 2 * time.Second

// IngressWatcher watches ingresses in one namespace
type IngressWatcher struct {
	client                        kubernetes.Interface
	logger                        logger.Logger
	namespaceName                 string
	backoff                       time.Duration
	ingressChangedSubscribers     map[string]chan<- *networkingv1.Ingress
	ingressChangedSubscribersLock *sync.Mutex
	ingressDeletedSubscribers     map[string]chan<- *networkingv1.Ingress
	ingressDeletedSubscribersLock *sync.Mutex
}

// New IngressWatcher
func New(logger logger.Logger, client kubernetes.Interface, namespaceName string) *IngressWatcher {
	return &IngressWatcher{
		client:                        client,
		logger:                        logger,
		namespaceName:                 namespaceName,
		backoff:                       DefaultBackoff,
		ingressChangedSubscribers:     map[string]chan<- *networkingv1.Ingress{},
		ingressChangedSubscribersLock: &sync.Mutex{},
		ingressDeletedSubscribers:     map[string]chan<- *networkingv1.Ingress{},
		ingressDeletedSubscribersLock: &sync.Mutex{},
	}
}

// Watch for ingress changes until ctx is done. Closed watches resume from
// the last seen resource version, failed watches start over. Both are
// restarted after a jittered backoff.
func (w *IngressWatcher) Watch(ctx context.Context) error {
	resourceVersion := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		var err error
		resourceVersion, err = w.watchIngress(ctx, w.namespaceName, resourceVersion)
		if err != nil && err != errChannelClosed {
			w.logger.Warningf("Ingress watch in namespace %s returned error %s", w.namespaceName, err)
			resourceVersion = ""
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait.Jitter(w.backoff, 0.5)):
		}
	}
}

// SubscribeIngressChanged adds channel
func (w *IngressWatcher) SubscribeIngressChanged(source string, add chan<- *networkingv1.Ingress) {
	w.ingressChangedSubscribersLock.Lock()
	defer w.ingressChangedSubscribersLock.Unlock()
	w.ingressChangedSubscribers[source] = add
}

// SubscribeIngressDeleted adds channel
func (w *IngressWatcher) SubscribeIngressDeleted(source string, add chan<- *networkingv1.Ingress) {
	w.ingressDeletedSubscribersLock.Lock()
	defer w.ingressDeletedSubscribersLock.Unlock()
	w.ingressDeletedSubscribers[source] = add
}

func (w *IngressWatcher) publishIngressChanged(ctx context.Context, ingress *networkingv1.Ingress) {
	w.ingressChangedSubscribersLock.Lock()
	defer w.ingressChangedSubscribersLock.Unlock()

	for _, ch := range w.ingressChangedSubscribers {
		select {
		case ch <- ingress:
		case <-ctx.Done():
			return
		}
	}
}

func (w *IngressWatcher) publishIngressDeleted(ctx context.Context, ingress *networkingv1.Ingress) {
	w.ingressDeletedSubscribersLock.Lock()
	defer w.ingressDeletedSubscribersLock.Unlock()

	for _, ch := range w.ingressDeletedSubscribers {
		select {
		case ch <- ingress:
		case <-ctx.Done():
			return
		}
	}
}

// watchIngress returns the resource version to resume from
func (w *IngressWatcher) watchIngress(ctx context.Context, namespace string, resourceVersion string) (string, error) {
	ingressNamespace := w.client.NetworkingV1().Ingresses(namespace)
	ingressChanges, err := ingressNamespace.Watch(ctx, metav1.ListOptions{
		ResourceVersion:     resourceVersion,
		AllowWatchBookmarks: true,
	})
	if err != nil {
		return resourceVersion, err
	}
	defer ingressChanges.Stop()

	for {
		select {
		case <-ctx.Done():
			return resourceVersion, nil
		case event, ok := <-ingressChanges.ResultChan():
			if !ok {
				return resourceVersion, errChannelClosed
			}
			if err := w.processEvent(ctx, event, namespace); err != nil {
				return resourceVersion, err
			}
			if ingress, ok := event.Object.(*networkingv1.Ingress); ok && ingress.ResourceVersion != "" {
				resourceVersion = ingress.ResourceVersion
			}
		}
	}
}

func (w *IngressWatcher) processEvent(ctx context.Context, event watch.Event, namespace string) error {
	if event.Type == watch.Error {
		return fmt.Errorf("watch error event: %v", event.Object)
	}
	if event.Object == nil {
		w.logger.Verbosef("Received empty payload watching ingresses, type %s in %s", event.Type, namespace)
		return nil
	}
	ingress, ok := event.Object.(*networkingv1.Ingress)
	if !ok {
		w.logger.Verbosef("Received unexpected object %T watching ingresses in namespace %s", event.Object, namespace)
		return nil
	}
	switch event.Type {
	case watch.Added, watch.Modified:
		w.publishIngressChanged(ctx, ingress)
	case watch.Deleted:
		w.publishIngressDeleted(ctx, ingress)
	case watch.Bookmark:
	default:
		w.logger.Verbosef("Received unknown message type %s watching ingresses in namespace %s", event.Type, namespace)
	}
	return nil
}
