package controller

import (
	"context"
	"sync"

	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/client-go/util/workqueue"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
	"github.com/ibotty/kube-redirect-operator/internal/config"
	"github.com/ibotty/kube-redirect-operator/internal/logger"
	"github.com/ibotty/kube-redirect-operator/internal/metrics"
)

// RedirectStore is the read side of the redirect store used by the engine
type RedirectStore interface {
	Get(key string) (*v1alpha1.Redirect, bool)
	Keys() []string
	Subscribe(source string, ch chan<- string)
}

// IngressSource notifies about generated ingresses changing behind our back
type IngressSource interface {
	Watch(ctx context.Context) error
	SubscribeIngressChanged(source string, ch chan<- *networkingv1.Ingress)
	SubscribeIngressDeleted(source string, ch chan<- *networkingv1.Ingress)
}

// Controller reconciles redirects into ingresses while this replica leads
type Controller struct {
	logger    logger.Logger
	config    *config.Config
	cluster   Cluster
	store     RedirectStore
	metrics   *metrics.Metrics
	ingresses IngressSource
	finalizer string

	// queue is only set during a leader term
	queue     workqueue.TypedDelayingInterface[string]
	queueLock *sync.Mutex
}

// New controller
func New(logger logger.Logger, config *config.Config, cluster Cluster, store RedirectStore, metrics *metrics.Metrics, ingresses IngressSource) *Controller {
	return &Controller{
		logger:    logger,
		config:    config,
		cluster:   cluster,
		store:     store,
		metrics:   metrics,
		ingresses: ingresses,
		finalizer: Finalizer,
		queueLock: &sync.Mutex{},
	}
}
