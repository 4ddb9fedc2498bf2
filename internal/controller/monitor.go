package controller

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/client-go/util/workqueue"
)

const subscriberSource = "controller"

// Monitor forwards redirect and ingress changes to the work queue of the
// current leader term. It runs on every replica, changes seen while not
// leading are dropped since Run enqueues every redirect on promotion.
// Monitor returns once ctx is done and the ingress watch has stopped.
func (c *Controller) Monitor(ctx context.Context) error {
	redirectChanged := make(chan string, 64)
	ingressChanged := make(chan *networkingv1.Ingress, 16)
	ingressDeleted := make(chan *networkingv1.Ingress, 16)

	c.store.Subscribe(subscriberSource, redirectChanged)
	c.ingresses.SubscribeIngressChanged(subscriberSource, ingressChanged)
	c.ingresses.SubscribeIngressDeleted(subscriberSource, ingressDeleted)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.ingresses.Watch(gctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case key := <-redirectChanged:
				c.enqueue(key)
			case ingress := <-ingressChanged:
				c.ingressChanged(ingress)
			case ingress := <-ingressDeleted:
				c.ingressChanged(ingress)
			}
		}
	})
	return g.Wait()
}

func (c *Controller) ingressChanged(ingress *networkingv1.Ingress) {
	if ingress.Namespace != c.config.SelfNamespace {
		return
	}
	key, ok := keyForIngress(ingress.Name)
	if !ok {
		return
	}
	if _, ok := c.store.Get(key); !ok {
		return
	}
	c.logger.Verbosef("Ingress %s/%s changed, queueing redirect %s", ingress.Namespace, ingress.Name, key)
	c.enqueue(key)
}

func (c *Controller) enqueue(key string) {
	c.queueLock.Lock()
	defer c.queueLock.Unlock()
	if c.queue != nil {
		c.queue.Add(key)
	}
}

// Run reconciles redirects until ctx is done, then waits for in-flight
// reconciliations. It is meant to be run once per leader term.
func (c *Controller) Run(ctx context.Context) {
	queue := workqueue.NewTypedDelayingQueueWithConfig(workqueue.TypedDelayingQueueConfig[string]{
		Name: "redirects",
	})

	c.queueLock.Lock()
	c.queue = queue
	c.queueLock.Unlock()

	keys := c.store.Keys()
	for _, key := range keys {
		queue.Add(key)
	}
	c.logger.Infof("Reconciling %d redirects with %d workers", len(keys), c.config.Concurrency)

	wg := &sync.WaitGroup{}
	for i := 0; i < c.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c.processNextItem(ctx, queue) {
			}
		}()
	}

	<-ctx.Done()
	c.queueLock.Lock()
	c.queue = nil
	c.queueLock.Unlock()

	queue.ShutDown()
	wg.Wait()
	c.logger.Info("Stopped reconciling redirects")
}

func (c *Controller) processNextItem(ctx context.Context, queue workqueue.TypedDelayingInterface[string]) bool {
	key, shutdown := queue.Get()
	if shutdown {
		return false
	}
	defer queue.Done(key)

	// drain without work once the term is over
	if ctx.Err() != nil {
		return true
	}

	redirect, ok := c.store.Get(key)
	if !ok {
		c.logger.Verbosef("Redirect %s is gone, skipping", key)
		return true
	}

	measurer := c.metrics.CountAndMeasure()
	action, err := c.Reconcile(ctx, redirect)
	measurer.Done()

	if err != nil {
		c.metrics.ReconcileFailure(key, MetricLabel(err))
		c.logger.Warningf("Reconciling redirect %s failed: %s", key, err)
		queue.AddAfter(key, c.config.RetryInterval)
		return true
	}
	c.logger.Verbosef("Reconciled redirect %s", key)
	queue.AddAfter(key, action.RequeueAfter)
	return true
}
