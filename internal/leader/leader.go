package leader

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/ibotty/kube-redirect-operator/internal/config"
	"github.com/ibotty/kube-redirect-operator/internal/logger"
	"github.com/ibotty/kube-redirect-operator/internal/metrics"
)

// Coordinator campaigns for a lease and runs work while holding it
type Coordinator struct {
	logger  logger.Logger
	config  *config.Config
	lock    resourcelock.Interface
	metrics *metrics.Metrics

	// isLeader is only written by the election callbacks
	isLeader atomic.Bool
	// running is held for the duration of a leader term
	running *sync.Mutex
}

// New Coordinator
func New(logger logger.Logger, config *config.Config, lock resourcelock.Interface, metrics *metrics.Metrics) *Coordinator {
	return &Coordinator{
		logger:  logger,
		config:  config,
		lock:    lock,
		metrics: metrics,
		running: &sync.Mutex{},
	}
}

// NewLeaseLock over a coordination.k8s.io Lease
func NewLeaseLock(client kubernetes.Interface, namespace, name, identity string) *resourcelock.LeaseLock {
	return &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{Namespace: namespace, Name: name},
		Client:    client.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: identity,
		},
	}
}

// IsLeader reports whether a leader term is currently running
func (c *Coordinator) IsLeader() bool {
	return c.isLeader.Load()
}

// Run campaigns until ctx is done. onLeading runs with a context cancelled
// when renewal fails or ctx ends, terms never overlap. A lost lease starts a
// new campaign. On shutdown the lease is released once onLeading returned.
func (c *Coordinator) Run(ctx context.Context, onLeading func(context.Context)) error {
	for ctx.Err() == nil {
		elector, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            c.lock,
			Name:            c.config.LeaseName,
			LeaseDuration:   c.config.LeaseDuration,
			RenewDeadline:   c.config.RenewDeadline,
			RetryPeriod:     c.config.RetryPeriod,
			ReleaseOnCancel: false,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(leaderCtx context.Context) {
					c.lead(leaderCtx, onLeading)
				},
				OnStoppedLeading: func() {
					c.setLeader(false)
				},
				OnNewLeader: func(identity string) {
					if identity != c.lock.Identity() {
						c.logger.Infof("Lease %s is held by %s", c.config.LeaseName, identity)
					}
				},
			},
		})
		if err != nil {
			return c.logger.Errorf("Unable to set up leader election %s", err)
		}
		elector.Run(ctx)
		if ctx.Err() == nil {
			c.logger.Warning("Lost leadership, campaigning again")
		}
	}

	// wait for the last term to drain before handing over
	c.running.Lock()
	defer c.running.Unlock()
	c.release()
	return nil
}

func (c *Coordinator) lead(ctx context.Context, onLeading func(context.Context)) {
	c.running.Lock()
	defer c.running.Unlock()

	// the term may have ended while the previous one was draining
	if ctx.Err() != nil {
		return
	}
	c.logger.Infof("Acquired lease %s as %s", c.config.LeaseName, c.lock.Identity())
	c.setLeader(true)
	defer c.setLeader(false)
	onLeading(ctx)
	c.logger.Info("Leader term ended")
}

func (c *Coordinator) setLeader(leading bool) {
	c.isLeader.Store(leading)
	c.metrics.SetLeader(leading)
}

// release hands the lease over by expiring it, if it is still ours
func (c *Coordinator) release() {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.RenewDeadline)
	defer cancel()

	record, _, err := c.lock.Get(ctx)
	if err != nil {
		c.logger.Warningf("Unable to read lease %s on shutdown %s", c.config.LeaseName, err)
		return
	}
	if record.HolderIdentity != c.lock.Identity() {
		return
	}

	now := metav1.NewTime(time.Now())
	err = c.lock.Update(ctx, resourcelock.LeaderElectionRecord{
		LeaderTransitions:    record.LeaderTransitions,
		LeaseDurationSeconds: 1,
		RenewTime:            now,
		AcquireTime:          now,
	})
	if err != nil {
		c.logger.Warningf("Unable to release lease %s %s", c.config.LeaseName, err)
		return
	}
	c.logger.Infof("Released lease %s", c.config.LeaseName)
}
