package controller

import (
	"context"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
)

// Reconcile runs one attempt of the finalizer protocol for redirect and
// returns the first error encountered. redirect is not modified.
func (c *Controller) Reconcile(ctx context.Context, redirect *v1alpha1.Redirect) (Action, error) {
	if redirect.Name == "" || redirect.Namespace == "" {
		return Action{}, newError(UnnamedObject, nil)
	}
	if errs := validation.IsQualifiedName(c.finalizer); len(errs) > 0 {
		return Action{}, newError(InvalidFinalizer, fmt.Errorf("%s", strings.Join(errs, "; ")))
	}

	switch phaseFor(redirect) {
	case CleaningUp:
		if !controllerutil.ContainsFinalizer(redirect, c.finalizer) {
			return c.requeue(), nil
		}
		if err := c.cleanup(ctx, redirect); err != nil {
			return Action{}, err
		}
		err := c.call(ctx, func(ctx context.Context) error {
			return c.cluster.RemoveFinalizer(ctx, redirect, c.finalizer)
		})
		if err != nil {
			return Action{}, newError(RemoveFinalizerFailed, err)
		}
		c.logger.Infof("Cleaned up redirect %s/%s", redirect.Namespace, redirect.Name)
		return c.requeue(), nil
	default:
		if !controllerutil.ContainsFinalizer(redirect, c.finalizer) {
			err := c.call(ctx, func(ctx context.Context) error {
				return c.cluster.AddFinalizer(ctx, redirect, c.finalizer)
			})
			if err != nil {
				return Action{}, newError(AddFinalizerFailed, err)
			}
		}
		if err := c.apply(ctx, redirect); err != nil {
			return Action{}, err
		}
		return c.requeue(), nil
	}
}

func (c *Controller) requeue() Action {
	return Action{RequeueAfter: c.config.RequeueInterval}
}

func (c *Controller) apply(ctx context.Context, redirect *v1alpha1.Redirect) error {
	c.logger.Verbosef("Applying redirect %s/%s", redirect.Namespace, redirect.Name)

	status := v1alpha1.RedirectStatus{}
	if redirect.Spec.Ingress.IsEnabled() {
		ingress := ingressForRedirect(redirect, c.config)
		err := c.call(ctx, func(ctx context.Context) error {
			return c.cluster.ApplyIngress(ctx, ingress)
		})
		if err != nil {
			return newError(RoutingObjectCreateFailed, err)
		}
		status.Ingress = v1alpha1.RedirectStatusIngress{
			Name:      ingress.Name,
			Namespace: ingress.Namespace,
		}
	} else if err := c.deleteStaleIngress(ctx, redirect); err != nil {
		return newError(RoutingObjectDeleteFailed, err)
	}

	err := c.call(ctx, func(ctx context.Context) error {
		return c.cluster.PatchRedirectStatus(ctx, redirect, status)
	})
	if err != nil {
		return newError(StatusUpdateFailed, err)
	}
	return nil
}

// deleteStaleIngress removes an ingress generated before routing was disabled.
// Ingresses not applied by this controller are left alone.
func (c *Controller) deleteStaleIngress(ctx context.Context, redirect *v1alpha1.Redirect) error {
	name := IngressName(redirect)
	return c.call(ctx, func(ctx context.Context) error {
		existing, err := c.cluster.GetIngress(ctx, c.config.SelfNamespace, name)
		if err != nil || existing == nil {
			return err
		}
		if !managedByController(existing) {
			c.logger.Verbosef("Ingress %s/%s is not managed by %s, leaving it", c.config.SelfNamespace, name, FieldManager)
			return nil
		}
		c.logger.Infof("Deleting ingress %s/%s, routing is disabled for redirect %s/%s",
			c.config.SelfNamespace, name, redirect.Namespace, redirect.Name)
		return c.cluster.DeleteIngress(ctx, c.config.SelfNamespace, name)
	})
}

func (c *Controller) cleanup(ctx context.Context, redirect *v1alpha1.Redirect) error {
	name := IngressName(redirect)
	c.logger.Verbosef("Cleaning up ingress %s/%s", c.config.SelfNamespace, name)
	err := c.call(ctx, func(ctx context.Context) error {
		return c.cluster.DeleteIngress(ctx, c.config.SelfNamespace, name)
	})
	if err != nil {
		return newError(RoutingObjectDeleteFailed, err)
	}
	return nil
}

// call refuses to start once ctx is done. A started call survives
// cancellation of ctx but is bounded by the call timeout.
func (c *Controller) call(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.CallTimeout)
	defer cancel()
	return fn(callCtx)
}
