package controller

import (
	"context"
	"encoding/json"

	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
)

// Cluster is every write the engine performs against the API server
type Cluster interface {
	// ApplyIngress upserts ingress with server-side apply as FieldManager
	ApplyIngress(ctx context.Context, ingress *networkingv1.Ingress) error
	// GetIngress returns nil without error when the ingress does not exist
	GetIngress(ctx context.Context, namespace, name string) (*networkingv1.Ingress, error)
	// DeleteIngress treats an absent ingress as deleted
	DeleteIngress(ctx context.Context, namespace, name string) error
	PatchRedirectStatus(ctx context.Context, redirect *v1alpha1.Redirect, status v1alpha1.RedirectStatus) error
	AddFinalizer(ctx context.Context, redirect *v1alpha1.Redirect, finalizer string) error
	RemoveFinalizer(ctx context.Context, redirect *v1alpha1.Redirect, finalizer string) error
}

// KubeCluster implements Cluster with a controller-runtime client
type KubeCluster struct {
	client client.Client
}

// NewKubeCluster wraps c
func NewKubeCluster(c client.Client) *KubeCluster {
	return &KubeCluster{client: c}
}

var _ Cluster = &KubeCluster{}

func (k *KubeCluster) ApplyIngress(ctx context.Context, ingress *networkingv1.Ingress) error {
	obj := ingress.DeepCopy()
	obj.ManagedFields = nil
	obj.ResourceVersion = ""
	return k.client.Patch(ctx, obj, client.Apply, client.FieldOwner(FieldManager))
}

func (k *KubeCluster) GetIngress(ctx context.Context, namespace, name string) (*networkingv1.Ingress, error) {
	ingress := &networkingv1.Ingress{}
	err := k.client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, ingress)
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ingress, nil
}

func (k *KubeCluster) DeleteIngress(ctx context.Context, namespace, name string) error {
	ingress := &networkingv1.Ingress{}
	ingress.Namespace = namespace
	ingress.Name = name
	return client.IgnoreNotFound(k.client.Delete(ctx, ingress))
}

func (k *KubeCluster) PatchRedirectStatus(ctx context.Context, redirect *v1alpha1.Redirect, status v1alpha1.RedirectStatus) error {
	body, err := json.Marshal(map[string]v1alpha1.RedirectStatus{"status": status})
	if err != nil {
		return err
	}
	obj := redirect.DeepCopy()
	return k.client.Status().Patch(ctx, obj, client.RawPatch(types.MergePatchType, body))
}

// AddFinalizer patches the finalizer in, failing on a stale resource version
func (k *KubeCluster) AddFinalizer(ctx context.Context, redirect *v1alpha1.Redirect, finalizer string) error {
	obj := redirect.DeepCopy()
	patch := client.MergeFromWithOptions(redirect, client.MergeFromWithOptimisticLock{})
	if !controllerutil.AddFinalizer(obj, finalizer) {
		return nil
	}
	return k.client.Patch(ctx, obj, patch)
}

// RemoveFinalizer patches the finalizer out, failing on a stale resource version
func (k *KubeCluster) RemoveFinalizer(ctx context.Context, redirect *v1alpha1.Redirect, finalizer string) error {
	obj := redirect.DeepCopy()
	patch := client.MergeFromWithOptions(redirect, client.MergeFromWithOptimisticLock{})
	if !controllerutil.RemoveFinalizer(obj, finalizer) {
		return nil
	}
	return k.client.Patch(ctx, obj, patch)
}
