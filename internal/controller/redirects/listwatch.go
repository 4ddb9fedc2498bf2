package redirects

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/tools/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
)

// NewListWatch lists and watches redirects in namespace, all namespaces when
// namespace is empty
func NewListWatch(ctx context.Context, c client.WithWatch, namespace string) cache.ListerWatcher {
	return &cache.ListWatch{
		ListFunc: func(options metav1.ListOptions) (runtime.Object, error) {
			list := &v1alpha1.RedirectList{}
			err := c.List(ctx, list, listOptions(namespace, options))
			return list, err
		},
		WatchFunc: func(options metav1.ListOptions) (watch.Interface, error) {
			return c.Watch(ctx, &v1alpha1.RedirectList{}, listOptions(namespace, options))
		},
	}
}

func listOptions(namespace string, options metav1.ListOptions) *client.ListOptions {
	return &client.ListOptions{
		Namespace: namespace,
		Limit:     options.Limit,
		Continue:  options.Continue,
		Raw:       &options,
	}
}
