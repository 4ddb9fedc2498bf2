package controller

import (
	"fmt"
	"strings"

	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
	"github.com/ibotty/kube-redirect-operator/internal/config"
)

func namespaceFormat(namespace string, resourceName string) string {
	return fmt.Sprintf("%s/%s", namespace, resourceName)
}

// IngressName is the deterministic name of the ingress generated for a redirect
func IngressName(redirect *v1alpha1.Redirect) string {
	return fmt.Sprintf("%s.%s", redirect.Namespace, redirect.Name)
}

// keyForIngress maps a generated ingress name back to its redirect key.
// Namespace names cannot contain dots, so the first dot separates them.
func keyForIngress(ingressName string) (string, bool) {
	namespace, name, ok := strings.Cut(ingressName, ".")
	if !ok || namespace == "" || name == "" {
		return "", false
	}
	return namespaceFormat(namespace, name), true
}

func phaseFor(redirect *v1alpha1.Redirect) Phase {
	if redirect.DeletionTimestamp != nil {
		return CleaningUp
	}
	return Applying
}

func copyMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ingressForRedirect derives the routing object. User annotations become
// ingress labels and user labels become ingress annotations.
func ingressForRedirect(redirect *v1alpha1.Redirect, conf *config.Config) *networkingv1.Ingress {
	spec := redirect.Spec.Ingress
	hosts := redirect.Spec.UniqueHosts()
	pathType := networkingv1.PathTypePrefix

	rules := make([]networkingv1.IngressRule, 0, len(hosts))
	for _, host := range hosts {
		rules = append(rules, networkingv1.IngressRule{
			Host: host,
			IngressRuleValue: networkingv1.IngressRuleValue{
				HTTP: &networkingv1.HTTPIngressRuleValue{
					Paths: []networkingv1.HTTPIngressPath{{
						Path:     "/",
						PathType: &pathType,
						Backend: networkingv1.IngressBackend{
							Service: &networkingv1.IngressServiceBackend{
								Name: conf.SelfServiceName,
								Port: networkingv1.ServiceBackendPort{Number: conf.ServicePort},
							},
						},
					}},
				},
			},
		})
	}

	ingress := &networkingv1.Ingress{
		TypeMeta: metav1.TypeMeta{
			APIVersion: networkingv1.SchemeGroupVersion.String(),
			Kind:       "Ingress",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:        IngressName(redirect),
			Namespace:   conf.SelfNamespace,
			Labels:      copyMap(spec.Annotations),
			Annotations: copyMap(spec.Labels),
		},
		Spec: networkingv1.IngressSpec{
			IngressClassName: spec.IngressClassName,
			Rules:            rules,
		},
	}
	if spec.TLS.IsEnabled() {
		ingress.Spec.TLS = []networkingv1.IngressTLS{{
			Hosts:      hosts,
			SecretName: spec.TLS.SecretNameFor(redirect.Name),
		}}
	}
	return ingress
}

// managedByController reports whether ingress carries fields applied by FieldManager
func managedByController(ingress *networkingv1.Ingress) bool {
	for _, entry := range ingress.ManagedFields {
		if entry.Manager == FieldManager {
			return true
		}
	}
	return false
}
