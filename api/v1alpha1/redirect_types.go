package v1alpha1

import (
	"slices"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Redirect is the Schema for the Redirects API. It declares a set of hosts
// that are answered with a permanent redirect to a single destination.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Target",type=string,JSONPath=`.spec.to.uri`
// +kubebuilder:printcolumn:name="Ingress",type=string,JSONPath=`.status.ingress.name`
type Redirect struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   RedirectSpec   `json:"spec,omitempty"`
	Status RedirectStatus `json:"status,omitempty"`
}

// RedirectList contains a list of Redirect.
//
// +kubebuilder:object:root=true
type RedirectList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Redirect `json:"items"`
}

// RedirectSpec defines the desired state of Redirect.
type RedirectSpec struct {
	// Hosts claimed by this redirect. A host should be claimed by a single
	// Redirect; when it is not, the lexicographically first namespace/name wins.
	//
	// +listType=set
	// +kubebuilder:validation:MinItems=1
	Hosts []string `json:"hosts"`

	// To is the redirect destination.
	To RedirectTo `json:"to"`

	// Ingress controls the generated Ingress object.
	Ingress RedirectIngress `json:"ingress"`
}

// RedirectTo describes where requests are sent.
type RedirectTo struct {
	// URI is the destination of the redirect.
	URI string `json:"uri"`

	// IncludeRequestURI appends the request path to URI.
	//
	// +optional
	// +kubebuilder:default=true
	IncludeRequestURI *bool `json:"includeRequestUri,omitempty"`
}

// RedirectIngress configures the Ingress generated for a Redirect.
type RedirectIngress struct {
	// Enabled toggles generation of the Ingress.
	//
	// +optional
	// +kubebuilder:default=true
	Enabled *bool `json:"enabled,omitempty"`

	// +optional
	TLS RedirectIngressTLS `json:"tls,omitempty"`

	// +optional
	IngressClassName *string `json:"ingressClassName,omitempty"`

	// Annotations are written to the generated Ingress' labels.
	//
	// +optional
	Annotations map[string]string `json:"annotations,omitempty"`

	// Labels are written to the generated Ingress' annotations.
	//
	// +optional
	Labels map[string]string `json:"labels,omitempty"`
}

// RedirectIngressTLS configures the TLS section of the generated Ingress.
// Certificates themselves are issued by cert-manager through annotations.
type RedirectIngressTLS struct {
	// +optional
	// +kubebuilder:default=true
	Enabled *bool `json:"enabled,omitempty"`

	// SecretName defaults to "<redirect name>-tls-certs".
	//
	// +optional
	SecretName *string `json:"secretName,omitempty"`
}

// RedirectStatus defines the observed state of Redirect.
type RedirectStatus struct {
	Ingress RedirectStatusIngress `json:"ingress"`
}

// RedirectStatusIngress references the generated Ingress. Both fields are
// empty when no Ingress is generated.
type RedirectStatusIngress struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

// IncludesRequestURI reports whether the request path is appended to the destination.
func (t RedirectTo) IncludesRequestURI() bool {
	return t.IncludeRequestURI == nil || *t.IncludeRequestURI
}

// IsEnabled reports whether an Ingress should be generated.
func (i RedirectIngress) IsEnabled() bool {
	return i.Enabled == nil || *i.Enabled
}

// IsEnabled reports whether the generated Ingress carries a TLS section.
func (t RedirectIngressTLS) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// SecretNameFor returns the configured secret name or the default derived from redirectName.
func (t RedirectIngressTLS) SecretNameFor(redirectName string) string {
	if t.SecretName != nil && *t.SecretName != "" {
		return *t.SecretName
	}
	return redirectName + "-tls-certs"
}

// HasHost reports whether host is claimed by this redirect. Hosts compare
// case-insensitively.
func (r *Redirect) HasHost(host string) bool {
	return slices.ContainsFunc(r.Spec.Hosts, func(h string) bool {
		return strings.EqualFold(h, host)
	})
}

// UniqueHosts returns the claimed hosts sorted and without duplicates.
func (s RedirectSpec) UniqueHosts() []string {
	hosts := slices.Clone(s.Hosts)
	slices.Sort(hosts)
	return slices.Compact(hosts)
}

func init() {
	SchemeBuilder.Register(&Redirect{}, &RedirectList{})
}
