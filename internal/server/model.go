package server

import (
	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
	"github.com/ibotty/kube-redirect-operator/internal/controller"
	"github.com/ibotty/kube-redirect-operator/internal/controller/redirects"
)

type statusResponse struct {
	Identity  string              `json:"identity"`
	Leader    bool                `json:"leader"`
	Synced    bool                `json:"synced"`
	Engine    controller.State    `json:"engine"`
	Redirects []redirectSummary   `json:"redirects"`
	Conflicts map[string][]string `json:"conflicts,omitempty"`
}

type redirectSummary struct {
	Key               string                         `json:"key"`
	Hosts             []string                       `json:"hosts"`
	Destination       string                         `json:"destination"`
	IncludeRequestURI bool                           `json:"includeRequestUri"`
	Ingress           v1alpha1.RedirectStatusIngress `json:"ingress"`
	Deleting          bool                           `json:"deleting,omitempty"`
}

func summarize(redirect *v1alpha1.Redirect) redirectSummary {
	return redirectSummary{
		Key:               redirects.Key(redirect),
		Hosts:             redirect.Spec.UniqueHosts(),
		Destination:       redirect.Spec.To.URI,
		IncludeRequestURI: redirect.Spec.To.IncludesRequestURI(),
		Ingress:           redirect.Status.Ingress,
		Deleting:          redirect.DeletionTimestamp != nil,
	}
}
