//go:build e2e

package e2e

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/ptr"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
)

const finalizer = "redirect.kube.ibotty.net/cleanup"

var _ = Describe("Redirect lifecycle", Ordered, func() {
	SetDefaultEventuallyTimeout(2 * time.Minute)
	SetDefaultEventuallyPollingInterval(time.Second)

	const ns = "e2e-redirects"
	ctx := context.Background()
	key := types.NamespacedName{Namespace: ns, Name: "www"}
	ingressKey := types.NamespacedName{Namespace: selfNamespace, Name: ns + ".www"}

	BeforeAll(func() {
		By("creating namespace")
		Expect(k8sClient.Create(ctx, &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: ns}})).To(Succeed())
		ingressKey.Namespace = selfNamespace
	})

	AfterAll(func() {
		_ = k8sClient.Delete(ctx, &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: ns}})
	})

	It("generates an ingress and reports it in the status", func() {
		redirect := &v1alpha1.Redirect{
			ObjectMeta: metav1.ObjectMeta{Namespace: ns, Name: "www"},
			Spec: v1alpha1.RedirectSpec{
				Hosts: []string{"www.e2e.example", "e2e.example"},
				To:    v1alpha1.RedirectTo{URI: "https://dest.example"},
			},
		}
		Expect(k8sClient.Create(ctx, redirect)).To(Succeed())

		Eventually(func(g Gomega) {
			ingress := &networkingv1.Ingress{}
			g.Expect(k8sClient.Get(ctx, ingressKey, ingress)).To(Succeed())
			hosts := []string{}
			for _, rule := range ingress.Spec.Rules {
				hosts = append(hosts, rule.Host)
			}
			g.Expect(hosts).To(Equal([]string{"e2e.example", "www.e2e.example"}))
			g.Expect(ingress.Spec.TLS).To(HaveLen(1))
			g.Expect(ingress.Spec.TLS[0].SecretName).To(Equal("www-tls-certs"))
		}).Should(Succeed())

		Eventually(func(g Gomega) {
			current := &v1alpha1.Redirect{}
			g.Expect(k8sClient.Get(ctx, key, current)).To(Succeed())
			g.Expect(current.Finalizers).To(ContainElement(finalizer))
			g.Expect(current.Status.Ingress.Name).To(Equal(ingressKey.Name))
			g.Expect(current.Status.Ingress.Namespace).To(Equal(selfNamespace))
		}).Should(Succeed())
	})

	It("recreates a deleted ingress", func() {
		Expect(k8sClient.Delete(ctx, &networkingv1.Ingress{ObjectMeta: metav1.ObjectMeta{
			Namespace: ingressKey.Namespace, Name: ingressKey.Name,
		}})).To(Succeed())

		Eventually(func() error {
			return k8sClient.Get(ctx, ingressKey, &networkingv1.Ingress{})
		}).Should(Succeed())
	})

	It("removes the ingress when routing is disabled", func() {
		Eventually(func() error {
			current := &v1alpha1.Redirect{}
			if err := k8sClient.Get(ctx, key, current); err != nil {
				return err
			}
			current.Spec.Ingress.Enabled = ptr.To(false)
			return k8sClient.Update(ctx, current)
		}).Should(Succeed())

		Eventually(func() bool {
			err := k8sClient.Get(ctx, ingressKey, &networkingv1.Ingress{})
			return apierrors.IsNotFound(err)
		}).Should(BeTrue())

		Eventually(func(g Gomega) {
			current := &v1alpha1.Redirect{}
			g.Expect(k8sClient.Get(ctx, key, current)).To(Succeed())
			g.Expect(current.Status.Ingress).To(Equal(v1alpha1.RedirectStatusIngress{}))
		}).Should(Succeed())
	})

	It("cleans up on deletion", func() {
		Eventually(func() error {
			current := &v1alpha1.Redirect{}
			if err := k8sClient.Get(ctx, key, current); err != nil {
				return err
			}
			current.Spec.Ingress.Enabled = ptr.To(true)
			return k8sClient.Update(ctx, current)
		}).Should(Succeed())
		Eventually(func() error {
			return k8sClient.Get(ctx, ingressKey, &networkingv1.Ingress{})
		}).Should(Succeed())

		Expect(k8sClient.Delete(ctx, &v1alpha1.Redirect{ObjectMeta: metav1.ObjectMeta{Namespace: ns, Name: "www"}})).To(Succeed())

		Eventually(func() bool {
			return apierrors.IsNotFound(k8sClient.Get(ctx, key, &v1alpha1.Redirect{}))
		}).Should(BeTrue())
		Eventually(func() bool {
			return apierrors.IsNotFound(k8sClient.Get(ctx, ingressKey, &networkingv1.Ingress{}))
		}).Should(BeTrue())
	})
})
