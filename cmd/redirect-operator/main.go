package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ibotty/kube-redirect-operator/api/v1alpha1"
	"github.com/ibotty/kube-redirect-operator/internal/config"
	"github.com/ibotty/kube-redirect-operator/internal/controller"
	"github.com/ibotty/kube-redirect-operator/internal/controller/ingress"
	"github.com/ibotty/kube-redirect-operator/internal/controller/redirects"
	"github.com/ibotty/kube-redirect-operator/internal/leader"
	"github.com/ibotty/kube-redirect-operator/internal/logger"
	"github.com/ibotty/kube-redirect-operator/internal/metrics"
	"github.com/ibotty/kube-redirect-operator/internal/server"
)

func createRestConfig(logger logger.Logger, config *config.Config) (*rest.Config, error) {
	//Use in cluster config
	if config.KubeConfig == "" {
		logger.Infof("Connecting using in cluster configuration")
		clientConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, logger.Errorf("Error connecting to cluster %s", err)
		}
		return clientConfig, nil
	}

	//Use out of cluster test using kubeconfig
	logger.Infof("Connecting using config from path %s", config.KubeConfig)
	clientConfig, err := clientcmd.BuildConfigFromFlags("", config.KubeConfig)
	if err != nil {
		return nil, logger.Errorf("Error connecting to cluster %s", err)
	}
	return clientConfig, nil
}

func newScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, err
	}
	if err := v1alpha1.AddToScheme(scheme); err != nil {
		return nil, err
	}
	return scheme, nil
}

func execute(ctx context.Context) error {
	configComp, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("Error with configuration %s", err)
	}
	flags := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	configComp.BindFlags(flags)
	if err := flags.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("Error with configuration %s", err)
	}
	if err := configComp.Validate(); err != nil {
		return fmt.Errorf("Error with configuration %s", err)
	}

	loggerComp := logger.NewZap(configComp)
	klog.SetLogger(loggerComp.Logr().WithName("client-go"))
	ctrllog.SetLogger(loggerComp.Logr().WithName("controller-runtime"))

	restConfig, err := createRestConfig(loggerComp, configComp)
	if err != nil {
		return err
	}
	clientSet, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return loggerComp.Errorf("Error connecting to cluster %s", err)
	}
	scheme, err := newScheme()
	if err != nil {
		return loggerComp.Errorf("Error building scheme %s", err)
	}
	kubeClient, err := client.NewWithWatch(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		return loggerComp.Errorf("Error connecting to cluster %s", err)
	}

	metricsComp := metrics.New()
	storeComp := redirects.New(loggerComp)
	ingressWatcher := ingress.New(loggerComp, clientSet, configComp.SelfNamespace)
	controllerComp := controller.New(loggerComp, configComp, controller.NewKubeCluster(kubeClient), storeComp, metricsComp, ingressWatcher)
	lock := leader.NewLeaseLock(clientSet, configComp.LeaseNamespace, configComp.LeaseName, configComp.Identity)
	coordinatorComp := leader.New(loggerComp, configComp, lock, metricsComp)
	serverComp := server.New(loggerComp, configComp, storeComp, coordinatorComp, controllerComp, metricsComp)

	if configComp.TargetNamespace == "" {
		loggerComp.Info("Watching redirects in all namespaces")
	} else {
		loggerComp.Infof("Watching redirects in namespace %s", configComp.TargetNamespace)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return storeComp.Run(gctx, redirects.NewListWatch(gctx, kubeClient, configComp.TargetNamespace))
	})
	g.Go(func() error {
		return controllerComp.Monitor(gctx)
	})
	g.Go(func() error {
		return coordinatorComp.Run(gctx, controllerComp.Run)
	})
	g.Go(func() error {
		return serverComp.Start(gctx)
	})
	err = g.Wait()
	loggerComp.Info("Application shutdown")
	return err
}

func main() {
	// Listen for interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute application
	err := execute(ctx)
	stop()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
