package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config represents application configuration
type Config struct {
	// RedirectPort HTTP port answering redirects
	RedirectPort string
	// OperationsPort HTTP port for probes, metrics and status
	OperationsPort string
	// TargetNamespace is the namespace watched for redirects, empty means all namespaces
	TargetNamespace string
	// SelfNamespace is where generated ingresses live
	SelfNamespace string
	// SelfServiceName is the service generated ingresses point at
	SelfServiceName string
	// ServicePort is the port of SelfServiceName used as ingress backend
	ServicePort int32
	// KubeConfig is used for development purposes
	KubeConfig string

	// Identity of this replica in leader election
	Identity string
	// LeaseName of the coordination lease
	LeaseName string
	// LeaseNamespace of the coordination lease, defaults to SelfNamespace
	LeaseNamespace string
	LeaseDuration  time.Duration
	RenewDeadline  time.Duration
	RetryPeriod    time.Duration

	// Concurrency is the number of redirects reconciled in parallel
	Concurrency int
	// RequeueInterval is the drift-correction sweep after a reconcile
	RequeueInterval time.Duration
	// RetryInterval is the delay before retrying a failed reconcile
	RetryInterval time.Duration
	// CallTimeout bounds each write to the API server
	CallTimeout time.Duration
	// ShutdownTimeout bounds graceful shutdown of the HTTP listeners
	ShutdownTimeout time.Duration

	// LogVerbose log verbose
	LogVerbose bool
	// LogInfo log info
	LogInfo bool
	// LogWarning log warning
	LogWarning bool
	// LogDevelopment switches to human readable console logs
	LogDevelopment bool
}

// FromEnv loads config from environment variables
func FromEnv() (*Config, error) {
	conf := &Config{
		RedirectPort:    "8080",
		OperationsPort:  "9880",
		SelfNamespace:   "redirect-operator",
		SelfServiceName: "redirect-operator",
		ServicePort:     8080,
		LeaseName:       "redirect-operator",
		LeaseDuration:   20 * time.Second,
		RenewDeadline:   10 * time.Second,
		RetryPeriod:     2 * time.Second,
		Concurrency:     2,
		RequeueInterval: 300 * time.Second,
		RetryInterval:   time.Second,
		CallTimeout:     4 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogVerbose:      false,
		LogInfo:         true,
		LogWarning:      true,
	}

	conf.TargetNamespace = os.Getenv("WATCH_NAMESPACE")
	setString(&conf.SelfNamespace, "SELF_NAMESPACE")
	setString(&conf.SelfServiceName, "SELF_SERVICE_NAME")
	setString(&conf.RedirectPort, "REDIRECT_PORT")
	setString(&conf.OperationsPort, "OPERATIONS_PORT")
	setString(&conf.KubeConfig, "KUBECONFIG")
	setString(&conf.LeaseName, "LEASE_NAME")
	conf.LeaseNamespace = conf.SelfNamespace
	setString(&conf.LeaseNamespace, "LEASE_NAMESPACE")

	conf.Identity = os.Getenv("POD_NAME")
	if conf.Identity == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("unable to determine identity: %w", err)
		}
		conf.Identity = hostname
	}

	if v := os.Getenv("SERVICE_PORT"); v != "" {
		port, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICE_PORT %q: %w", v, err)
		}
		conf.ServicePort = int32(port)
	}
	if v := os.Getenv("RECONCILE_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RECONCILE_CONCURRENCY %q: %w", v, err)
		}
		conf.Concurrency = n
	}

	durations := []struct {
		env    string
		target *time.Duration
	}{
		{"LEASE_DURATION", &conf.LeaseDuration},
		{"LEASE_RENEW_DEADLINE", &conf.RenewDeadline},
		{"LEASE_RETRY_PERIOD", &conf.RetryPeriod},
		{"REQUEUE_INTERVAL", &conf.RequeueInterval},
		{"RETRY_INTERVAL", &conf.RetryInterval},
		{"CALL_TIMEOUT", &conf.CallTimeout},
		{"SHUTDOWN_TIMEOUT", &conf.ShutdownTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.env, v, err)
		}
		*d.target = parsed
	}

	conf.SetLogLevel(os.Getenv("LOG_LEVEL"))
	if os.Getenv("LOG_DEVELOPMENT") == "true" {
		conf.LogDevelopment = true
	}

	return conf, nil
}

// SetLogLevel maps verbose, info and warning onto the log flags. Unknown
// values leave the flags untouched.
func (c *Config) SetLogLevel(level string) {
	switch level {
	case "verbose":
		c.LogVerbose = true
		c.LogInfo = true
	case "info":
		c.LogVerbose = false
		c.LogInfo = true
	case "warning":
		c.LogVerbose = false
		c.LogInfo = false
	}
}

// BindFlags registers command line overrides for every option. Defaults are
// the values already loaded into c.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.TargetNamespace, "watch-namespace", c.TargetNamespace, "Namespace to watch for redirects, empty for all namespaces")
	fs.StringVar(&c.SelfNamespace, "self-namespace", c.SelfNamespace, "Namespace generated ingresses are written to")
	fs.StringVar(&c.SelfServiceName, "self-service-name", c.SelfServiceName, "Service generated ingresses route to")
	fs.Int32Var(&c.ServicePort, "service-port", c.ServicePort, "Port of the service generated ingresses route to")
	fs.StringVar(&c.RedirectPort, "redirect-port", c.RedirectPort, "Port answering redirects")
	fs.StringVar(&c.OperationsPort, "operations-port", c.OperationsPort, "Port serving probes, metrics and status")
	fs.StringVar(&c.KubeConfig, "kubeconfig", c.KubeConfig, "Path to a kubeconfig, in-cluster configuration when empty")
	fs.StringVar(&c.Identity, "identity", c.Identity, "Holder identity used for leader election")
	fs.StringVar(&c.LeaseName, "lease-name", c.LeaseName, "Name of the leader election lease")
	fs.StringVar(&c.LeaseNamespace, "lease-namespace", c.LeaseNamespace, "Namespace of the leader election lease")
	fs.DurationVar(&c.LeaseDuration, "lease-duration", c.LeaseDuration, "Duration non-leaders wait before taking over an unrenewed lease")
	fs.DurationVar(&c.RenewDeadline, "lease-renew-deadline", c.RenewDeadline, "Time the leader keeps retrying renewal before giving up")
	fs.DurationVar(&c.RetryPeriod, "lease-retry-period", c.RetryPeriod, "Interval between lease acquire and renew attempts")
	fs.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "Number of redirects reconciled in parallel")
	fs.DurationVar(&c.RequeueInterval, "requeue-interval", c.RequeueInterval, "Delay before a reconciled redirect is checked again")
	fs.DurationVar(&c.RetryInterval, "retry-interval", c.RetryInterval, "Delay before a failed reconcile is retried")
	fs.DurationVar(&c.CallTimeout, "call-timeout", c.CallTimeout, "Deadline of each write to the API server")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "Deadline for draining HTTP listeners on shutdown")
	fs.BoolVar(&c.LogDevelopment, "log-development", c.LogDevelopment, "Human readable console logs")
	fs.Func("log-level", "One of verbose, info or warning", func(v string) error {
		switch v {
		case "verbose", "info", "warning":
			c.SetLogLevel(v)
			return nil
		}
		return fmt.Errorf("unknown log level %q", v)
	})
}

// Validate checks that the options are consistent with each other.
func (c *Config) Validate() error {
	if c.RedirectPort == "" || c.OperationsPort == "" {
		return fmt.Errorf("redirect and operations ports are required")
	}
	if c.RedirectPort == c.OperationsPort {
		return fmt.Errorf("redirect and operations ports must differ, both are %s", c.RedirectPort)
	}
	if c.SelfNamespace == "" || c.SelfServiceName == "" {
		return fmt.Errorf("self namespace and service name are required")
	}
	if c.Identity == "" {
		return fmt.Errorf("identity is required")
	}
	if c.LeaseName == "" || c.LeaseNamespace == "" {
		return fmt.Errorf("lease name and namespace are required")
	}
	if c.LeaseDuration < time.Second {
		return fmt.Errorf("lease duration %s must be at least 1s", c.LeaseDuration)
	}
	if c.RenewDeadline >= c.LeaseDuration {
		return fmt.Errorf("renew deadline %s must be shorter than lease duration %s", c.RenewDeadline, c.LeaseDuration)
	}
	// client-go jitters the retry period by up to 1.2x
	retryPeriod := time.Duration(1.2 * float64(c.RetryPeriod))
	if retryPeriod >= c.RenewDeadline {
		return fmt.Errorf("retry period %s is too long for renew deadline %s", c.RetryPeriod, c.RenewDeadline)
	}
	// a write started just before the lease is lost must finish before another replica may take over
	if c.CallTimeout <= 0 || c.CallTimeout >= c.HandoverWindow() {
		return fmt.Errorf("call timeout %s must be positive and shorter than %s", c.CallTimeout, c.HandoverWindow())
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.RequeueInterval <= 0 || c.RetryInterval <= 0 {
		return fmt.Errorf("requeue and retry intervals must be positive")
	}
	return nil
}

// HandoverWindow is the shortest time between a demoted leader cancelling its
// term and a standby taking over. The last renewal can be followed by one
// retry period and the renew deadline before the term is cancelled, while a
// standby counts the lease duration from the renew time it observed. Lease
// records carry whole seconds, so the duration is truncated and the observed
// renew time may lag by up to a second.
func (c *Config) HandoverWindow() time.Duration {
	takeover := c.LeaseDuration.Truncate(time.Second) - time.Second
	termEnd := c.RenewDeadline + time.Duration(1.2*float64(c.RetryPeriod))
	return takeover - termEnd
}

func setString(target *string, env string) {
	if v := os.Getenv(env); v != "" {
		*target = v
	}
}
