package controller

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// Finalizer marks redirects whose routing object still needs cleanup
	Finalizer = "redirect.kube.ibotty.net/cleanup"
	// FieldManager owns the fields this controller applies
	FieldManager = "redirect.kube.ibotty.net"
)

// ErrorKind classifies reconciliation failures
type ErrorKind int

const (
	RoutingObjectCreateFailed ErrorKind = iota + 1
	RoutingObjectDeleteFailed
	StatusUpdateFailed
	AddFinalizerFailed
	RemoveFinalizerFailed
	UnnamedObject
	InvalidFinalizer
)

var errorKindNames = map[ErrorKind]string{
	RoutingObjectCreateFailed: "routing_object_create_failed",
	RoutingObjectDeleteFailed: "routing_object_delete_failed",
	StatusUpdateFailed:        "status_update_failed",
	AddFinalizerFailed:        "add_finalizer_failed",
	RemoveFinalizerFailed:     "remove_finalizer_failed",
	UnnamedObject:             "unnamed_object",
	InvalidFinalizer:          "invalid_finalizer",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is returned by Reconcile, Err is the underlying API error if any
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// MetricLabel normalises any reconciliation error into a metric label
func MetricLabel(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "aborted"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.String()
	}
	return "unknown"
}

// Phase of a redirect in the finalizer protocol
type Phase int

const (
	// Applying redirects are not marked for deletion
	Applying Phase = iota
	// CleaningUp redirects carry a deletion timestamp
	CleaningUp
)

func (p Phase) String() string {
	if p == CleaningUp {
		return "cleaning-up"
	}
	return "applying"
}

// Action tells the driver when to look at a redirect again
type Action struct {
	RequeueAfter time.Duration
}

// State of the reconciliation driver
type State struct {
	Active     bool `json:"active"`
	QueueDepth int  `json:"queueDepth"`
}
