package logger

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	crzap "sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/ibotty/kube-redirect-operator/internal/config"
)

type zapLogger struct {
	sugar *zap.SugaredLogger
	logr  logr.Logger
}

// Verbose logs at debug level
func (l *zapLogger) Verbose(message string) {
	l.sugar.Debug(message)
}

// Verbosef formatted logs at debug level
func (l *zapLogger) Verbosef(format string, a ...interface{}) {
	l.sugar.Debugf(format, a...)
}

// Info logs at info level
func (l *zapLogger) Info(message string) {
	l.sugar.Info(message)
}

// Infof formatted logs at info level
func (l *zapLogger) Infof(format string, a ...interface{}) {
	l.sugar.Infof(format, a...)
}

// Warning logs at warn level
func (l *zapLogger) Warning(message string) {
	l.sugar.Warn(message)
}

// Warningf formatted logs at warn level
func (l *zapLogger) Warningf(format string, a ...interface{}) {
	l.sugar.Warnf(format, a...)
}

// Error logs at error level and returns the message as an error
func (l *zapLogger) Error(message string) error {
	l.sugar.Error(message)
	return errors.New(message)
}

// Errorf formatted logs at error level and returns the message as an error
func (l *zapLogger) Errorf(format string, a ...interface{}) error {
	return l.Error(fmt.Sprintf(format, a...))
}

func (l *zapLogger) Logr() logr.Logger {
	return l.logr
}

// Level maps the configured log flags onto a zap level
func Level(conf *config.Config) zapcore.Level {
	switch {
	case conf.LogVerbose:
		return zapcore.DebugLevel
	case conf.LogInfo:
		return zapcore.InfoLevel
	case conf.LogWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// NewZap logger writing JSON to stderr, or console output in development mode
func NewZap(conf *config.Config) Logger {
	raw := crzap.NewRaw(
		crzap.UseDevMode(conf.LogDevelopment),
		crzap.Level(Level(conf)),
	)
	return FromZap(raw)
}

// FromZap wraps an existing zap logger
func FromZap(raw *zap.Logger) Logger {
	return &zapLogger{
		sugar: raw.Sugar(),
		logr:  zapr.NewLogger(raw),
	}
}
