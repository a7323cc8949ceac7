// Package logging configures the process-wide logrus logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

// DefaultLogger is the logger every csim package writes to.
var DefaultLogger = initDefaultLogger()

func initDefaultLogger() *logrus.Logger {
	opts := defaultLogOpts()
	logger := logrus.New()
	logger.SetOutput(opts.output.Writer())
	logger.SetLevel(opts.level)
	logger.SetFormatter(opts.format.LogrusFormat())
	return logger
}

func SetLogLevel(level logrus.Level) {
	DefaultLogger.SetLevel(level)
}

func SetLogFormat(format LogFormat) {
	DefaultLogger.SetFormatter(format.LogrusFormat())
}

// SetupLogging applies the options to DefaultLogger.
func SetupLogging(logOpts ...LogOption) {
	opts := defaultLogOpts()
	for _, opt := range logOpts {
		opt(opts)
	}

	SetLogFormat(opts.format)
	SetLogLevel(opts.level)
	DefaultLogger.SetReportCaller(opts.level >= logrus.DebugLevel)
	DefaultLogger.SetOutput(opts.output.Writer())
}
