// Package log provides the default logger for graph contexts.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv enables debug level when set to true.
const DebugEnv = "GRAPH_DEBUG"

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. Its level is debug if
// GRAPH_DEBUG is set.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// WithNode returns a logger entry that tags every record with the node.
func WithNode(l logrus.FieldLogger, node interface{}) *logrus.Entry {
	return l.WithField("node", node)
}
