package log_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/pipelined/graph"
	"github.com/pipelined/graph/log"
)

func TestWithNode(t *testing.T) {
	var out bytes.Buffer
	l := log.GetLogger()
	l.SetOutput(&out)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	c, err := graph.NewContext(graph.WithLogger(l))
	assert.NoError(t, err)
	log.WithNode(l, c.Destination()).Info("rendered")
	assert.Contains(t, out.String(), "node=\"destination "+c.Destination().ID().String()+"\"")
	assert.Contains(t, out.String(), "msg=rendered")
}
