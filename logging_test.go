package svo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerRoutesLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLogger(&out, &errOut, "svo", false)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	l.Infof("built %d nodes", 3)
	assert.Contains(t, out.String(), "shown 2")
	assert.Contains(t, out.String(), "built 3 nodes")
	assert.Contains(t, out.String(), "svo")

	l.Warnf("careful")
	l.Errorf("broken")
	assert.Contains(t, errOut.String(), "careful")
	assert.Contains(t, errOut.String(), "broken")
	assert.NotContains(t, out.String(), "broken")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	l.Infof("ignored")
}
