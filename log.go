package pvsolver

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newLogger wraps l as a *logrus.Entry, substituting a discarding logger
// when l is nil so call sites never need their own nil check — the
// teacher's pattern of guarding every log call with a level check still
// applies, it just always has a logger to guard.
func newLogger(l *logrus.Logger) *logrus.Entry {
	if l == nil {
		l = logrus.New()
		l.SetOutput(io.Discard)
	}
	return logrus.NewEntry(l)
}
