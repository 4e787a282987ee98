// Package archive records session traffic to a time-series writer.
package archive

import (
	"sync/atomic"
	"time"

	"github.com/nerrad567/topiclab/internal/session"
)

// Writer is the subset of the InfluxDB client the archive needs.
type Writer interface {
	WriteMessage(topic string, payload []byte, at time.Time)
	WriteStatus(connection, status string, at time.Time)
}

// Archiver is a session.Notifier that forwards every event to a Writer.
// Writes are expected to be non-blocking.
type Archiver struct {
	w          Writer
	connection atomic.Value // string
	now        func() time.Time
}

var _ session.Notifier = (*Archiver)(nil)

// New returns an archiver writing to w.
func New(w Writer) *Archiver {
	a := &Archiver{w: w, now: time.Now}
	a.connection.Store("")
	return a
}

// SetConnection names the connection that subsequent status points are
// tagged with. Call it before Session.Connect.
func (a *Archiver) SetConnection(name string) {
	a.connection.Store(name)
}

// StatusChanged implements session.Notifier.
func (a *Archiver) StatusChanged(status session.Status) {
	name, _ := a.connection.Load().(string)
	a.w.WriteStatus(name, string(status), a.now())
}

// MessageReceived implements session.Notifier. The point is stamped with
// the message's receive time; size is the length of the decoded payload.
func (a *Archiver) MessageReceived(msg session.Message) {
	a.w.WriteMessage(msg.Topic, []byte(msg.Payload), time.UnixMilli(msg.Timestamp))
}
