// Package metrics counts what a listen server did: connections, bytes
// moved, commands run, uploads saved and errors.  The counters are only
// read back as a Snapshot, which the server logs when it stops.
//
// A nil *Collector is a valid no-op receiver.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is safe for concurrent use.
type Collector struct {
	active   atomic.Int64
	accepted atomic.Int64
	in       atomic.Int64
	out      atomic.Int64
	commands atomic.Int64
	uploads  atomic.Int64
	errors   atomic.Int64

	mu      sync.Mutex
	started time.Time
	failAt  time.Time
	failMsg string
}

// New starts the uptime clock.
func New() *Collector {
	return &Collector{started: time.Now()}
}

// ConnectionOpened counts an accepted connection as active.
func (c *Collector) ConnectionOpened() {
	if c != nil {
		c.active.Add(1)
		c.accepted.Add(1)
	}
}

// ConnectionClosed ends a connection counted by ConnectionOpened.
func (c *Collector) ConnectionClosed() {
	if c != nil {
		c.active.Add(-1)
	}
}

func (c *Collector) BytesReceived(n int64) {
	if c != nil {
		c.in.Add(n)
	}
}

func (c *Collector) BytesSent(n int64) {
	if c != nil {
		c.out.Add(n)
	}
}

// CommandRun counts one command line handed to the runner, whatever
// its outcome.
func (c *Collector) CommandRun() {
	if c != nil {
		c.commands.Add(1)
	}
}

func (c *Collector) UploadSaved() {
	if c != nil {
		c.uploads.Add(1)
	}
}

// RecordError counts an error and keeps msg as the latest one.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errors.Add(1)
	c.mu.Lock()
	c.failAt, c.failMsg = time.Now(), msg
	c.mu.Unlock()
}

// Snapshot is the collector's state at one instant.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  int64  `json:"connections_total"`
	BytesIn           int64  `json:"bytes_in"`
	BytesOut          int64  `json:"bytes_out"`
	CommandsRun       int64  `json:"commands_run"`
	UploadsSaved      int64  `json:"uploads_saved"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot reads every counter.  A nil collector yields the zero value.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	s := Snapshot{
		Uptime:            time.Since(c.started).Truncate(time.Second).String(),
		ConnectionsActive: c.active.Load(),
		ConnectionsTotal:  c.accepted.Load(),
		BytesIn:           c.in.Load(),
		BytesOut:          c.out.Load(),
		CommandsRun:       c.commands.Load(),
		UploadsSaved:      c.uploads.Load(),
		ErrorsTotal:       c.errors.Load(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.failAt.IsZero() {
		s.LastError = c.failAt.Format(time.RFC3339)
		s.LastErrorMessage = c.failMsg
	}
	return s
}

// JSON renders Snapshot on one line for the shutdown log.
func (c *Collector) JSON() string {
	data, _ := json.Marshal(c.Snapshot())
	return string(data)
}
