// Package testutil holds helpers shared by the adapter tests.
package testutil

import (
	"sync"

	"github.com/tuncerburak97/gozlem/internal/model"
)

// Entry is a record as received by RecordingSink.
type Entry struct {
	Level  model.Level
	Record model.Record
}

// RecordingSink keeps every record in memory.
type RecordingSink struct {
	mu      sync.Mutex
	entries []Entry
}

func (s *RecordingSink) Log(level model.Level, record model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{Level: level, Record: record})
}

func (s *RecordingSink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Maps returns the records as maps, in emission order.
func (s *RecordingSink) Maps() []map[string]interface{} {
	entries := s.Entries()
	out := make([]map[string]interface{}, len(entries))
	for i, e := range entries {
		out[i] = e.Record.Map()
	}
	return out
}

// FixedID is an id generator returning the same token every time.
func FixedID(id string) func() string {
	return func() string { return id }
}
