package matchmaker

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"sync"
)

// CSVSink writes one row per team: pass, match, team, then the pool indices.
type CSVSink struct {
	mu   sync.Mutex
	w    *csv.Writer
	pass int
}

// NewCSVSink creates a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// Save implements ReplaySink.
func (s *CSVSink) Save(_ context.Context, matches []Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, match := range matches {
		for t, team := range match {
			row := []string{strconv.Itoa(s.pass), strconv.Itoa(i), strconv.Itoa(t)}
			for _, idx := range team {
				row = append(row, strconv.Itoa(idx))
			}
			if err := s.w.Write(row); err != nil {
				return err
			}
		}
	}
	s.pass++
	s.w.Flush()
	return s.w.Error()
}
