// Package merge implements the external sort's second pass: a lazy k-way
// merge of already-sorted run files into one strictly ascending stream.
package merge

import (
	"io"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/bsm/extsort/codec"
	"github.com/bsm/extsort/internal/errs"
	ilog "github.com/bsm/extsort/internal/log"
	"github.com/bsm/extsort/queue"
	"github.com/bsm/extsort/tempfile"
)

// runSource pulls decoded items off a single run file, one at a time.
type runSource[T any] struct {
	reader *tempfile.RunReader
	codec  codec.Codec[T]
}

// next returns the next decoded item, io.EOF at the run's end, or a
// wrapped deserialization/IO error.
func (s *runSource[T]) next() (T, error) {
	var zero T
	payload, err := s.reader.ReadFrame()
	if err != nil {
		if err == io.EOF {
			return zero, io.EOF
		}
		return zero, errs.NewIOError(err, "read run frame", "")
	}
	item, decErr := s.codec.Decode(payload)
	if decErr != nil {
		return zero, errs.NewDeserializationError(decErr, len(payload), "merge.runSource.next")
	}
	return item, nil
}

func (s *runSource[T]) close() error {
	return s.reader.Close()
}

// Merger performs a lazy k-way merge over a fixed set of run files, opened
// on construction and consumed strictly in order, smallest-first, with the
// run index used to break ties so equal keys interleave deterministically.
type Merger[T any] struct {
	sources    []*runSource[T]
	comparator func(a, b T) int
	pq         *queue.PriorityQueue[T]
	started    bool
	done       bool
	pendingErr error
	logger     *zap.Logger
}

// New opens every run file in paths and returns a ready Merger. If any
// file fails to open, the already-opened ones are closed before returning.
func New[T any](paths []string, comparator func(a, b T) int, cdc codec.Codec[T], fileBufLen int, logger *zap.Logger) (*Merger[T], error) {
	sources := make([]*runSource[T], 0, len(paths))
	for _, p := range paths {
		r, err := tempfile.OpenRun(p, fileBufLen)
		if err != nil {
			for _, s := range sources {
				s.close()
			}
			return nil, errs.NewIOError(err, "open run file", p)
		}
		sources = append(sources, &runSource[T]{reader: r, codec: cdc})
	}
	return &Merger[T]{
		sources:    sources,
		comparator: comparator,
		pq:         queue.NewPriorityQueue(comparator),
		logger:     ilog.OrDefault(logger),
	}, nil
}

// prime seeds the priority queue with the first item of every run.
func (m *Merger[T]) prime() error {
	for i, s := range m.sources {
		item, err := s.next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return err
		}
		m.pq.Push(queue.Entry[T]{Value: item, RunIndex: i})
	}
	return nil
}

// Next returns the next item in ascending order. It returns io.EOF once
// every run is exhausted. If an error is returned, the Merger is left in a
// terminal errored state: every subsequent call returns io.EOF, since the
// error itself is only ever surfaced once.
func (m *Merger[T]) Next() (T, error) {
	var zero T
	if m.pendingErr != nil {
		err := m.pendingErr
		m.pendingErr = nil
		m.done = true
		return zero, err
	}
	if m.done {
		return zero, io.EOF
	}
	if !m.started {
		m.started = true
		if err := m.prime(); err != nil {
			m.done = true
			return zero, err
		}
	}

	if m.pq.Len() == 0 {
		m.done = true
		return zero, io.EOF
	}

	e := m.pq.Pop()
	src := m.sources[e.RunIndex]
	next, err := src.next()
	switch {
	case err == io.EOF:
		// run exhausted, nothing to refill with
	case err != nil:
		m.pendingErr = err
	default:
		m.pq.Push(queue.Entry[T]{Value: next, RunIndex: e.RunIndex})
	}
	return e.Value, nil
}

// Close closes every underlying run file, aggregating any failures rather
// than stopping at the first. Closing a RunReader also removes its file
// from disk, whether or not the run was fully consumed.
func (m *Merger[T]) Close() error {
	var result error
	for _, s := range m.sources {
		if err := s.close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result != nil && m.logger != nil {
		m.logger.Warn("merge cleanup incomplete", zap.Error(result))
	}
	return result
}
