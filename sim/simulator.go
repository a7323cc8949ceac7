// Package sim replays a trace against a cache model.
//
// The simulator owns the logical clock that orders LRU recency. The clock
// advances once per data access; skipped records (instruction fetches) are
// invisible to it. Counters are never kept by the model: every access yields
// a Result and the Summary is a fold over those results.
package sim

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/logging"
	"github.com/sarchlab/csim/logging/logfields"
	"github.com/sarchlab/csim/trace"
)

// Source supplies trace records. Next returns io.EOF at the end of the
// stream.
type Source interface {
	Next() (trace.Record, error)
}

// Result is the classification of one trace record.
type Result struct {
	Record  trace.Record
	Outcome cache.Outcome
	// Time is the logical time the access was performed at.
	Time uint64
	// ExtraHit is set for Modify records: the store half always hits the
	// line the load half just brought in.
	ExtraHit bool
}

// An Observer is notified of every classified access.
type Observer interface {
	Observe(Result)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Result)

// Observe calls f(r).
func (f ObserverFunc) Observe(r Result) {
	f(r)
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithObserver registers an observer. Observers run in registration order.
func WithObserver(o Observer) Option {
	return func(s *Simulator) {
		s.observers = append(s.observers, o)
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Simulator) {
		s.log = log
	}
}

// Simulator drives a cache model with trace records.
type Simulator struct {
	model     cache.Model
	clock     uint64
	observers []Observer
	log       logrus.FieldLogger
}

// New creates a simulator around an empty model.
func New(model cache.Model, opts ...Option) *Simulator {
	s := &Simulator{
		model: model,
		log:   logging.DefaultLogger.WithField(logfields.LogComponent, "sim"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Model returns the cache model being driven.
func (s *Simulator) Model() cache.Model {
	return s.model
}

// Clock returns the logical time of the last access.
func (s *Simulator) Clock() uint64 {
	return s.clock
}

// Step classifies one record. ok is false for records that are not data
// accesses; those do not reach the model and do not advance the clock.
func (s *Simulator) Step(rec trace.Record) (res Result, ok bool) {
	if !rec.Op.IsData() {
		return Result{}, false
	}

	s.clock++
	res = Result{
		Record:   rec,
		Outcome:  s.model.Access(rec.Address, s.clock),
		Time:     s.clock,
		ExtraHit: rec.Op == trace.Modify,
	}

	for _, o := range s.observers {
		o.Observe(res)
	}

	return res, true
}

// Run steps through src until it is exhausted. If src fails, the summary of
// the records processed so far is returned together with the error.
func (s *Simulator) Run(src Source) (Summary, error) {
	var sum Summary

	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.log.WithError(err).WithField("accesses", sum.Accesses).
				Error("trace aborted")
			return sum, err
		}

		if res, ok := s.Step(rec); ok {
			sum.Add(res)
		}
	}

	s.log.WithFields(logrus.Fields{
		"hits":      sum.Hits,
		"misses":    sum.Misses,
		"evictions": sum.Evictions,
		"clock":     s.clock,
	}).Debug("trace finished")

	return sum, nil
}

// RunRecords steps through an in-memory trace.
func (s *Simulator) RunRecords(records []trace.Record) Summary {
	sum, _ := s.Run(&sliceSource{records: records})
	return sum
}

type sliceSource struct {
	records []trace.Record
	next    int
}

func (s *sliceSource) Next() (trace.Record, error) {
	if s.next >= len(s.records) {
		return trace.Record{}, io.EOF
	}

	rec := s.records[s.next]
	s.next++

	return rec, nil
}
