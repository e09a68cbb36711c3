package aggregate

import "errors"

// MultiSink fans records out to several sinks. Every sink is attempted even
// if an earlier one fails; the failures are joined.
type MultiSink []Sink

// Append writes r to every sink.
func (ms MultiSink) Append(r Record) error {
	var errs []error
	for _, s := range ms {
		if err := s.Append(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (ms MultiSink) Close() error {
	var errs []error
	for _, s := range ms {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
