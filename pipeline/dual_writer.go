package pipeline

import (
	"errors"
	"fmt"

	"github.com/aluiziolira/go-scrape-books-records/models"
)

// MultiWriter fans every batch out to several writers in order. A batch that
// fails on one writer is not offered to the rest.
type MultiWriter struct {
	writers []namedWriter
}

type namedWriter struct {
	name string
	OutputWriter
}

// NewDualWriter writes CSV to csvFilename and JSONL to jsonFilename.
func NewDualWriter(csvFilename, jsonFilename string) (*MultiWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("failed to create JSON writer: %w", err)
	}

	return &MultiWriter{writers: []namedWriter{
		{name: "CSV", OutputWriter: csvWriter},
		{name: "JSON", OutputWriter: jsonWriter},
	}}, nil
}

// Write hands records to each writer.
func (mw *MultiWriter) Write(records []*models.Record) error {
	for _, w := range mw.writers {
		if err := w.Write(records); err != nil {
			return fmt.Errorf("%s write failed: %w", w.name, err)
		}
	}
	return nil
}

// Close closes every writer, reporting all failures.
func (mw *MultiWriter) Close() error {
	return mw.each("close", OutputWriter.Close)
}

// Validate checks every output.
func (mw *MultiWriter) Validate() error {
	return mw.each("validation", OutputWriter.Validate)
}

func (mw *MultiWriter) each(op string, fn func(OutputWriter) error) error {
	var errs []error
	for _, w := range mw.writers {
		if err := fn(w.OutputWriter); err != nil {
			errs = append(errs, fmt.Errorf("%s %s failed: %w", w.name, op, err))
		}
	}
	return errors.Join(errs...)
}
