/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// ImportProgress tracks the progress of a bulk JSON import
type ImportProgress struct {
	RecordsRead     int64     // Records decoded so far, skipped ones included
	RecordsImported int64     // Records written to the store
	RecordsSkipped  int64     // Records rejected by the error handler
	StartTime       time.Time // When the import started
	CurrentRate     float64   // Records per second
}

// ImportOptions configures bulk JSON imports
type ImportOptions struct {
	ProgressInterval int64                // Records between progress callbacks (default: 100)
	ProgressHandler  func(ImportProgress) // Optional progress callback
	ErrorHandler     func(error) bool     // Return true to skip the record and continue, false to stop
}

// ImportOption is a functional option for configuring imports
type ImportOption func(*ImportOptions)

// DefaultImportOptions returns default import options
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		ProgressInterval: 100,
	}
}

// ApplyImportOptions returns the defaults with opts applied
func ApplyImportOptions(opts ...ImportOption) ImportOptions {
	o := DefaultImportOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = 1
	}
	return o
}

// WithProgressInterval sets how many records pass between progress callbacks
func WithProgressInterval(n int64) ImportOption {
	return func(opts *ImportOptions) {
		opts.ProgressInterval = n
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(ImportProgress)) ImportOption {
	return func(opts *ImportOptions) {
		opts.ProgressHandler = handler
	}
}

// WithErrorHandler sets an error handler that can decide whether to continue
func WithErrorHandler(handler func(error) bool) ImportOption {
	return func(opts *ImportOptions) {
		opts.ErrorHandler = handler
	}
}

// Tick records one decoded record and reports progress when due.
func (o ImportOptions) Tick(p *ImportProgress) {
	p.RecordsRead++
	if elapsed := time.Since(p.StartTime).Seconds(); elapsed > 0 {
		p.CurrentRate = float64(p.RecordsRead) / elapsed
	}
	if o.ProgressHandler != nil && p.RecordsRead%o.ProgressInterval == 0 {
		o.ProgressHandler(*p)
	}
}

// Finish sends the final progress report.
func (o ImportOptions) Finish(p ImportProgress) {
	if o.ProgressHandler != nil && p.RecordsRead%o.ProgressInterval != 0 {
		o.ProgressHandler(p)
	}
}

// Continue reports whether an import may go on after a record failed.
func (o ImportOptions) Continue(err error) bool {
	return o.ErrorHandler != nil && o.ErrorHandler(err)
}
