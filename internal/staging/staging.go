// Package staging moves files into a private staging directory and back.
//
// Every Area owns a uniquely named directory for the lifetime of one
// encryption run, so concurrent runs never share staging state. Moves run
// concurrently and are always joined before results are inspected: one
// failing move never cancels another, and every outcome is reported.
package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/vault/internal/scan"
)

// DefaultConcurrency bounds the number of moves in flight.
const DefaultConcurrency = 16

// Prefix is the name prefix of staging directories.
const Prefix = ".vault-stage-"

// RenameFunc moves a file from oldpath to newpath.
type RenameFunc func(oldpath, newpath string) error

// Record maps one original file to its staged location.
type Record struct {
	Name   string
	Source string
	Staged string
}

// Failure describes a move that did not happen.
type Failure struct {
	Name   string
	Source string
	Err    error
}

// Reason returns the failure message used in recovery logs.
func (f Failure) Reason() string {
	return fmt.Sprintf("move %s: %v", f.Source, f.Err)
}

// Report holds the settled outcome of a staging pass.
type Report struct {
	Staged []Record
	Failed []Failure
}

// Names returns the names of the staged files in candidate order.
func (r Report) Names() []string {
	out := make([]string, 0, len(r.Staged))
	for _, rec := range r.Staged {
		out = append(out, rec.Name)
	}
	return out
}

// Area is a staging directory owned by one run.
type Area struct {
	dir         string
	rename      RenameFunc
	concurrency int
	logger      *slog.Logger
}

// Option configures an Area.
type Option func(*Area)

// WithRenameFunc replaces os.Rename as the move primitive.
func WithRenameFunc(fn RenameFunc) Option {
	return func(a *Area) {
		if fn != nil {
			a.rename = fn
		}
	}
}

// WithConcurrency bounds concurrent moves. Values < 1 use DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(a *Area) {
		a.concurrency = n
	}
}

// WithLogger sets the logger. If nil, a discard logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Area) {
		a.logger = logger
	}
}

// New creates a fresh staging directory under parent.
func New(parent string, opts ...Option) (*Area, error) {
	a := &Area{rename: os.Rename}
	for _, opt := range opts {
		opt(a)
	}
	if a.concurrency < 1 {
		a.concurrency = DefaultConcurrency
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}

	dir, err := os.MkdirTemp(parent, Prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("staging: create area: %w", err)
	}
	a.dir = dir
	return a, nil
}

// Dir returns the staging directory path.
func (a *Area) Dir() string {
	return a.dir
}

// Stage moves every candidate into the area and reports each outcome.
// Candidates must be files; their names must be unique.
func (a *Area) Stage(candidates []*scan.Entry) Report {
	if err := os.MkdirAll(a.dir, 0o700); err != nil {
		rep := Report{}
		for _, c := range candidates {
			rep.Failed = append(rep.Failed, Failure{Name: c.Name, Source: c.AbsolutePath, Err: err})
		}
		return rep
	}

	moves := make([]move, len(candidates))
	for i, c := range candidates {
		moves[i] = move{
			name: c.Name,
			from: c.AbsolutePath,
			to:   filepath.Join(a.dir, c.Name),
		}
	}
	a.settle(moves)

	var rep Report
	for _, m := range moves {
		if m.err != nil {
			a.logger.Warn("staging move failed", slog.String("file", m.from), slog.Any("error", m.err))
			rep.Failed = append(rep.Failed, Failure{Name: m.name, Source: m.from, Err: m.err})
			continue
		}
		a.logger.Debug("staged file", slog.String("file", m.from))
		rep.Staged = append(rep.Staged, Record{Name: m.name, Source: m.from, Staged: m.to})
	}
	return rep
}

// Rollback moves staged records back to their original paths.
func (a *Area) Rollback(records []Record) []Failure {
	moves := make([]move, len(records))
	for i, rec := range records {
		moves[i] = move{name: rec.Name, from: rec.Staged, to: rec.Source}
	}
	a.settle(moves)
	return failures(moves)
}

// Restore moves every file present in the area into dest. It returns the
// files moved and the moves that failed.
func (a *Area) Restore(dest string) ([]Record, []Failure) {
	listing, err := scan.Scan(a.dir, scan.WithDepth(1))
	if err != nil {
		return nil, []Failure{{Name: filepath.Base(a.dir), Source: a.dir, Err: err}}
	}
	if listing == nil {
		return nil, nil
	}

	files := listing.Files()
	moves := make([]move, len(files))
	for i, f := range files {
		moves[i] = move{name: f.Name, from: f.AbsolutePath, to: filepath.Join(dest, f.Name)}
	}
	a.settle(moves)

	var restored []Record
	for _, m := range moves {
		if m.err == nil {
			restored = append(restored, Record{Name: m.name, Source: m.to, Staged: m.from})
		}
	}
	return restored, failures(moves)
}

// Discard deletes the area and everything in it.
func (a *Area) Discard() error {
	if err := os.RemoveAll(a.dir); err != nil {
		return fmt.Errorf("staging: discard %s: %w", a.dir, err)
	}
	return nil
}

// Close removes the area if it is empty. A non-empty area is left in place
// so staged files are never lost.
func (a *Area) Close() error {
	err := os.Remove(a.dir)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	entries, readErr := os.ReadDir(a.dir)
	if readErr == nil && len(entries) > 0 {
		return fmt.Errorf("staging: %s still holds %d files", a.dir, len(entries))
	}
	return fmt.Errorf("staging: close %s: %w", a.dir, err)
}

type move struct {
	name string
	from string
	to   string
	err  error
}

// settle runs all moves and waits for every one of them. Each move writes
// only its own slot.
func (a *Area) settle(moves []move) {
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i := range moves {
		g.Go(func() error {
			moves[i].err = a.rename(moves[i].from, moves[i].to)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // moves report through their slots
}

func failures(moves []move) []Failure {
	var out []Failure
	for _, m := range moves {
		if m.err != nil {
			out = append(out, Failure{Name: m.name, Source: m.from, Err: m.err})
		}
	}
	return out
}
