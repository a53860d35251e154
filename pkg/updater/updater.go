package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/macropower/indexstamp/pkg/gittag"
	"github.com/macropower/indexstamp/pkg/helmindex"
)

var (
	ErrResolveTag = errors.New("resolve tag")
	ErrLoadIndex  = errors.New("load index")
	ErrStamp      = errors.New("stamp index")
	ErrSaveIndex  = errors.New("save index")

	// ErrVersionNotFound is returned in strict mode when no record matches.
	ErrVersionNotFound = helmindex.ErrVersionNotFound
)

// Result describes a completed run.
type Result struct {
	Tag     string
	Chart   string
	Index   int
	Matched bool
}

// Updater stamps an index with the current tag.
type Updater struct {
	tags   gittag.Resolver
	store  helmindex.Store
	out    io.Writer
	chart  string
	subs   []func(any)
	strict bool
	dryRun bool
}

type Opts func(*Updater)

// WithChart sets the chart to stamp. Defaults to [helmindex.DefaultChart].
func WithChart(chart string) Opts {
	return func(u *Updater) {
		u.chart = chart
	}
}

// WithOutput sets where the progress line is written. Defaults to stdout.
func WithOutput(w io.Writer) Opts {
	return func(u *Updater) {
		u.out = w
	}
}

// WithStrict makes a missing version an error. The index is not written in
// that case.
func WithStrict(strict bool) Opts {
	return func(u *Updater) {
		u.strict = strict
	}
}

// WithDryRun writes the serialized index to the output instead of the store.
func WithDryRun(dryRun bool) Opts {
	return func(u *Updater) {
		u.dryRun = dryRun
	}
}

func New(tags gittag.Resolver, store helmindex.Store, opts ...Opts) *Updater {
	u := &Updater{
		tags:  tags,
		store: store,
		out:   os.Stdout,
		chart: helmindex.DefaultChart,
		subs:  []func(any){},
	}
	for _, opt := range opts {
		opt(u)
	}

	return u
}

func (u *Updater) Subscribe(f func(any)) {
	u.subs = append(u.subs, f)
}

func (u *Updater) broadcastEvent(evt any) {
	for _, sub := range u.subs {
		sub(evt)
	}
}

// Run resolves the tag and stamps the index. The index is rewritten even when
// no record matches, unless the updater is strict.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	res, err := u.run(ctx)
	u.broadcastEvent(EventDone{Err: err})

	return res, err
}

func (u *Updater) run(ctx context.Context) (*Result, error) {
	tag, err := u.tags.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolveTag, err)
	}

	u.broadcastEvent(EventTagResolved(tag))

	if _, err := fmt.Fprintf(u.out, "Updating appVersion to %s\n", tag); err != nil {
		return nil, fmt.Errorf("write progress: %w", err)
	}

	data, err := u.store.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadIndex, err)
	}

	idx, err := helmindex.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadIndex, err)
	}

	n, matched, err := idx.SetAppVersion(u.chart, tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStamp, err)
	}

	res := &Result{Tag: tag, Chart: u.chart, Index: n, Matched: matched}
	u.broadcastEvent(EventStamped{Chart: u.chart, Tag: tag, Index: n, Matched: matched})

	if !matched {
		if u.strict {
			return res, fmt.Errorf("%w: %w: %s %s", ErrStamp, ErrVersionNotFound, u.chart, tag)
		}

		slog.Warn("no chart version matches tag, appVersion unchanged",
			slog.String("chart", u.chart),
			slog.String("tag", tag),
		)
	}

	out, err := idx.Bytes()
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrSaveIndex, err)
	}

	if u.dryRun {
		if _, err := u.out.Write(out); err != nil {
			return res, fmt.Errorf("write index: %w", err)
		}

		return res, nil
	}

	if err := u.store.Write(out); err != nil {
		return res, fmt.Errorf("%w: %w", ErrSaveIndex, err)
	}

	return res, nil
}
