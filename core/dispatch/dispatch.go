// Package dispatch routes an upload to the strategy for its format and
// turns every failure into an unchanged passthrough.
package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ankit-chaubey/upload-surgery/core"
	"github.com/ankit-chaubey/upload-surgery/core/audio"
	"github.com/ankit-chaubey/upload-surgery/core/document"
	"github.com/ankit-chaubey/upload-surgery/core/image"
	"github.com/ankit-chaubey/upload-surgery/core/logger"
)

// DefaultMaxBytes is the size bound used by Default.
const DefaultMaxBytes = 100 << 20

// Options controls routing. The zero value strips every known format with
// no size bound.
type Options struct {
	// MaxBytes bounds the input size; 0 disables the check.
	MaxBytes int
	// StrictMime rejects files whose declared MIME type disagrees with
	// the extension.
	StrictMime bool
	// Disabled kinds are passed through without parsing.
	Disabled []core.FormatKind
	// Strategies replace the built-in strategy for their Kind.
	Strategies []core.Strategy
}

// DefaultOptions returns the options used by Default.
func DefaultOptions() Options {
	return Options{MaxBytes: DefaultMaxBytes}
}

// Dispatcher is immutable after New and safe for concurrent use.
type Dispatcher struct {
	opts       Options
	log        *slog.Logger
	strategies map[core.FormatKind]core.Strategy
	disabled   map[core.FormatKind]bool
}

// New builds a dispatcher. A nil log uses the global logger.
func New(opts Options, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logger.L
	}
	d := &Dispatcher{
		opts:       opts,
		log:        log.With(slog.String("component", "dispatch")),
		strategies: make(map[core.FormatKind]core.Strategy),
		disabled:   make(map[core.FormatKind]bool),
	}
	for _, s := range builtin() {
		d.strategies[s.Kind()] = s
	}
	for _, s := range opts.Strategies {
		d.strategies[s.Kind()] = s
	}
	for _, k := range opts.Disabled {
		d.disabled[k] = true
	}
	return d
}

// Default returns a dispatcher with DefaultOptions and the global logger.
func Default() *Dispatcher {
	return New(DefaultOptions(), nil)
}

// Strip runs in through the default dispatcher.
func Strip(in core.InputFile) core.OutputFile {
	return Default().Strip(in)
}

func builtin() []core.Strategy {
	return []core.Strategy{
		image.JPEG{},
		image.PNG{},
		image.GIF{},
		document.PDF{},
		audio.MP3{},
		audio.FLAC{},
		core.PassthroughStrategy{},
	}
}

// Strip returns in with metadata removed, or in unchanged when the format
// is unknown or anything goes wrong. It never fails.
func (d *Dispatcher) Strip(in core.InputFile) core.OutputFile {
	out, _ := d.StripWithReport(in)
	return out
}

// StripWithReport is Strip plus a description of what happened.
func (d *Dispatcher) StripWithReport(in core.InputFile) (core.OutputFile, core.Report) {
	log := d.log.With(slog.String("file", in.Name))
	out := core.OutputFile{Name: in.Name, Mime: in.DeclaredMime, Bytes: in.Bytes}
	rep := core.Report{Name: in.Name, SizeBefore: len(in.Bytes)}

	kind, res, err := d.route(in, log)
	rep.Kind = kind
	switch {
	case err != nil:
		rep.Outcome = core.OutcomePassthrough
		rep.Reason = err
		if errors.Is(err, core.ErrUnsupportedFormat) {
			log.Debug("format not handled, passing through", slog.String("kind", kind.String()), slog.Any("reason", err))
		} else {
			log.Warn("strip failed, passing through", slog.String("kind", kind.String()), slog.Any("error", err))
		}
	case kind == core.Passthrough:
		rep.Outcome = core.OutcomePassthrough
	case !res.Changed:
		rep.Outcome = core.OutcomeUnchanged
		log.Debug("no metadata found", slog.String("kind", kind.String()))
	default:
		out.Bytes = res.Data
		rep.Outcome = core.OutcomeStripped
		rep.Removed = core.Tags(res.Removed)
		log.Debug("metadata removed",
			slog.String("kind", kind.String()),
			slog.Any("removed", rep.Removed),
			slog.Int("size_before", len(in.Bytes)),
			slog.Int("size_after", len(res.Data)))
	}
	rep.SizeAfter = len(out.Bytes)
	return out, rep
}

func (d *Dispatcher) route(in core.InputFile, log *slog.Logger) (core.FormatKind, core.Result, error) {
	unchanged := core.Unchanged(in.Bytes)

	if d.opts.MaxBytes > 0 && len(in.Bytes) > d.opts.MaxBytes {
		return core.Passthrough, unchanged, fmt.Errorf("%d bytes over limit of %d: %w", len(in.Bytes), d.opts.MaxBytes, core.ErrInputTooLarge)
	}

	kind, known := core.KindFromName(in.Name)
	if !known {
		log.Debug("unknown extension, passing through", slog.String("ext", filepath.Ext(in.Name)))
		return core.Passthrough, unchanged, nil
	}
	if kind == core.Passthrough {
		return kind, unchanged, fmt.Errorf("%s container: %w", filepath.Ext(in.Name), core.ErrUnsupportedFormat)
	}
	if d.disabled[kind] {
		return kind, unchanged, fmt.Errorf("%s stripping disabled: %w", kind, core.ErrUnsupportedFormat)
	}

	if sniffed, ok := core.Sniff(in.Bytes); ok && sniffed != kind {
		return kind, unchanged, fmt.Errorf("extension says %s, content says %s: %w", kind, sniffed, core.ErrFormatMismatch)
	}
	if d.opts.StrictMime && !core.MimeMatches(kind, in.DeclaredMime) {
		return kind, unchanged, fmt.Errorf("declared %q for %s: %w", in.DeclaredMime, kind, core.ErrFormatMismatch)
	}

	s, ok := d.strategies[kind]
	if !ok {
		return kind, unchanged, fmt.Errorf("no strategy for %s: %w", kind, core.ErrUnsupportedFormat)
	}
	log.Debug("routing", slog.String("kind", kind.String()))

	res, err := safeStrip(s, in.Bytes)
	if err != nil {
		return kind, unchanged, err
	}
	if !res.Changed {
		return kind, unchanged, nil
	}
	if err := checkOutput(kind, in.Bytes, res.Data); err != nil {
		return kind, unchanged, err
	}
	return kind, res, nil
}

func safeStrip(s core.Strategy, data []byte) (res core.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = core.Result{}
			err = fmt.Errorf("%s strategy panicked: %v: %w", s.Kind(), r, core.ErrMalformedInput)
		}
	}()
	return s.Strip(data)
}

// checkOutput rejects a stripped buffer that lost the input's signature or,
// for PDF, changed length.
func checkOutput(kind core.FormatKind, in, out []byte) error {
	n := core.SignatureLen(kind)
	if len(in) < n || len(out) < n || !bytes.Equal(in[:n], out[:n]) {
		return fmt.Errorf("%s output lost its signature: %w", kind, core.ErrMalformedInput)
	}
	if kind == core.Pdf && len(in) != len(out) {
		return fmt.Errorf("pdf output changed length %d -> %d: %w", len(in), len(out), core.ErrMalformedInput)
	}
	return nil
}
