// Package editors implements the Section Editors of the Portfolio Page and the router that
// dispatches a selected section to its editor.
//
// Every editor follows the same discipline: a change is validated, applied to a fresh copy
// of the section draft and written to the Draft Cache synchronously, so every subscriber sees
// it before any network round-trip. Persistence happens afterwards: text fields commit after
// a quiet period or on blur, discrete selections commit immediately. A failed commit never
// rolls the draft back; it only shows up in the section's save status.
package editors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/cache"
	"github.com/aj0urdain/Landmark-App-sub000/internal/debounce"
	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/metrics"
	"github.com/aj0urdain/Landmark-App-sub000/internal/validation"
)

// DefaultDebounce is the quiet period before a text change is committed
const DefaultDebounce = 750 * time.Millisecond

// commitTimeout bounds debounced commits, which run without a request context
const commitTimeout = 10 * time.Second

// Options tunes editor timing
type Options struct {
	StatusTTL time.Duration
	Debounce  time.Duration
}

// Deps are the collaborators shared by every editor of one document
type Deps struct {
	Ref       domain.DocumentRef
	Drafts    *cache.Drafts
	Writer    domain.SectionWriter
	Validator *validation.Validator
	Logger    *zap.Logger
	Options   Options

	// Photo cropping; optional for sets that never crop
	Cropper   CropOpener
	Processor domain.ImageProcessor
}

// Caret is the text cursor of the field being edited
type Caret struct {
	Field  string `json:"field"`
	Offset int    `json:"offset"`
}

// Change is a partial section object typed by the user, plus the caret of the active field
type Change struct {
	Fields map[string]interface{} `json:"fields"`
	Caret  *Caret                 `json:"caret,omitempty"`
}

// Result is the outcome of a change: the draft everyone now sees and whether it moved
type Result struct {
	Section domain.Section `json:"section"`
	Draft   interface{}    `json:"draft"`
	Applied bool           `json:"applied"`
	Reason  string         `json:"reason,omitempty"`
	Caret   *Caret         `json:"caret,omitempty"`
	Status  Status         `json:"status"`
}

// SectionEditor is the contract every section editor fulfils
type SectionEditor interface {
	Section() domain.Section
	// Draft returns the current draft, nil when the section has no data yet
	Draft(ctx context.Context) interface{}
	// Apply validates and applies a field change to the draft
	Apply(ctx context.Context, change Change) (*Result, error)
	// Commit persists the draft now; expectedVersion > 0 enables the version check
	Commit(ctx context.Context, expectedVersion int64) error
	// Blur commits a pending debounced change immediately
	Blur(ctx context.Context) error
	Status() Status
	Close()
}

// outcome is what a section's field logic reports back to the core
type outcome struct {
	changed   bool
	immediate bool
	reason    string
}

func rejected(reason string) outcome { return outcome{reason: reason} }

// core is the section-independent part of an editor over section type T
type core[T any] struct {
	section   domain.Section
	key       cache.DraftKey
	deps      Deps
	status    *StatusTracker
	debouncer *debounce.Debouncer
	logger    *zap.Logger

	// serializes read-modify-write of the draft
	mu sync.Mutex

	// apply mutates a private copy of the draft
	apply func(draft *T, fields map[string]interface{}) (outcome, error)
	// persistValue builds the value written to the store; defaults to the draft itself
	persistValue func(draft *T) interface{}
}

func newCore[T any](section domain.Section, deps Deps, status *StatusTracker) *core[T] {
	delay := deps.Options.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &core[T]{
		section:   section,
		key:       cache.NewDraftKey(deps.Ref, section),
		deps:      deps,
		status:    status,
		debouncer: debounce.New(delay),
		logger: logger.With(
			zap.String("listing_id", deps.Ref.ListingID),
			zap.String("document_type_id", deps.Ref.DocumentTypeID),
			zap.String("section", string(section)),
		),
	}
}

// Section implements SectionEditor
func (c *core[T]) Section() domain.Section { return c.section }

// Status implements SectionEditor
func (c *core[T]) Status() Status { return c.status.Get(c.section) }

// Close implements SectionEditor. A pending debounced commit is dropped.
func (c *core[T]) Close() { c.debouncer.Close() }

// Draft implements SectionEditor
func (c *core[T]) Draft(ctx context.Context) interface{} {
	if d := c.current(ctx); d != nil {
		return d
	}
	return nil
}

func (c *core[T]) current(ctx context.Context) *T {
	v, ok := c.deps.Drafts.Get(ctx, c.key)
	if !ok {
		return nil
	}
	d, ok := v.(*T)
	if !ok {
		c.logger.Warn("draft has unexpected type", zap.String("type", fmt.Sprintf("%T", v)))
		return nil
	}
	return d
}

// Apply implements SectionEditor
func (c *core[T]) Apply(ctx context.Context, change Change) (*Result, error) {
	if len(change.Fields) == 0 {
		return c.result(ctx, outcome{reason: "no fields"}, change.Caret), nil
	}
	if c.deps.Validator != nil {
		if err := c.deps.Validator.Section(c.section, change.Fields); err != nil {
			return nil, err
		}
	}
	return c.mutate(ctx, change.Caret, func(draft *T) (outcome, error) {
		return c.apply(draft, change.Fields)
	})
}

// mutate applies fn to a copy of the draft, publishes it and schedules persistence
func (c *core[T]) mutate(ctx context.Context, caret *Caret, fn func(draft *T) (outcome, error)) (*Result, error) {
	c.mu.Lock()
	next, err := cloneDraft(c.current(ctx))
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	out, err := fn(next)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if !out.changed {
		c.mu.Unlock()
		return c.result(ctx, out, caret), nil
	}
	if err := c.deps.Drafts.Set(ctx, c.key, next); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("write draft: %w", err)
	}
	c.mu.Unlock()
	metrics.DraftWrites.WithLabelValues(string(c.section)).Inc()

	if out.immediate {
		// A failed commit lands in the status; the draft change itself succeeded
		_ = c.Commit(ctx, 0)
	} else {
		c.debouncer.Trigger(c.commitDetached)
	}
	return c.result(ctx, out, caret), nil
}

func (c *core[T]) commitDetached() {
	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()
	_ = c.Commit(ctx, 0)
}

// Commit implements SectionEditor
func (c *core[T]) Commit(ctx context.Context, expectedVersion int64) error {
	c.debouncer.Cancel()

	draft := c.current(ctx)
	if draft == nil {
		return nil
	}
	var value interface{} = draft
	if c.persistValue != nil {
		value = c.persistValue(draft)
	}

	c.status.Set(c.section, StatePending, nil)
	start := time.Now()
	_, err := c.deps.Writer.PatchSection(ctx, c.deps.Ref, c.section, value, expectedVersion)
	metrics.SectionCommitDuration.WithLabelValues(string(c.section)).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Error("section commit failed", zap.Error(err))
		c.status.Set(c.section, StateError, err)
		metrics.SectionCommits.WithLabelValues(string(c.section), string(StateError)).Inc()
		return fmt.Errorf("commit %s: %w", c.section, err)
	}

	c.logger.Debug("section committed", zap.Duration("duration", time.Since(start)))
	c.status.Set(c.section, StateSuccess, nil)
	metrics.SectionCommits.WithLabelValues(string(c.section), string(StateSuccess)).Inc()
	return nil
}

// Blur implements SectionEditor
func (c *core[T]) Blur(ctx context.Context) error {
	if !c.debouncer.Cancel() {
		return nil
	}
	return c.Commit(ctx, 0)
}

func (c *core[T]) result(ctx context.Context, out outcome, caret *Caret) *Result {
	draft := c.current(ctx)
	res := &Result{
		Section: c.section,
		Applied: out.changed,
		Reason:  out.reason,
		Status:  c.Status(),
	}
	if draft != nil {
		res.Draft = draft
	}
	if caret != nil {
		res.Caret = &Caret{Field: caret.Field, Offset: clampCaret(fieldText(draft, caret.Field), caret.Offset)}
	}
	return res
}

// cloneDraft deep-copies a draft; nil yields a zero section
func cloneDraft[T any](src *T) (*T, error) {
	out := new(T)
	if src == nil {
		return out, nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("copy draft: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("copy draft: %w", err)
	}
	return out, nil
}

// decodeFields decodes a generic field map into a typed change struct
func decodeFields(fields map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// fieldText returns the string value of a top-level field of draft
func fieldText(draft interface{}, field string) string {
	if draft == nil || field == "" {
		return ""
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	s, _ := m[field].(string)
	return s
}

// clampCaret keeps a caret inside value, counted in runes
func clampCaret(value string, offset int) int {
	n := utf8.RuneCountInString(value)
	if offset < 0 {
		return 0
	}
	if offset > n {
		return n
	}
	return offset
}

// ErrCropUnavailable is returned when a photo editor has no cropper configured
var ErrCropUnavailable = errors.New("photo cropping is not configured")
