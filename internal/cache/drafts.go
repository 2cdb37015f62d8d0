package cache

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// DraftKey addresses one section draft of one document
type DraftKey struct {
	Ref     domain.DocumentRef
	Section domain.Section
}

// NewDraftKey builds a DraftKey from its parts
func NewDraftKey(ref domain.DocumentRef, section domain.Section) DraftKey {
	return DraftKey{Ref: ref, Section: section}
}

// String returns the cache key for the draft. IDs are escaped so that a ':' inside one
// cannot make two different keys collide.
func (k DraftKey) String() string {
	return fmt.Sprintf("draft:%s:%s:%s",
		url.QueryEscape(k.Ref.ListingID),
		url.QueryEscape(k.Ref.DocumentTypeID),
		url.QueryEscape(string(k.Section)),
	)
}

// Drafts is the Draft Cache: uncommitted section edits keyed by (listing, document type, section).
// Values are treated as immutable snapshots; writers store a fresh copy on every change.
type Drafts struct {
	cache domain.Cache
}

// NewDrafts wraps a cache as a Draft Cache
func NewDrafts(c domain.Cache) *Drafts {
	return &Drafts{cache: c}
}

// Get returns the current draft, if any
func (d *Drafts) Get(ctx context.Context, key DraftKey) (interface{}, bool) {
	v, ok := d.cache.Get(ctx, key.String())
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Set replaces the draft; subscribers observe the new value before Set returns
func (d *Drafts) Set(ctx context.Context, key DraftKey, draft interface{}) error {
	return d.cache.Set(ctx, key.String(), draft)
}

// SeedIfAbsent seeds the draft from the document's section when no draft exists yet.
// Returns the draft in effect afterwards (nil when neither exists).
func (d *Drafts) SeedIfAbsent(ctx context.Context, key DraftKey, doc *domain.Document) (interface{}, error) {
	if current, ok := d.Get(ctx, key); ok {
		return current, nil
	}
	if doc == nil {
		return nil, nil
	}
	value := doc.DocumentData.SectionValue(key.Section)
	if value == nil {
		return nil, nil
	}
	if _, err := d.cache.SetIfAbsent(ctx, key.String(), value); err != nil {
		return nil, err
	}
	current, _ := d.Get(ctx, key)
	return current, nil
}

// SeedDocument seeds every section draft of doc that is not already present
func (d *Drafts) SeedDocument(ctx context.Context, doc *domain.Document) error {
	ref := domain.DocumentRef{ListingID: doc.ListingID, DocumentTypeID: doc.DocumentTypeID}
	for _, section := range domain.AllSections {
		if _, err := d.SeedIfAbsent(ctx, NewDraftKey(ref, section), doc); err != nil {
			return fmt.Errorf("seed %s draft: %w", section, err)
		}
	}
	return nil
}

// Subscribe calls fn after every change of the draft
func (d *Drafts) Subscribe(key DraftKey, fn func(value interface{})) func() {
	return d.cache.Subscribe(key.String(), func(_ string, value interface{}) {
		fn(value)
	})
}

// SubscribeDocument calls fn after a change of any section draft of ref
func (d *Drafts) SubscribeDocument(ref domain.DocumentRef, fn func(section domain.Section, value interface{})) func() {
	unsubs := make([]func(), 0, len(domain.AllSections))
	for _, section := range domain.AllSections {
		section := section
		unsubs = append(unsubs, d.Subscribe(NewDraftKey(ref, section), func(value interface{}) {
			fn(section, value)
		}))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
