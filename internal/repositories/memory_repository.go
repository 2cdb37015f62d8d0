package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// MemoryRepository keeps documents in process memory. Used for local development and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Document
	byRef map[domain.DocumentRef]string
	now   func() time.Time
}

// NewMemoryRepository creates an empty in-memory document store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]*domain.Document),
		byRef: make(map[domain.DocumentRef]string),
		now:   time.Now,
	}
}

// FetchDocument implements domain.DocumentStore
func (r *MemoryRepository) FetchDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byRef[ref]
	if !ok {
		return nil, fmt.Errorf("%w: listing %s, type %s", domain.ErrDocumentNotFound, ref.ListingID, ref.DocumentTypeID)
	}
	return cloneDocument(r.byID[id])
}

// GetByID implements domain.DocumentStore
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return cloneDocument(doc)
}

// CreateDocument implements domain.DocumentStore
func (r *MemoryRepository) CreateDocument(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byRef[ref]; exists {
		return nil, fmt.Errorf("%w: listing %s, type %s", domain.ErrDocumentExists, ref.ListingID, ref.DocumentTypeID)
	}
	doc := newDocument(ref, r.now())
	r.byID[doc.ID] = doc
	r.byRef[ref] = doc.ID
	return cloneDocument(doc)
}

// PatchDocumentData implements domain.DocumentStore
func (r *MemoryRepository) PatchDocumentData(ctx context.Context, id string, patch map[string]interface{}, expectedVersion int64) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	doc, err := cloneDocument(stored)
	if err != nil {
		return nil, err
	}
	if err := applyPatch(doc, patch, expectedVersion, r.now()); err != nil {
		return nil, err
	}
	r.byID[id] = doc
	return cloneDocument(doc)
}

// CheckConnection implements domain.HealthChecker
func (r *MemoryRepository) CheckConnection(ctx context.Context) error { return ctx.Err() }

// EnsureCollections implements domain.HealthChecker
func (r *MemoryRepository) EnsureCollections(ctx context.Context) error { return nil }

// Close is a no-op
func (r *MemoryRepository) Close() error { return nil }

// cloneDocument deep-copies through the merge path so callers never share slices with the store
func cloneDocument(doc *domain.Document) (*domain.Document, error) {
	data, err := domain.MergeDocumentData(doc.DocumentData, nil)
	if err != nil {
		return nil, err
	}
	out := *doc
	out.DocumentData = data
	return &out, nil
}

var (
	_ domain.DocumentStore = (*MemoryRepository)(nil)
	_ domain.HealthChecker = (*MemoryRepository)(nil)
)
