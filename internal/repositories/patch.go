package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// newDocument builds an empty document for the pair
func newDocument(ref domain.DocumentRef, now time.Time) *domain.Document {
	return &domain.Document{
		ID:             uuid.NewString(),
		ListingID:      ref.ListingID,
		DocumentTypeID: ref.DocumentTypeID,
		Status:         domain.DocumentStatusDraft,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// applyPatch merges patch into doc in place after checking the expected version.
// expectedVersion <= 0 means last writer wins.
func applyPatch(doc *domain.Document, patch map[string]interface{}, expectedVersion int64, now time.Time) error {
	if expectedVersion > 0 && expectedVersion != doc.Version {
		return fmt.Errorf("%w: expected %d, stored %d", domain.ErrVersionConflict, expectedVersion, doc.Version)
	}
	merged, err := domain.MergeDocumentData(doc.DocumentData, patch)
	if err != nil {
		return err
	}
	doc.DocumentData = merged
	doc.Version++
	doc.UpdatedAt = now
	return nil
}
