package editors

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/imaging"
)

// CropOpener prepares a crop session for a photo slot
type CropOpener interface {
	Open(ctx context.Context, original string, index, count int, saved *domain.CropRect) (*imaging.CropSession, error)
}

// PhotoEditor edits the photo grid. Lowering photoCount keeps the photos beyond it.
type PhotoEditor struct {
	*core[domain.PhotoData]
}

func newPhotoEditor(deps Deps, status *StatusTracker) *PhotoEditor {
	e := &PhotoEditor{core: newCore[domain.PhotoData](domain.SectionPhoto, deps, status)}
	e.apply = e.applyFields
	return e
}

func (e *PhotoEditor) applyFields(d *domain.PhotoData, fields map[string]interface{}) (outcome, error) {
	var change struct {
		PhotoCount *int             `json:"photoCount"`
		Photos     *[]*domain.Photo `json:"photos"`
	}
	if err := decodeFields(fields, &change); err != nil {
		return outcome{}, err
	}

	changed := false
	if change.PhotoCount != nil && *change.PhotoCount != d.PhotoCount {
		if *change.PhotoCount < domain.MinPhotos || *change.PhotoCount > domain.MaxPhotos {
			return rejected("photo count out of range"), nil
		}
		d.PhotoCount = *change.PhotoCount
		changed = true
	}
	if change.Photos != nil {
		if len(*change.Photos) > domain.MaxPhotos {
			return rejected("too many photos"), nil
		}
		d.Photos = *change.Photos
		if d.PhotoCount < domain.MinPhotos {
			d.PhotoCount = domain.MinPhotos
		}
		changed = true
	}
	if !changed {
		return rejected("unchanged"), nil
	}
	return outcome{changed: true, immediate: true}, nil
}

// OpenCrop opens the cropper on slot index. An empty original reopens the slot's current
// source; the saved crop is restored only while the source is unchanged.
func (e *PhotoEditor) OpenCrop(ctx context.Context, index int, original string) (*imaging.CropSession, error) {
	if e.deps.Cropper == nil {
		return nil, ErrCropUnavailable
	}
	draft := e.current(ctx)
	count := effectiveCount(draft)
	if index < 0 || index >= count {
		return nil, fmt.Errorf("%w: photo slot %d outside count %d", domain.ErrValidation, index, count)
	}

	var saved *domain.CropRect
	if p := photoAt(draft, index); p != nil {
		if original == "" {
			original = p.Original
		}
		if p.Original == original {
			crop := p.Crop
			saved = &crop
		}
	}
	return e.deps.Cropper.Open(ctx, original, index, count, saved)
}

// ConfirmCrop rasterizes crop from original and stores original, cropped raster and crop
// in slot index as one write. When rasterizing fails the draft is left untouched.
func (e *PhotoEditor) ConfirmCrop(ctx context.Context, index int, original string, crop domain.CropRect) (*Result, error) {
	if e.deps.Processor == nil {
		return nil, ErrCropUnavailable
	}
	count := effectiveCount(e.current(ctx))
	if index < 0 || index >= count {
		return nil, fmt.Errorf("%w: photo slot %d outside count %d", domain.ErrValidation, index, count)
	}

	results, err := e.deps.Processor.ProcessCrops(ctx, []domain.CropJob{{Slot: index, Original: original, Crop: crop}})
	if err == nil && (len(results) != 1 || results[0].Error != nil) {
		err = fmt.Errorf("crop slot %d: no result", index)
		if len(results) == 1 {
			err = results[0].Error
		}
	}
	if err != nil {
		e.logger.Warn("crop failed", zap.Int("slot", index), zap.Error(err))
		e.status.Set(e.section, StateError, err)
		return nil, err
	}
	photo := results[0].Photo

	return e.mutate(ctx, nil, func(d *domain.PhotoData) (outcome, error) {
		if d.PhotoCount == 0 {
			d.PhotoCount = domain.MinPhotos
		}
		d.Photos = extendPhotos(d.Photos, index+1)
		d.Photos[index] = photo
		return outcome{changed: true, immediate: true}, nil
	})
}

// ClearPhoto empties slot index
func (e *PhotoEditor) ClearPhoto(ctx context.Context, index int) (*Result, error) {
	return e.mutate(ctx, nil, func(d *domain.PhotoData) (outcome, error) {
		if index < 0 || index >= domain.MaxPhotos {
			return outcome{}, fmt.Errorf("%w: photo slot %d", domain.ErrValidation, index)
		}
		if index >= len(d.Photos) || d.Photos[index] == nil {
			return rejected("slot already empty"), nil
		}
		d.Photos[index] = nil
		return outcome{changed: true, immediate: true}, nil
	})
}

func effectiveCount(d *domain.PhotoData) int {
	if d == nil || d.PhotoCount < domain.MinPhotos {
		return domain.MinPhotos
	}
	return d.PhotoCount
}

func photoAt(d *domain.PhotoData, index int) *domain.Photo {
	if d == nil || index >= len(d.Photos) {
		return nil
	}
	return d.Photos[index]
}

func extendPhotos(photos []*domain.Photo, n int) []*domain.Photo {
	for len(photos) < n {
		photos = append(photos, nil)
	}
	return photos
}
