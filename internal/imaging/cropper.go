package imaging

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/page"
)

// CropSession is what the crop UI needs to open on a photo slot
type CropSession struct {
	Original string          `json:"original"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Aspect   float64         `json:"aspect"`
	Crop     domain.CropRect `json:"crop"`
	Percent  PercentCrop     `json:"percent"`
	Restored bool            `json:"restored"`
}

// Cropper loads originals from the asset store, rasterizes crops and stores the result
type Cropper struct {
	assets domain.AssetStore
	logger *zap.Logger
}

// NewCropper creates a Cropper over an asset store
func NewCropper(assets domain.AssetStore, logger *zap.Logger) *Cropper {
	return &Cropper{assets: assets, logger: logger}
}

// Open prepares a crop session for slot index of count photos.
// A saved crop is restored when it still fits the image; otherwise an initial crop is centred.
func (c *Cropper) Open(ctx context.Context, original string, index, count int, saved *domain.CropRect) (*CropSession, error) {
	aspect, err := page.SlotAspect(index, count)
	if err != nil {
		return nil, err
	}

	src, err := c.load(ctx, original)
	if err != nil {
		return nil, err
	}
	width, height, err := Dimensions(src)
	if err != nil {
		return nil, err
	}

	session := &CropSession{Original: original, Width: width, Height: height, Aspect: aspect}
	if saved != nil && Validate(*saved, width, height) == nil {
		session.Crop = *saved
		session.Restored = true
	} else {
		session.Crop, err = InitialCrop(width, height, aspect)
		if err != nil {
			return nil, err
		}
	}
	session.Percent = ToPercent(session.Crop, width, height)
	return session, nil
}

// Crop rasterizes job.Crop from the original at full resolution, uploads it and
// returns the photo entry holding original, cropped URL and crop together.
func (c *Cropper) Crop(ctx context.Context, job domain.CropJob) (*domain.Photo, error) {
	src, err := c.load(ctx, job.Original)
	if err != nil {
		return nil, err
	}

	raster, err := Rasterize(src, job.Crop)
	if err != nil {
		return nil, err
	}

	url, err := c.assets.UploadAsset(ctx, raster.Data, raster.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload crop: %w", err)
	}

	c.logger.Debug("crop stored",
		zap.Int("slot", job.Slot),
		zap.String("original", job.Original),
		zap.Int("width", raster.Width),
		zap.Int("height", raster.Height),
	)

	return &domain.Photo{Original: job.Original, Cropped: url, Crop: job.Crop}, nil
}

func (c *Cropper) load(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty source url", domain.ErrImageLoad)
	}
	src, err := c.assets.FetchAsset(ctx, url)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrImageLoad, err)
	}
	return src, nil
}
