// Package imaging implements the photo cropper: crop geometry in original-pixel space,
// conversion to the percentage space the crop UI works in, and full-resolution rasterization.
package imaging

import (
	"fmt"
	"math"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// initialCoverage is the share of the image's shorter side an automatic crop covers
const initialCoverage = 0.9

// PercentCrop is a crop rectangle in percent of the image's natural dimensions
type PercentCrop struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InitialCrop centres a crop box of the given aspect ratio (width/height) on the image,
// sized to 90% of the image's shorter side and shrunk if needed to stay inside the image.
func InitialCrop(width, height int, aspect float64) (domain.CropRect, error) {
	if width <= 0 || height <= 0 {
		return domain.CropRect{}, fmt.Errorf("%w: image size %dx%d", domain.ErrImageLoad, width, height)
	}
	if aspect <= 0 {
		return domain.CropRect{}, fmt.Errorf("%w: aspect ratio %v", domain.ErrValidation, aspect)
	}

	side := initialCoverage * math.Min(float64(width), float64(height))
	var w, h float64
	if aspect >= 1 {
		h = side
		w = h * aspect
	} else {
		w = side
		h = w / aspect
	}
	if w > float64(width) {
		w = float64(width)
		h = w / aspect
	}
	if h > float64(height) {
		h = float64(height)
		w = h * aspect
	}

	cw := clampInt(int(math.Round(w)), 1, width)
	ch := clampInt(int(math.Round(h)), 1, height)
	return domain.CropRect{
		X:      (width - cw) / 2,
		Y:      (height - ch) / 2,
		Width:  cw,
		Height: ch,
	}, nil
}

// ToPercent converts a pixel crop to percent of the natural dimensions
func ToPercent(crop domain.CropRect, width, height int) PercentCrop {
	if width <= 0 || height <= 0 {
		return PercentCrop{}
	}
	w, h := float64(width), float64(height)
	return PercentCrop{
		X:      float64(crop.X) / w * 100,
		Y:      float64(crop.Y) / h * 100,
		Width:  float64(crop.Width) / w * 100,
		Height: float64(crop.Height) / h * 100,
	}
}

// ToPixels converts a percent crop back to original-pixel space, rounding to whole pixels
func ToPixels(crop PercentCrop, width, height int) domain.CropRect {
	w, h := float64(width), float64(height)
	return domain.CropRect{
		X:      int(math.Round(crop.X * w / 100)),
		Y:      int(math.Round(crop.Y * h / 100)),
		Width:  int(math.Round(crop.Width * w / 100)),
		Height: int(math.Round(crop.Height * h / 100)),
	}
}

// Validate checks that crop is non-empty and lies inside a width x height image
func Validate(crop domain.CropRect, width, height int) error {
	if crop.Width <= 0 || crop.Height <= 0 {
		return fmt.Errorf("%w: crop must have positive size, got %dx%d", domain.ErrValidation, crop.Width, crop.Height)
	}
	if crop.X < 0 || crop.Y < 0 || crop.X+crop.Width > width || crop.Y+crop.Height > height {
		return fmt.Errorf("%w: crop %+v outside image %dx%d", domain.ErrValidation, crop, width, height)
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
