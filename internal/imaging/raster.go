package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

const jpegQuality = 92

// Dimensions returns the natural size of an encoded image without decoding pixels
func Dimensions(src []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", domain.ErrImageLoad, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Raster is an encoded crop ready for upload
type Raster struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Rasterize copies the crop rectangle out of the original image at full resolution.
// JPEG and GIF sources keep their format; everything else is written as PNG to keep transparency.
func Rasterize(src []byte, crop domain.CropRect) (*Raster, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageLoad, err)
	}

	bounds := img.Bounds()
	if err := Validate(crop, bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}

	srcRect := image.Rect(
		bounds.Min.X+crop.X,
		bounds.Min.Y+crop.Y,
		bounds.Min.X+crop.X+crop.Width,
		bounds.Min.Y+crop.Y+crop.Height,
	)
	dst := image.NewRGBA(image.Rect(0, 0, crop.Width, crop.Height))
	draw.Copy(dst, image.Point{}, img, srcRect, draw.Src, nil)

	var buf bytes.Buffer
	contentType := "image/png"
	switch format {
	case "jpeg":
		contentType = "image/jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	case "gif":
		// Single frame only; a crop of an animation keeps its first frame
		contentType = "image/gif"
		err = gif.Encode(&buf, dst, nil)
	default:
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}

	return &Raster{
		Data:        buf.Bytes(),
		ContentType: contentType,
		Width:       crop.Width,
		Height:      crop.Height,
	}, nil
}
