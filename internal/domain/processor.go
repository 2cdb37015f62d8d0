package domain

import "context"

// CropJob asks for one photo slot to be rasterized from its original image
type CropJob struct {
	Slot     int
	Original string
	Crop     CropRect
}

// CropResult is the outcome of a CropJob; Photo is nil when Error is set
type CropResult struct {
	Slot  int
	Photo *Photo
	Error error
}

// ImageProcessor defines the interface for crop rasterization
type ImageProcessor interface {
	// ProcessCrops rasterizes every job; results keep the order of jobs
	ProcessCrops(ctx context.Context, jobs []CropJob) ([]CropResult, error)
}
