// Package page holds the fixed A4 geometry of the Portfolio Page: the section boxes,
// photo slots and logo boxes, all expressed as percentages of the page so they hold
// at any scale or zoom.
package page

import (
	"fmt"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// A4 page size in millimetres.
const (
	WidthMM  = 210.0
	HeightMM = 297.0
)

// Side identifies the page side shown in the preview.
type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

// Rect is a box in percent of the page: X and Width of page width, Y and Height of page height.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// WidthMM returns the box width in millimetres.
func (r Rect) WidthMM() float64 { return r.Width / 100 * WidthMM }

// HeightMM returns the box height in millimetres.
func (r Rect) HeightMM() float64 { return r.Height / 100 * HeightMM }

// AspectRatio returns physical width/height of the box.
func (r Rect) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return r.WidthMM() / r.HeightMM()
}

// Pixels converts the box to pixels for a page rendered at pxPerMM.
func (r Rect) Pixels(pxPerMM float64) (x, y, w, h float64) {
	return r.X / 100 * WidthMM * pxPerMM,
		r.Y / 100 * HeightMM * pxPerMM,
		r.WidthMM() * pxPerMM,
		r.HeightMM() * pxPerMM
}

// Split divides the box into n equal parts, side by side when horizontal, stacked otherwise.
func (r Rect) Split(n int, horizontal bool) []Rect {
	if n < 1 {
		return nil
	}
	out := make([]Rect, n)
	for i := range out {
		if horizontal {
			w := r.Width / float64(n)
			out[i] = Rect{X: r.X + w*float64(i), Y: r.Y, Width: w, Height: r.Height}
		} else {
			h := r.Height / float64(n)
			out[i] = Rect{X: r.X, Y: r.Y + h*float64(i), Width: r.Width, Height: h}
		}
	}
	return out
}

// Section boxes on the front side.
var (
	LocationTab   = Rect{X: 0, Y: 0, Width: 100, Height: 4}
	PhotoArea     = Rect{X: 0, Y: 4, Width: 100, Height: 46}
	Headline      = Rect{X: 5, Y: 52, Width: 90, Height: 7}
	Address       = Rect{X: 5, Y: 60, Width: 62, Height: 8}
	LogoArea      = Rect{X: 70, Y: 60, Width: 25, Height: 8}
	FinanceCopy   = Rect{X: 5, Y: 69.5, Width: 42, Height: 10.5}
	FinanceAmount = Rect{X: 5, Y: 80, Width: 42, Height: 5}
	PropertyCopy  = Rect{X: 50, Y: 69.5, Width: 45, Height: 15.5}
	Contact       = Rect{X: 5, Y: 86.5, Width: 90, Height: 9}
	BottomBorder  = Rect{X: 0, Y: 97, Width: 100, Height: 3}
)

// FinanceGroup is the union of the finance copy and amount boxes; they highlight together.
var FinanceGroup = Rect{
	X:      FinanceCopy.X,
	Y:      FinanceCopy.Y,
	Width:  FinanceCopy.Width,
	Height: FinanceAmount.Y + FinanceAmount.Height - FinanceCopy.Y,
}

// SectionBox returns the click-target box of a section.
func SectionBox(section domain.Section) Rect {
	switch section {
	case domain.SectionHeadline:
		return Headline
	case domain.SectionAddress:
		return Address
	case domain.SectionFinance:
		return FinanceGroup
	case domain.SectionLogo:
		return LogoArea
	case domain.SectionPhoto:
		return PhotoArea
	case domain.SectionPropertyCopy:
		return PropertyCopy
	case domain.SectionAgents, domain.SectionSaleType:
		return Contact
	}
	return Rect{}
}

// photoLayouts holds the slot grid for each photo count.
// Three photos: one hero on the left and two stacked on the right.
var photoLayouts = map[int][]Rect{
	1: {PhotoArea},
	2: PhotoArea.Split(2, true),
	3: {
		{X: 0, Y: 4, Width: 60, Height: 46},
		{X: 60, Y: 4, Width: 40, Height: 23},
		{X: 60, Y: 27, Width: 40, Height: 23},
	},
	4: {
		{X: 0, Y: 4, Width: 50, Height: 23},
		{X: 50, Y: 4, Width: 50, Height: 23},
		{X: 0, Y: 27, Width: 50, Height: 23},
		{X: 50, Y: 27, Width: 50, Height: 23},
	},
}

// PhotoSlots returns the slot boxes for a photo count.
func PhotoSlots(count int) ([]Rect, error) {
	slots, ok := photoLayouts[count]
	if !ok {
		return nil, fmt.Errorf("%w: photo count %d out of range %d..%d", domain.ErrValidation, count, domain.MinPhotos, domain.MaxPhotos)
	}
	return append([]Rect(nil), slots...), nil
}

// PhotoSlot returns the box of one slot for a photo count.
func PhotoSlot(index, count int) (Rect, error) {
	slots, err := PhotoSlots(count)
	if err != nil {
		return Rect{}, err
	}
	if index < 0 || index >= len(slots) {
		return Rect{}, fmt.Errorf("%w: photo slot %d out of range for count %d", domain.ErrValidation, index, count)
	}
	return slots[index], nil
}

// SlotAspect returns the physical aspect ratio (width/height) a crop for this slot must have.
func SlotAspect(index, count int) (float64, error) {
	slot, err := PhotoSlot(index, count)
	if err != nil {
		return 0, err
	}
	return slot.AspectRatio(), nil
}

// LogoBoxes returns the logo boxes for a count and orientation. Count 0 yields none.
func LogoBoxes(count int, orientation domain.LogoOrientation) []Rect {
	if count <= 0 {
		return nil
	}
	if count > domain.MaxLogos {
		count = domain.MaxLogos
	}
	return LogoArea.Split(count, orientation != domain.LogoOrientationVertical)
}
