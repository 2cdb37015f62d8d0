// Package layout renders the Portfolio Page: it composes every section viewer into
// absolutely positioned boxes on an A4 canvas and sizes text for the current scale and zoom.
package layout

import (
	"fmt"
	"math"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/page"
)

// Zoom bounds accepted from the client
const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

// Size is a width and height in CSS pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a position in CSS pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PreviewSettings is the viewer state owned by one editing session
type PreviewSettings struct {
	Zoom           float64   `json:"zoom"`
	Scale          float64   `json:"scale"`
	OverlayOpacity float64   `json:"overlayOpacity"`
	ShowOverlay    bool      `json:"showOverlay"`
	PageSide       page.Side `json:"pageSide"`
	Container      Size      `json:"container"`
	Viewport       Size      `json:"viewport"`
	Scroll         Point     `json:"scroll"`
}

// DefaultPreview returns settings for a container before the first resize
func DefaultPreview(overlayOpacity float64) PreviewSettings {
	return PreviewSettings{
		Zoom:           1,
		Scale:          1,
		OverlayOpacity: overlayOpacity,
		PageSide:       page.SideFront,
	}
}

// FitScale returns pixels per millimetre that fit an A4 page inside the container
func FitScale(width, height float64) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	return math.Min(width/page.WidthMM, height/page.HeightMM)
}

// ZoomScroll returns the scroll offset along one axis that keeps the content under the
// viewport centre in place when zoom changes from oldZoom to newZoom.
func ZoomScroll(scroll, viewport, oldZoom, newZoom float64) float64 {
	if oldZoom <= 0 || newZoom <= 0 {
		return scroll
	}
	half := viewport / 2
	center := scroll + half
	return math.Max(0, center*(newZoom/oldZoom)-half)
}

// PreviewUpdate is a partial change to PreviewSettings; nil fields keep their value
type PreviewUpdate struct {
	Zoom           *float64   `json:"zoom"`
	OverlayOpacity *float64   `json:"overlayOpacity"`
	ShowOverlay    *bool      `json:"showOverlay"`
	PageSide       *page.Side `json:"pageSide"`
	Container      *Size      `json:"container"`
	Viewport       *Size      `json:"viewport"`
	Scroll         *Point     `json:"scroll"`
}

// Apply returns the settings after u. Scale is recomputed on every update, including
// updates that only change zoom, and a zoom change re-centres the scroll offset.
func (p PreviewSettings) Apply(u PreviewUpdate) (PreviewSettings, error) {
	next := p
	if u.Container != nil {
		next.Container = *u.Container
	}
	if u.Viewport != nil {
		next.Viewport = *u.Viewport
	}
	if u.Scroll != nil {
		next.Scroll = *u.Scroll
	}
	if u.OverlayOpacity != nil {
		if *u.OverlayOpacity < 0 || *u.OverlayOpacity > 1 {
			return p, fmt.Errorf("%w: overlay opacity %v outside 0..1", domain.ErrValidation, *u.OverlayOpacity)
		}
		next.OverlayOpacity = *u.OverlayOpacity
	}
	if u.ShowOverlay != nil {
		next.ShowOverlay = *u.ShowOverlay
	}
	if u.PageSide != nil {
		if *u.PageSide != page.SideFront && *u.PageSide != page.SideBack {
			return p, fmt.Errorf("%w: page side %q", domain.ErrValidation, *u.PageSide)
		}
		next.PageSide = *u.PageSide
	}

	if s := FitScale(next.Container.Width, next.Container.Height); s > 0 {
		next.Scale = s
	}

	if u.Zoom != nil && *u.Zoom != p.Zoom {
		if *u.Zoom < MinZoom || *u.Zoom > MaxZoom {
			return p, fmt.Errorf("%w: zoom %v outside %v..%v", domain.ErrValidation, *u.Zoom, MinZoom, MaxZoom)
		}
		next.Scroll = Point{
			X: ZoomScroll(next.Scroll.X, next.Viewport.Width, p.Zoom, *u.Zoom),
			Y: ZoomScroll(next.Scroll.Y, next.Viewport.Height, p.Zoom, *u.Zoom),
		}
		next.Zoom = *u.Zoom
	}
	return next, nil
}

// PxPerMM is the effective pixels per page millimetre
func (p PreviewSettings) PxPerMM() float64 {
	return p.Scale * p.Zoom
}
