package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

func TestPhotoSlotsCoverPhotoArea(t *testing.T) {
	for count := domain.MinPhotos; count <= domain.MaxPhotos; count++ {
		slots, err := PhotoSlots(count)
		require.NoError(t, err)
		assert.Len(t, slots, count)

		area := 0.0
		for _, s := range slots {
			area += s.Width * s.Height
			assert.GreaterOrEqual(t, s.X, PhotoArea.X)
			assert.GreaterOrEqual(t, s.Y, PhotoArea.Y)
			assert.LessOrEqual(t, s.X+s.Width, PhotoArea.X+PhotoArea.Width+1e-9)
			assert.LessOrEqual(t, s.Y+s.Height, PhotoArea.Y+PhotoArea.Height+1e-9)
		}
		assert.InDelta(t, PhotoArea.Width*PhotoArea.Height, area, 1e-6, "count %d", count)
	}
}

func TestPhotoSlotOutOfRange(t *testing.T) {
	_, err := PhotoSlots(0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = PhotoSlots(5)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = PhotoSlot(2, 2)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSlotAspect(t *testing.T) {
	aspect, err := SlotAspect(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 210.0/(0.46*297.0), aspect, 1e-9)

	// Two side-by-side slots are half as wide
	half, err := SlotAspect(1, 2)
	require.NoError(t, err)
	assert.InDelta(t, aspect/2, half, 1e-9)
}

func TestLogoBoxes(t *testing.T) {
	assert.Empty(t, LogoBoxes(0, domain.LogoOrientationHorizontal))
	assert.Equal(t, []Rect{LogoArea}, LogoBoxes(1, domain.LogoOrientationVertical))

	horizontal := LogoBoxes(2, domain.LogoOrientationHorizontal)
	require.Len(t, horizontal, 2)
	assert.Equal(t, horizontal[0].Y, horizontal[1].Y)
	assert.InDelta(t, LogoArea.Width/2, horizontal[0].Width, 1e-9)

	vertical := LogoBoxes(2, domain.LogoOrientationVertical)
	require.Len(t, vertical, 2)
	assert.Equal(t, vertical[0].X, vertical[1].X)
	assert.InDelta(t, LogoArea.Height/2, vertical[1].Height, 1e-9)
}

func TestRectPixels(t *testing.T) {
	x, y, w, h := Rect{X: 50, Y: 50, Width: 10, Height: 10}.Pixels(2)
	assert.InDelta(t, 210.0, x, 1e-9)
	assert.InDelta(t, 297.0, y, 1e-9)
	assert.InDelta(t, 42.0, w, 1e-9)
	assert.InDelta(t, 59.4, h, 1e-9)
}

func TestFinanceGroupSpansCopyAndAmount(t *testing.T) {
	assert.Equal(t, FinanceCopy.Y, FinanceGroup.Y)
	assert.InDelta(t, FinanceAmount.Y+FinanceAmount.Height, FinanceGroup.Y+FinanceGroup.Height, 1e-9)
	assert.Equal(t, FinanceGroup, SectionBox(domain.SectionFinance))
}
