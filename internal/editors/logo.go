package editors

import (
	"context"
	"fmt"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// LogoEditor edits the agency logos. logos always has exactly logoCount entries.
type LogoEditor struct {
	*core[domain.LogoData]
}

func newLogoEditor(deps Deps, status *StatusTracker) *LogoEditor {
	e := &LogoEditor{core: newCore[domain.LogoData](domain.SectionLogo, deps, status)}
	e.apply = e.applyFields
	return e
}

// SetLogo stores url in slot index, which must be below logoCount
func (e *LogoEditor) SetLogo(ctx context.Context, index int, url string) (*Result, error) {
	return e.mutate(ctx, nil, func(d *domain.LogoData) (outcome, error) {
		if index < 0 || index >= d.LogoCount {
			return outcome{}, fmt.Errorf("%w: logo slot %d outside count %d", domain.ErrValidation, index, d.LogoCount)
		}
		d.Logos = resizeLogos(d.Logos, d.LogoCount)
		if d.Logos[index] == url {
			return rejected("unchanged"), nil
		}
		d.Logos[index] = url
		return outcome{changed: true, immediate: true}, nil
	})
}

func (e *LogoEditor) applyFields(d *domain.LogoData, fields map[string]interface{}) (outcome, error) {
	var change struct {
		LogoCount       *int                    `json:"logoCount"`
		LogoOrientation *domain.LogoOrientation `json:"logoOrientation"`
		Logos           *[]string               `json:"logos"`
	}
	if err := decodeFields(fields, &change); err != nil {
		return outcome{}, err
	}

	changed := false
	if change.Logos != nil {
		d.Logos = append([]string(nil), (*change.Logos)...)
		changed = true
	}
	if change.LogoCount != nil && *change.LogoCount != d.LogoCount {
		if *change.LogoCount < 0 || *change.LogoCount > domain.MaxLogos {
			return rejected("logo count out of range"), nil
		}
		d.LogoCount = *change.LogoCount
		changed = true
	}
	if change.LogoOrientation != nil && *change.LogoOrientation != d.LogoOrientation {
		d.LogoOrientation = *change.LogoOrientation
		changed = true
	}
	if !changed {
		return rejected("unchanged"), nil
	}

	// Truncate in the same write that changes the count
	d.Logos = resizeLogos(d.Logos, d.LogoCount)
	return outcome{changed: true, immediate: true}, nil
}

// resizeLogos truncates or pads logos to exactly n entries
func resizeLogos(logos []string, n int) []string {
	out := make([]string, n)
	copy(out, logos)
	return out
}
