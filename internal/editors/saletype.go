package editors

import "github.com/aj0urdain/Landmark-App-sub000/internal/domain"

// SaleTypeEditor edits the sale method. Switching method keeps the other method's data.
type SaleTypeEditor struct {
	*core[domain.SaleTypeData]
}

func newSaleTypeEditor(deps Deps, status *StatusTracker) *SaleTypeEditor {
	e := &SaleTypeEditor{core: newCore[domain.SaleTypeData](domain.SectionSaleType, deps, status)}
	e.apply = e.applyFields
	return e
}

// Every sale-type control is a picker, so every change commits at once
func (e *SaleTypeEditor) applyFields(d *domain.SaleTypeData, fields map[string]interface{}) (outcome, error) {
	var change struct {
		SaleType             *domain.SaleType `json:"saleType"`
		AuctionID            *string          `json:"auctionId"`
		ExpressionOfInterest *struct {
			ClosingDate *string `json:"closingDate"`
			ClosingTime *string `json:"closingTime"`
			ClosingAmPm *string `json:"closingAmPm"`
		} `json:"expressionOfInterest"`
	}
	if err := decodeFields(fields, &change); err != nil {
		return outcome{}, err
	}

	changed := false
	if _, present := fields["saleType"]; present {
		if !equalSaleType(d.SaleType, change.SaleType) {
			if change.SaleType == nil {
				d.SaleType = nil
			} else {
				st := *change.SaleType
				d.SaleType = &st
			}
			changed = true
		}
	}
	if change.AuctionID != nil && *change.AuctionID != d.AuctionID {
		d.AuctionID = *change.AuctionID
		changed = true
	}
	if eoi := change.ExpressionOfInterest; eoi != nil {
		if d.ExpressionOfInterest == nil {
			d.ExpressionOfInterest = &domain.ExpressionOfInterest{}
		}
		target := d.ExpressionOfInterest
		for _, f := range []struct {
			dst *string
			v   *string
		}{
			{&target.ClosingDate, eoi.ClosingDate},
			{&target.ClosingTime, eoi.ClosingTime},
			{&target.ClosingAmPm, eoi.ClosingAmPm},
		} {
			if f.v != nil && *f.v != *f.dst {
				*f.dst = *f.v
				changed = true
			}
		}
	}

	if !changed {
		return rejected("unchanged"), nil
	}
	return outcome{changed: true, immediate: true}, nil
}

func equalSaleType(a, b *domain.SaleType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
