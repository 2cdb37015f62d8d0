package editors

import (
	"regexp"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// amountPattern accepts a numeric string as typed: digits, thousands separators, decimals
var amountPattern = regexp.MustCompile(`^[0-9][0-9,]*(\.[0-9]*)?$|^$`)

// FinanceEditor edits finance copy, amount and how the amount is labelled
type FinanceEditor struct {
	*core[domain.FinanceData]
}

func newFinanceEditor(deps Deps, status *StatusTracker) *FinanceEditor {
	e := &FinanceEditor{core: newCore[domain.FinanceData](domain.SectionFinance, deps, status)}
	e.apply = e.applyFields
	return e
}

func (e *FinanceEditor) applyFields(d *domain.FinanceData, fields map[string]interface{}) (outcome, error) {
	var change struct {
		FinanceCopy       *string             `json:"financeCopy"`
		FinanceType       *domain.FinanceType `json:"financeType"`
		CustomFinanceType *string             `json:"customFinanceType"`
		FinanceAmount     *string             `json:"financeAmount"`
	}
	if err := decodeFields(fields, &change); err != nil {
		return outcome{}, err
	}

	out := outcome{}
	if change.FinanceCopy != nil && *change.FinanceCopy != d.FinanceCopy {
		d.FinanceCopy = *change.FinanceCopy
		out.changed = true
	}
	if change.FinanceAmount != nil && *change.FinanceAmount != d.FinanceAmount {
		if !amountPattern.MatchString(*change.FinanceAmount) {
			return rejected("finance amount must be numeric"), nil
		}
		d.FinanceAmount = *change.FinanceAmount
		out.changed = true
	}

	// The type dropdown is a discrete selection and commits at once
	if change.FinanceType != nil && *change.FinanceType != d.FinanceType {
		d.FinanceType = *change.FinanceType
		if d.FinanceType != domain.FinanceTypeCustom {
			d.CustomFinanceType = nil
		}
		out.changed = true
		out.immediate = true
	}

	if _, present := fields["customFinanceType"]; present {
		if d.FinanceType != domain.FinanceTypeCustom {
			if !out.changed {
				return rejected("custom label requires finance type custom"), nil
			}
		} else if !equalStringPtr(d.CustomFinanceType, change.CustomFinanceType) {
			d.CustomFinanceType = copyStringPtr(change.CustomFinanceType)
			out.changed = true
		}
	}

	if !out.changed {
		return rejected("unchanged"), nil
	}
	return out, nil
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
