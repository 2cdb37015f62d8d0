package editors

import "github.com/aj0urdain/Landmark-App-sub000/internal/domain"

// HeadlineEditor edits the page headline
type HeadlineEditor struct {
	*core[domain.HeadlineData]
}

func newHeadlineEditor(deps Deps, status *StatusTracker) *HeadlineEditor {
	e := &HeadlineEditor{core: newCore[domain.HeadlineData](domain.SectionHeadline, deps, status)}
	e.apply = e.applyFields
	return e
}

func (e *HeadlineEditor) applyFields(d *domain.HeadlineData, fields map[string]interface{}) (outcome, error) {
	var change struct {
		Headline *string `json:"headline"`
	}
	if err := decodeFields(fields, &change); err != nil {
		return outcome{}, err
	}
	if change.Headline == nil || *change.Headline == d.Headline {
		return rejected("unchanged"), nil
	}
	d.Headline = *change.Headline
	return outcome{changed: true}, nil
}

// PropertyCopyEditor edits the newline-delimited property bullets
type PropertyCopyEditor struct {
	*core[domain.PropertyCopyData]
}

func newPropertyCopyEditor(deps Deps, status *StatusTracker) *PropertyCopyEditor {
	e := &PropertyCopyEditor{core: newCore[domain.PropertyCopyData](domain.SectionPropertyCopy, deps, status)}
	e.apply = e.applyFields
	return e
}

func (e *PropertyCopyEditor) applyFields(d *domain.PropertyCopyData, fields map[string]interface{}) (outcome, error) {
	var change struct {
		PropertyCopy *string `json:"propertyCopy"`
	}
	if err := decodeFields(fields, &change); err != nil {
		return outcome{}, err
	}
	if change.PropertyCopy == nil || *change.PropertyCopy == d.PropertyCopy {
		return rejected("unchanged"), nil
	}
	d.PropertyCopy = *change.PropertyCopy
	return outcome{changed: true}, nil
}
