package editors

import (
	"encoding/json"
	"strings"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// postcodeLength is the length of a complete Australian postcode
const postcodeLength = 4

// AddressEditor edits the property address and keeps the two display lines in step
type AddressEditor struct {
	*core[domain.AddressData]
}

func newAddressEditor(deps Deps, status *StatusTracker) *AddressEditor {
	e := &AddressEditor{core: newCore[domain.AddressData](domain.SectionAddress, deps, status)}
	e.apply = e.applyFields
	e.persistValue = addressPersistValue
	return e
}

// AddressLine1 joins street number and street
func AddressLine1(streetNumber, street string) string {
	return joinNonEmpty(streetNumber, street)
}

// AddressLine2 joins suburb and state
func AddressLine2(suburb, state string) string {
	return joinNonEmpty(suburb, state)
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func (e *AddressEditor) applyFields(d *domain.AddressData, fields map[string]interface{}) (outcome, error) {
	var change struct {
		StreetNumber *string `json:"streetNumber"`
		Street       *string `json:"street"`
		Suburb       *string `json:"suburb"`
		State        *string `json:"state"`
		Postcode     *string `json:"postcode"`
	}
	if err := decodeFields(fields, &change); err != nil {
		return outcome{}, err
	}

	if change.Postcode != nil && !postcodeDraftValid(*change.Postcode) {
		return rejected("postcode must be up to 4 digits"), nil
	}

	line1Dirty, line2Dirty := false, false
	changed := false
	set := func(dst *string, v *string, dirty *bool) {
		if v != nil && *v != *dst {
			*dst = *v
			changed = true
			if dirty != nil {
				*dirty = true
			}
		}
	}
	set(&d.StreetNumber, change.StreetNumber, &line1Dirty)
	set(&d.Street, change.Street, &line1Dirty)
	set(&d.Suburb, change.Suburb, &line2Dirty)
	set(&d.State, change.State, &line2Dirty)
	set(&d.Postcode, change.Postcode, nil)

	if !changed {
		return rejected("unchanged"), nil
	}
	if line1Dirty {
		d.AddressLine1 = AddressLine1(d.StreetNumber, d.Street)
	}
	if line2Dirty {
		d.AddressLine2 = AddressLine2(d.Suburb, d.State)
	}
	return outcome{changed: true}, nil
}

// postcodeDraftValid accepts a postcode being typed: digits only, at most 4
func postcodeDraftValid(s string) bool {
	if len(s) > postcodeLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// addressPersistValue leaves a partially typed postcode out of the patch so the stored one survives
func addressPersistValue(d *domain.AddressData) interface{} {
	if len(d.Postcode) == 0 || len(d.Postcode) == postcodeLength {
		return d
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return d
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return d
	}
	delete(m, "postcode")
	return m
}
