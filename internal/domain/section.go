package domain

import "fmt"

// Section identifies a named field-group of the Portfolio Page
type Section string

const (
	SectionHeadline     Section = "headline"
	SectionAddress      Section = "address"
	SectionFinance      Section = "finance"
	SectionAgents       Section = "agents"
	SectionSaleType     Section = "saleType"
	SectionLogo         Section = "logo"
	SectionPhoto        Section = "photo"
	SectionPropertyCopy Section = "propertyCopy"
)

// AllSections lists every section in panel order
var AllSections = []Section{
	SectionHeadline,
	SectionAddress,
	SectionFinance,
	SectionAgents,
	SectionSaleType,
	SectionLogo,
	SectionPhoto,
	SectionPropertyCopy,
}

// ParseSection converts a string into a known Section
func ParseSection(s string) (Section, error) {
	for _, section := range AllSections {
		if string(section) == s {
			return section, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSection, s)
}

// DataKey returns the documentData key that holds this section
func (s Section) DataKey() string {
	return string(s) + "Data"
}

// SectionValue returns a copy of the section stored in data, or nil when the section is absent
func (d *DocumentData) SectionValue(section Section) any {
	switch section {
	case SectionHeadline:
		if d.HeadlineData != nil {
			v := *d.HeadlineData
			return &v
		}
	case SectionAddress:
		if d.AddressData != nil {
			v := *d.AddressData
			return &v
		}
	case SectionFinance:
		if d.FinanceData != nil {
			v := *d.FinanceData
			if v.CustomFinanceType != nil {
				s := *v.CustomFinanceType
				v.CustomFinanceType = &s
			}
			return &v
		}
	case SectionAgents:
		if d.AgentsData != nil {
			v := AgentsData{Agents: append([]Agent(nil), d.AgentsData.Agents...)}
			return &v
		}
	case SectionSaleType:
		if d.SaleTypeData != nil {
			v := *d.SaleTypeData
			if v.SaleType != nil {
				st := *v.SaleType
				v.SaleType = &st
			}
			if v.ExpressionOfInterest != nil {
				eoi := *v.ExpressionOfInterest
				v.ExpressionOfInterest = &eoi
			}
			return &v
		}
	case SectionLogo:
		if d.LogoData != nil {
			v := *d.LogoData
			v.Logos = append([]string(nil), d.LogoData.Logos...)
			return &v
		}
	case SectionPhoto:
		if d.PhotoData != nil {
			v := PhotoData{PhotoCount: d.PhotoData.PhotoCount, Photos: make([]*Photo, len(d.PhotoData.Photos))}
			for i, p := range d.PhotoData.Photos {
				if p != nil {
					cp := *p
					v.Photos[i] = &cp
				}
			}
			return &v
		}
	case SectionPropertyCopy:
		if d.PropertyCopyData != nil {
			v := *d.PropertyCopyData
			return &v
		}
	}
	return nil
}
