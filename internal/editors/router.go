package editors

import (
	"fmt"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// FieldKind tells the client which control renders a field
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindNumber   FieldKind = "number"
	KindSelect   FieldKind = "select"
	KindList     FieldKind = "list"
	KindImage    FieldKind = "image"
	KindDate     FieldKind = "date"
)

// Field describes one control of a panel
type Field struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Kind      FieldKind `json:"kind"`
	Options   []string  `json:"options,omitempty"`
	Immediate bool      `json:"immediate"`
	Min       int       `json:"min,omitempty"`
	Max       int       `json:"max,omitempty"`
}

// Panel is the editor panel shown for a selected section
type Panel struct {
	Section domain.Section `json:"section"`
	Title   string         `json:"title"`
	Fields  []Field        `json:"fields"`
}

var panels = map[domain.Section]Panel{
	domain.SectionHeadline: {
		Title:  "Headline",
		Fields: []Field{{Name: "headline", Label: "Headline", Kind: KindText}},
	},
	domain.SectionAddress: {
		Title: "Address",
		Fields: []Field{
			{Name: "streetNumber", Label: "Street number", Kind: KindText},
			{Name: "street", Label: "Street", Kind: KindText},
			{Name: "suburb", Label: "Suburb", Kind: KindText},
			{Name: "state", Label: "State", Kind: KindSelect, Options: []string{"ACT", "NSW", "NT", "QLD", "SA", "TAS", "VIC", "WA"}},
			{Name: "postcode", Label: "Postcode", Kind: KindText, Max: postcodeLength},
		},
	},
	domain.SectionFinance: {
		Title: "Finance",
		Fields: []Field{
			{Name: "financeCopy", Label: "Finance copy", Kind: KindTextarea},
			{Name: "financeType", Label: "Amount label", Kind: KindSelect, Immediate: true, Options: []string{
				string(domain.FinanceTypeRent), string(domain.FinanceTypeNetIncome), string(domain.FinanceTypeCustom),
			}},
			{Name: "customFinanceType", Label: "Custom label", Kind: KindText},
			{Name: "financeAmount", Label: "Amount", Kind: KindText},
		},
	},
	domain.SectionAgents: {
		Title:  "Agents",
		Fields: []Field{{Name: "agents", Label: "Agents", Kind: KindList, Immediate: true, Max: domain.MaxAgents}},
	},
	domain.SectionSaleType: {
		Title: "Sale type",
		Fields: []Field{
			{Name: "saleType", Label: "Sale type", Kind: KindSelect, Immediate: true, Options: []string{
				string(domain.SaleTypeAuction), string(domain.SaleTypeExpression),
			}},
			{Name: "auctionId", Label: "Auction", Kind: KindSelect, Immediate: true},
			{Name: "expressionOfInterest.closingDate", Label: "Closing date", Kind: KindDate, Immediate: true},
			{Name: "expressionOfInterest.closingTime", Label: "Closing time", Kind: KindSelect, Immediate: true},
			{Name: "expressionOfInterest.closingAmPm", Label: "AM/PM", Kind: KindSelect, Immediate: true, Options: []string{"AM", "PM"}},
		},
	},
	domain.SectionLogo: {
		Title: "Logos",
		Fields: []Field{
			{Name: "logoCount", Label: "Number of logos", Kind: KindNumber, Immediate: true, Max: domain.MaxLogos},
			{Name: "logoOrientation", Label: "Orientation", Kind: KindSelect, Immediate: true, Options: []string{
				string(domain.LogoOrientationHorizontal), string(domain.LogoOrientationVertical),
			}},
			{Name: "logos", Label: "Logo", Kind: KindImage, Immediate: true},
		},
	},
	domain.SectionPhoto: {
		Title: "Photos",
		Fields: []Field{
			{Name: "photoCount", Label: "Number of photos", Kind: KindNumber, Immediate: true, Min: domain.MinPhotos, Max: domain.MaxPhotos},
			{Name: "photos", Label: "Photo", Kind: KindImage, Immediate: true},
		},
	},
	domain.SectionPropertyCopy: {
		Title:  "Property copy",
		Fields: []Field{{Name: "propertyCopy", Label: "Property copy", Kind: KindTextarea}},
	},
}

// Router maps the selected section to its panel and editor
type Router struct {
	set *Set
}

// NewRouter creates a router over set. It fails when a section has no panel or editor.
func NewRouter(set *Set) (*Router, error) {
	for _, section := range domain.AllSections {
		if _, ok := panels[section]; !ok {
			return nil, fmt.Errorf("no panel for section %q", section)
		}
		if _, err := set.Editor(section); err != nil {
			return nil, fmt.Errorf("no editor for section %q", section)
		}
	}
	return &Router{set: set}, nil
}

// Route returns the panel and editor of section; an empty section means nothing is selected
func (r *Router) Route(section domain.Section) (Panel, SectionEditor, error) {
	if section == "" {
		return Panel{}, nil, domain.ErrNoSelection
	}
	p, ok := panels[section]
	if !ok {
		return Panel{}, nil, fmt.Errorf("%w: %q", domain.ErrInvalidSection, section)
	}
	e, err := r.set.Editor(section)
	if err != nil {
		return Panel{}, nil, err
	}
	p.Section = section
	return p, e, nil
}
