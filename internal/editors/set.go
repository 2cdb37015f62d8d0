package editors

import (
	"context"
	"errors"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

// Set holds the eight section editors of one document and the status they share
type Set struct {
	status *StatusTracker

	headline     *HeadlineEditor
	address      *AddressEditor
	finance      *FinanceEditor
	agents       *AgentsEditor
	saleType     *SaleTypeEditor
	logo         *LogoEditor
	photo        *PhotoEditor
	propertyCopy *PropertyCopyEditor

	bySection map[domain.Section]SectionEditor
}

// NewSet builds every section editor for deps.Ref
func NewSet(deps Deps) *Set {
	status := NewStatusTracker(deps.Options.StatusTTL)
	s := &Set{
		status:       status,
		headline:     newHeadlineEditor(deps, status),
		address:      newAddressEditor(deps, status),
		finance:      newFinanceEditor(deps, status),
		agents:       newAgentsEditor(deps, status),
		saleType:     newSaleTypeEditor(deps, status),
		logo:         newLogoEditor(deps, status),
		photo:        newPhotoEditor(deps, status),
		propertyCopy: newPropertyCopyEditor(deps, status),
	}
	s.bySection = map[domain.Section]SectionEditor{
		domain.SectionHeadline:     s.headline,
		domain.SectionAddress:      s.address,
		domain.SectionFinance:      s.finance,
		domain.SectionAgents:       s.agents,
		domain.SectionSaleType:     s.saleType,
		domain.SectionLogo:         s.logo,
		domain.SectionPhoto:        s.photo,
		domain.SectionPropertyCopy: s.propertyCopy,
	}
	return s
}

// Editor returns the editor of section
func (s *Set) Editor(section domain.Section) (SectionEditor, error) {
	e, ok := s.bySection[section]
	if !ok {
		return nil, domain.ErrInvalidSection
	}
	return e, nil
}

func (s *Set) Headline() *HeadlineEditor         { return s.headline }
func (s *Set) Address() *AddressEditor           { return s.address }
func (s *Set) Finance() *FinanceEditor           { return s.finance }
func (s *Set) Agents() *AgentsEditor             { return s.agents }
func (s *Set) SaleType() *SaleTypeEditor         { return s.saleType }
func (s *Set) Logo() *LogoEditor                 { return s.logo }
func (s *Set) Photo() *PhotoEditor               { return s.photo }
func (s *Set) PropertyCopy() *PropertyCopyEditor { return s.propertyCopy }

// Status returns the shared status tracker
func (s *Set) Status() *StatusTracker { return s.status }

// Statuses returns the save status of every section
func (s *Set) Statuses() map[domain.Section]Status {
	out := make(map[domain.Section]Status, len(s.bySection))
	for section := range s.bySection {
		out[section] = s.status.Get(section)
	}
	return out
}

// Flush commits every pending debounced change
func (s *Set) Flush(ctx context.Context) error {
	var errs []error
	for _, section := range domain.AllSections {
		if err := s.bySection[section].Blur(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops every editor. Pending debounced commits are dropped; call Flush first to keep them.
func (s *Set) Close() {
	for _, e := range s.bySection {
		e.Close()
	}
	s.status.Close()
}
