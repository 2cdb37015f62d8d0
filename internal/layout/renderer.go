package layout

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aj0urdain/Landmark-App-sub000/internal/cache"
	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
	"github.com/aj0urdain/Landmark-App-sub000/internal/page"
	"github.com/aj0urdain/Landmark-App-sub000/internal/textfit"
)

// State is what the viewer shows for the current selection
type State string

const (
	StateNoSelection State = "no_selection"
	StateNotCreated  State = "not_created"
	StateLoaded      State = "loaded"
)

// Kind of a rendered element
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindBlock Kind = "block"
)

// financeGroup links the finance copy and amount so hovering one highlights both
const financeGroup = "finance"

// Element is one absolutely positioned box of the page
type Element struct {
	ID       string         `json:"id"`
	Section  domain.Section `json:"section,omitempty"`
	Kind     Kind           `json:"kind"`
	Box      page.Rect      `json:"box"`
	Text     string         `json:"text,omitempty"`
	Lines    []string       `json:"lines,omitempty"`
	Image    string         `json:"image,omitempty"`
	Style    *textfit.Style `json:"style,omitempty"`
	Group    string         `json:"group,omitempty"`
	Selected bool           `json:"selected,omitempty"`
	Empty    bool           `json:"empty,omitempty"`
}

// Overlay is the reference image drawn over the page for alignment
type Overlay struct {
	URL     string  `json:"url"`
	Opacity float64 `json:"opacity"`
}

// Page is a rendered Portfolio Page
type Page struct {
	State    State              `json:"state"`
	Ref      domain.DocumentRef `json:"ref"`
	Side     page.Side          `json:"side"`
	Scale    float64            `json:"scale"`
	Zoom     float64            `json:"zoom"`
	PxPerMM  float64            `json:"pxPerMm"`
	Width    float64            `json:"width"`
	Height   float64            `json:"height"`
	Selected domain.Section     `json:"selected,omitempty"`
	Target   *page.Rect         `json:"target,omitempty"`
	Overlay  *Overlay           `json:"overlay,omitempty"`
	Elements []Element          `json:"elements,omitempty"`
}

// Overlays are the reference images per page side
type Overlays struct {
	Front string
	Back  string
}

// Request is everything one render depends on
type Request struct {
	Ref      domain.DocumentRef
	Document *domain.Document
	Preview  PreviewSettings
	Selected domain.Section
}

// Renderer composes pages from the Draft Cache, falling back to the stored document for
// sections that have no draft
type Renderer struct {
	drafts   *cache.Drafts
	overlays Overlays
	logger   *zap.Logger
}

// NewRenderer creates a Renderer
func NewRenderer(drafts *cache.Drafts, overlays Overlays, logger *zap.Logger) *Renderer {
	return &Renderer{drafts: drafts, overlays: overlays, logger: logger}
}

// Render builds the page for req
func (r *Renderer) Render(ctx context.Context, req Request) (*Page, error) {
	preview := req.Preview
	if preview.Zoom <= 0 {
		preview.Zoom = 1
	}
	if preview.Scale <= 0 {
		preview.Scale = 1
	}
	out := &Page{
		Ref:      req.Ref,
		Side:     preview.PageSide,
		Scale:    preview.Scale,
		Zoom:     preview.Zoom,
		PxPerMM:  preview.PxPerMM(),
		Width:    page.WidthMM * preview.PxPerMM(),
		Height:   page.HeightMM * preview.PxPerMM(),
		Selected: req.Selected,
	}
	if out.Side == "" {
		out.Side = page.SideFront
	}

	switch {
	case !req.Ref.Valid():
		out.State = StateNoSelection
		return out, nil
	case req.Document == nil:
		out.State = StateNotCreated
		return out, nil
	}
	out.State = StateLoaded
	if req.Selected != "" {
		target := page.SectionBox(req.Selected)
		out.Target = &target
	}

	if preview.ShowOverlay {
		url := r.overlays.Front
		if out.Side == page.SideBack {
			url = r.overlays.Back
		}
		if url != "" {
			out.Overlay = &Overlay{URL: url, Opacity: preview.OverlayOpacity}
		}
	}

	v := r.snapshot(ctx, req.Ref, req.Document)
	b := &builder{scale: preview.Scale, zoom: preview.Zoom, selected: req.Selected}

	b.locationTab(v.address)
	b.photos(v.photo)
	b.headline(v.headline)
	b.logos(v.logo)
	b.address(v.address)
	b.finance(v.finance)
	b.propertyCopy(v.propertyCopy)
	b.contact(v.agents, v.saleType)
	b.add(Element{ID: "bottom-border", Kind: KindBlock, Box: page.BottomBorder})

	if b.err != nil {
		return nil, b.err
	}
	out.Elements = b.elements
	r.logger.Debug("page rendered",
		zap.String("listing_id", req.Ref.ListingID),
		zap.Int("elements", len(out.Elements)),
		zap.Float64("px_per_mm", out.PxPerMM),
	)
	return out, nil
}

// view is a consistent read of every section for one render
type view struct {
	headline     *domain.HeadlineData
	address      *domain.AddressData
	finance      *domain.FinanceData
	logo         *domain.LogoData
	photo        *domain.PhotoData
	propertyCopy *domain.PropertyCopyData
	saleType     *domain.SaleTypeData
	agents       *domain.AgentsData
}

func (r *Renderer) snapshot(ctx context.Context, ref domain.DocumentRef, doc *domain.Document) view {
	read := func(section domain.Section) interface{} {
		if v, ok := r.drafts.Get(ctx, cache.NewDraftKey(ref, section)); ok {
			return v
		}
		return doc.DocumentData.SectionValue(section)
	}
	var v view
	v.headline, _ = read(domain.SectionHeadline).(*domain.HeadlineData)
	v.address, _ = read(domain.SectionAddress).(*domain.AddressData)
	v.finance, _ = read(domain.SectionFinance).(*domain.FinanceData)
	v.logo, _ = read(domain.SectionLogo).(*domain.LogoData)
	v.photo, _ = read(domain.SectionPhoto).(*domain.PhotoData)
	v.propertyCopy, _ = read(domain.SectionPropertyCopy).(*domain.PropertyCopyData)
	v.saleType, _ = read(domain.SectionSaleType).(*domain.SaleTypeData)
	v.agents, _ = read(domain.SectionAgents).(*domain.AgentsData)
	return v
}

type builder struct {
	scale    float64
	zoom     float64
	selected domain.Section
	elements []Element
	err      error
}

func (b *builder) add(e Element) {
	if e.Section != "" && e.Section == b.selected {
		e.Selected = true
	}
	b.elements = append(b.elements, e)
}

// text adds a fitted text element; empty content renders as an empty placeholder
func (b *builder) text(id string, section domain.Section, slot textfit.Slot, box page.Rect, content string) *Element {
	if b.err != nil {
		return nil
	}
	style, err := textfit.Fit(slot, content, b.scale, b.zoom)
	if err != nil {
		b.err = fmt.Errorf("fit %s: %w", slot, err)
		return nil
	}
	e := Element{
		ID:      id,
		Section: section,
		Kind:    KindText,
		Box:     box,
		Text:    content,
		Style:   &style,
		Empty:   strings.TrimSpace(content) == "",
	}
	if strings.Contains(content, "\n") {
		e.Lines = splitBlocks(content)
	}
	b.add(e)
	return &b.elements[len(b.elements)-1]
}

func (b *builder) locationTab(a *domain.AddressData) {
	label := ""
	if a != nil {
		label = strings.ToUpper(a.Suburb)
	}
	b.text("location-tab", domain.SectionAddress, textfit.SlotLocationTab, page.LocationTab, label)
}

// photos renders the slots of the current count only; photos beyond it stay stored but hidden
func (b *builder) photos(d *domain.PhotoData) {
	count := domain.MinPhotos
	if d != nil && d.PhotoCount >= domain.MinPhotos && d.PhotoCount <= domain.MaxPhotos {
		count = d.PhotoCount
	}
	slots, err := page.PhotoSlots(count)
	if err != nil {
		b.err = err
		return
	}
	for i, slot := range slots {
		e := Element{ID: fmt.Sprintf("photo-%d", i), Section: domain.SectionPhoto, Kind: KindImage, Box: slot, Empty: true}
		if d != nil && i < len(d.Photos) && d.Photos[i] != nil {
			p := d.Photos[i]
			e.Image = p.Cropped
			if e.Image == "" {
				e.Image = p.Original
			}
			e.Empty = e.Image == ""
		}
		b.add(e)
	}
}

func (b *builder) headline(d *domain.HeadlineData) {
	content := ""
	if d != nil {
		content = d.Headline
	}
	b.text("headline", domain.SectionHeadline, textfit.SlotHeadline, page.Headline, content)
}

func (b *builder) logos(d *domain.LogoData) {
	if d == nil {
		b.add(Element{ID: "logo-0", Section: domain.SectionLogo, Kind: KindImage, Box: page.LogoArea, Empty: true})
		return
	}
	boxes := page.LogoBoxes(d.LogoCount, d.LogoOrientation)
	if len(boxes) == 0 {
		b.add(Element{ID: "logo-0", Section: domain.SectionLogo, Kind: KindImage, Box: page.LogoArea, Empty: true})
		return
	}
	for i, box := range boxes {
		e := Element{ID: fmt.Sprintf("logo-%d", i), Section: domain.SectionLogo, Kind: KindImage, Box: box, Empty: true}
		if i < len(d.Logos) && d.Logos[i] != "" {
			e.Image = d.Logos[i]
			e.Empty = false
		}
		b.add(e)
	}
}

func (b *builder) address(d *domain.AddressData) {
	line1, line2 := "", ""
	if d != nil {
		line1, line2 = d.AddressLine1, d.AddressLine2
	}
	halves := page.Address.Split(2, false)
	b.text("address-line-1", domain.SectionAddress, textfit.SlotAddressLine1, halves[0], line1)
	b.text("address-line-2", domain.SectionAddress, textfit.SlotAddressLine2, halves[1], line2)
}

func (b *builder) finance(d *domain.FinanceData) {
	copyText, amount := "", ""
	if d != nil {
		copyText = d.FinanceCopy
		amount = FinanceAmountLabel(d)
	}
	if e := b.text("finance-copy", domain.SectionFinance, textfit.SlotFinanceCopy, page.FinanceCopy, copyText); e != nil {
		e.Group = financeGroup
	}
	if e := b.text("finance-amount", domain.SectionFinance, textfit.SlotFinanceAmount, page.FinanceAmount, amount); e != nil {
		e.Group = financeGroup
	}
}

// FinanceAmountLabel is the amount line as printed: label then amount
func FinanceAmountLabel(d *domain.FinanceData) string {
	if d == nil || d.FinanceAmount == "" {
		return ""
	}
	label := ""
	switch d.FinanceType {
	case domain.FinanceTypeRent:
		label = "Rent"
	case domain.FinanceTypeNetIncome:
		label = "Net Income"
	case domain.FinanceTypeCustom:
		if d.CustomFinanceType != nil {
			label = *d.CustomFinanceType
		}
	}
	amount := "$" + strings.TrimPrefix(d.FinanceAmount, "$")
	if label == "" {
		return amount
	}
	return label + " " + amount
}

func (b *builder) propertyCopy(d *domain.PropertyCopyData) {
	content := ""
	if d != nil {
		content = d.PropertyCopy
	}
	if e := b.text("property-copy", domain.SectionPropertyCopy, textfit.SlotPropertyCopy, page.PropertyCopy, content); e != nil {
		e.Lines = splitBlocks(content)
	}
}

// contact lays agents out in equal columns above a single sale-type line
func (b *builder) contact(agents *domain.AgentsData, saleType *domain.SaleTypeData) {
	rows := page.Contact.Split(3, false)
	agentRow := page.Rect{X: rows[0].X, Y: rows[0].Y, Width: rows[0].Width, Height: rows[0].Height * 2}
	saleRow := rows[2]

	var list []domain.Agent
	if agents != nil {
		list = agents.Agents
	}
	if len(list) == 0 {
		b.add(Element{ID: "agents", Section: domain.SectionAgents, Kind: KindBlock, Box: agentRow, Empty: true})
	}
	for i, col := range agentRow.Split(len(list), true) {
		parts := col.Split(2, false)
		b.text(fmt.Sprintf("agent-%d-name", i), domain.SectionAgents, textfit.SlotAgentName, parts[0], list[i].Name)
		b.text(fmt.Sprintf("agent-%d-phone", i), domain.SectionAgents, textfit.SlotAgentPhone, parts[1], list[i].Phone)
	}

	b.text("sale-type", domain.SectionSaleType, textfit.SlotSaleType, saleRow, SaleTypeLabel(saleType))
}

// SaleTypeLabel describes the active sale method, reading only the data of that method
func SaleTypeLabel(d *domain.SaleTypeData) string {
	if d == nil || d.SaleType == nil {
		return ""
	}
	switch *d.SaleType {
	case domain.SaleTypeAuction:
		if d.AuctionID == "" {
			return "For Sale by Auction"
		}
		return "For Sale by Auction (" + d.AuctionID + ")"
	case domain.SaleTypeExpression:
		eoi := d.ExpressionOfInterest
		if eoi == nil || eoi.ClosingDate == "" {
			return "Expressions of Interest"
		}
		closing := strings.TrimSpace(strings.Join([]string{eoi.ClosingDate, eoi.ClosingTime + eoi.ClosingAmPm}, " "))
		return "Expressions of Interest closing " + closing
	}
	return ""
}

// splitBlocks splits newline-delimited bullet blocks, dropping blank lines
func splitBlocks(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
