// Package textfit chooses a font size and line clamp for each text slot of the page so
// content stays inside its fixed percentage box at any scale or zoom.
//
// Sizes are computed in millimetres of the A4 page and only converted to pixels at the
// end (mm * scale * zoom), so the same content gets the same relative size at every zoom.
// Fit is pure: identical inputs always return identical output.
package textfit

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aj0urdain/Landmark-App-sub000/internal/page"
)

// Slot names a text-bearing position on the page
type Slot string

const (
	SlotHeadline      Slot = "headline"
	SlotAddressLine1  Slot = "addressLine1"
	SlotAddressLine2  Slot = "addressLine2"
	SlotFinanceCopy   Slot = "financeCopy"
	SlotFinanceAmount Slot = "financeAmount"
	SlotPropertyCopy  Slot = "propertyCopy"
	SlotAgentName     Slot = "agentName"
	SlotAgentPhone    Slot = "agentPhone"
	SlotSaleType      Slot = "saleType"
	SlotLocationTab   Slot = "locationTab"
)

// Limits are a slot's box and typographic bounds
type Limits struct {
	Box        page.Rect
	MaxFontMM  float64
	MinFontMM  float64
	MaxLines   int
	LineHeight float64 // multiple of font size
	CharWidth  float64 // average glyph advance as a multiple of font size
}

// step between candidate font sizes, in mm
const fontStepMM = 0.1

var limits = map[Slot]Limits{
	SlotHeadline:      {Box: page.Headline, MaxFontMM: 9, MinFontMM: 4, MaxLines: 2, LineHeight: 1.1, CharWidth: 0.55},
	SlotAddressLine1:  {Box: halfHeight(page.Address, 0), MaxFontMM: 6, MinFontMM: 3, MaxLines: 1, LineHeight: 1.15, CharWidth: 0.55},
	SlotAddressLine2:  {Box: halfHeight(page.Address, 1), MaxFontMM: 4.5, MinFontMM: 2.5, MaxLines: 1, LineHeight: 1.15, CharWidth: 0.55},
	SlotFinanceCopy:   {Box: page.FinanceCopy, MaxFontMM: 3.6, MinFontMM: 2.2, MaxLines: 6, LineHeight: 1.3, CharWidth: 0.5},
	SlotFinanceAmount: {Box: page.FinanceAmount, MaxFontMM: 6, MinFontMM: 3, MaxLines: 1, LineHeight: 1.1, CharWidth: 0.6},
	SlotPropertyCopy:  {Box: page.PropertyCopy, MaxFontMM: 3.6, MinFontMM: 2.2, MaxLines: 9, LineHeight: 1.3, CharWidth: 0.5},
	SlotAgentName:     {Box: page.Rect{Width: 18, Height: 4}, MaxFontMM: 3.2, MinFontMM: 2, MaxLines: 1, LineHeight: 1.2, CharWidth: 0.55},
	SlotAgentPhone:    {Box: page.Rect{Width: 18, Height: 3}, MaxFontMM: 2.8, MinFontMM: 2, MaxLines: 1, LineHeight: 1.2, CharWidth: 0.55},
	SlotSaleType:      {Box: page.Rect{Width: 90, Height: 3}, MaxFontMM: 3.4, MinFontMM: 2.2, MaxLines: 1, LineHeight: 1.2, CharWidth: 0.55},
	SlotLocationTab:   {Box: page.LocationTab, MaxFontMM: 5, MinFontMM: 2.5, MaxLines: 1, LineHeight: 1.1, CharWidth: 0.6},
}

func halfHeight(r page.Rect, i int) page.Rect {
	return r.Split(2, false)[i]
}

// Lookup returns the limits of a slot
func Lookup(slot Slot) (Limits, bool) {
	lim, ok := limits[slot]
	return lim, ok
}

// Style is the rendering style for one slot
type Style struct {
	Class      string            `json:"class"`
	FontSizeMM float64           `json:"fontSizeMm"`
	FontSizePx float64           `json:"fontSizePx"`
	LineClamp  int               `json:"lineClamp"`
	Overflow   bool              `json:"overflow"`
	Vars       map[string]string `json:"vars"`
}

// Inline renders Vars as a deterministic inline style attribute
func (s Style) Inline() string {
	keys := make([]string, 0, len(s.Vars))
	for k := range s.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(s.Vars[k])
		b.WriteString("; ")
	}
	return strings.TrimSpace(b.String())
}

// Fit returns the largest font size at which content fits the slot box within its line limit.
// scale is pixels per page millimetre and zoom the user multiplier.
// When content does not fit even at the minimum size, Overflow is set and the clamp applies.
func Fit(slot Slot, content string, scale, zoom float64) (Style, error) {
	lim, ok := limits[slot]
	if !ok {
		return Style{}, fmt.Errorf("unknown text slot %q", slot)
	}
	if scale <= 0 || zoom <= 0 {
		return Style{}, fmt.Errorf("scale and zoom must be positive, got %v and %v", scale, zoom)
	}

	blocks := blockLengths(content)
	font := lim.MinFontMM
	lines := 0
	fits := false

	// Walk down in fixed steps so the chosen size is a function of inputs only.
	steps := int(math.Round((lim.MaxFontMM - lim.MinFontMM) / fontStepMM))
	for i := 0; i <= steps; i++ {
		candidate := lim.MaxFontMM - float64(i)*fontStepMM
		needed, available := measure(lim, blocks, candidate)
		if needed <= available {
			font, lines, fits = candidate, needed, true
			break
		}
	}
	if !fits {
		lines, _ = measure(lim, blocks, lim.MinFontMM)
	}

	_, available := measure(lim, blocks, font)
	clamp := available
	if clamp < 1 {
		clamp = 1
	}
	if lines > clamp {
		lines = clamp
	}

	px := round2(font * scale * zoom)
	return Style{
		Class:      fmt.Sprintf("text-fit text-fit-%s text-fit-%s", slot, tier(lim, font)),
		FontSizeMM: round2(font),
		FontSizePx: px,
		LineClamp:  clamp,
		Overflow:   !fits,
		Vars: map[string]string{
			"--fit-font-size":   strconv.FormatFloat(px, 'f', 2, 64) + "px",
			"--fit-line-clamp":  strconv.Itoa(clamp),
			"--fit-line-height": strconv.FormatFloat(lim.LineHeight, 'f', 2, 64),
			"--fit-lines":       strconv.Itoa(maxInt(lines, 1)),
		},
	}, nil
}

// measure returns lines needed for the blocks and lines available in the box at fontMM
func measure(lim Limits, blocks []int, fontMM float64) (needed, available int) {
	perLine := int(math.Floor(lim.Box.WidthMM() / (fontMM * lim.CharWidth)))
	if perLine < 1 {
		perLine = 1
	}
	for _, n := range blocks {
		if n == 0 {
			needed++
			continue
		}
		needed += (n + perLine - 1) / perLine
	}

	available = int(math.Floor(lim.Box.HeightMM()/(fontMM*lim.LineHeight) + 1e-9))
	if available > lim.MaxLines {
		available = lim.MaxLines
	}
	return needed, available
}

// blockLengths splits content on newlines and returns rune counts per block.
// Empty content counts as a single empty line.
func blockLengths(content string) []int {
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return []int{0}
	}
	parts := strings.Split(content, "\n")
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = utf8.RuneCountInString(strings.TrimSpace(p))
	}
	return out
}

func tier(lim Limits, font float64) string {
	span := lim.MaxFontMM - lim.MinFontMM
	if span <= 0 {
		return "lg"
	}
	ratio := (font - lim.MinFontMM) / span
	switch {
	case ratio >= 0.75:
		return "lg"
	case ratio >= 0.4:
		return "md"
	case ratio > 0:
		return "sm"
	default:
		return "xs"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
