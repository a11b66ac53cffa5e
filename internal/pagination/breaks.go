// Package pagination computes where printed pages break between résumé
// sections, and schedules that computation after edits settle.
package pagination

import "math"

// DefaultPageHeight is the content height of one A4 page in CSS pixels
// (297mm at 96 DPI).
const DefaultPageHeight = 1123

// ComputeBreaks returns the indices of the sections that must start a new
// page, in ascending order.
//
// The header block always opens page one. Sections are placed greedily in
// order; when a section does not fit below what is already on the page, a
// break is placed before it and it becomes the first content of the next
// page. A section that is already first on its page is never split and gets
// no break, even if it is taller than a page; the section after it is pushed
// instead. Negative or NaN heights count as zero.
func ComputeBreaks(headerHeight float64, sectionHeights []float64, pageHeight float64) []int {
	breaks := []int{}
	if pageHeight <= 0 || math.IsNaN(pageHeight) {
		return breaks
	}

	acc := height(headerHeight)
	for i, raw := range sectionHeights {
		h := height(raw)
		prev := acc
		acc += h
		if acc > pageHeight && prev > 0 {
			breaks = append(breaks, i)
			acc = h
		}
	}
	return breaks
}

// PageCount returns how many pages a break set spans.
func PageCount(breaks []int) int {
	return len(breaks) + 1
}

func height(h float64) float64 {
	if h < 0 || math.IsNaN(h) {
		return 0
	}
	return h
}
