package api

import (
	"github.com/starford/cvcraft/internal/editor"
)

// StateResponse is the document payload returned by every state-changing route
// (aliased from the editor layer).
type StateResponse = editor.State

// MutationRequest is the request body for POST /api/mutations.
type MutationRequest = editor.Mutation

// ThemeRequest is the request body for PUT /api/theme.
type ThemeRequest struct {
	Color string `json:"color" example:"#9C1C38" validate:"required"`
}

// PaginationRequest reports block heights measured by the UI. When Revision
// is set the heights are tied to that revision and dropped if stale.
type PaginationRequest struct {
	HeaderHeight   float64   `json:"header_height" example:"180"`
	SectionHeights []float64 `json:"section_heights" validate:"required"`
	PageHeight     float64   `json:"page_height,omitempty" example:"1123"`
	Revision       *uint64   `json:"revision,omitempty" example:"7"`
}

// PaginationResponse carries the page breaks after a report.
type PaginationResponse struct {
	PageBreaks []int  `json:"page_breaks" validate:"required"`
	Pages      int    `json:"pages" example:"2"`
	Applied    bool   `json:"applied"`
	Revision   uint64 `json:"revision" example:"7"`
}
