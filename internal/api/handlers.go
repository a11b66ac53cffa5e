package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/cvcraft/internal/apperr"
	"github.com/starford/cvcraft/internal/editor"
	"github.com/starford/cvcraft/internal/pagination"
	"github.com/starford/cvcraft/internal/printview"
)

// Editor is the session surface the API drives.
type Editor interface {
	State() editor.State
	Apply(ctx context.Context, m editor.Mutation) (editor.State, error)
	Undo(ctx context.Context) editor.State
	Reset(ctx context.Context) editor.State
	SetThemeColor(ctx context.Context, color string) (editor.State, error)
	RequestPaginationRefresh(headerHeight float64, sectionHeights []float64, pageHeight float64) []int
	ReportMeasurements(revision uint64, m printview.Measurements) ([]int, bool)
	ExportToPrintView(ctx context.Context) (editor.PrintJob, error)
	ExportPDF(ctx context.Context) ([]byte, error)
}

// Handler holds API route handlers.
type Handler struct {
	ed Editor
}

// NewHandler creates a new Handler.
func NewHandler(ed Editor) *Handler {
	return &Handler{ed: ed}
}

func etag(st editor.State) string {
	return `"` + st.Checksum + `"`
}

func writeState(w http.ResponseWriter, st editor.State) {
	w.Header().Set("ETag", etag(st))
	writeJSON(w, http.StatusOK, st)
}

// GetDocument handles GET /api/document.
//
//	@Summary		Get the current document with revision and page breaks
//	@Tags			document
//	@Produce		json
//	@Param			If-None-Match	header	string	false	"Checksum of a cached copy"
//	@Success		200		{object}	StateResponse
//	@Success		304		"Not modified"
//	@Security		BearerAuth
//	@Router			/document [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	st := h.ed.State()
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag(st) {
		w.Header().Set("ETag", etag(st))
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeState(w, st)
}

// ApplyMutation handles POST /api/mutations.
//
//	@Summary		Apply one editing operation
//	@Tags			document
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header	string			false	"Checksum the mutation was based on"
//	@Param			body		body	MutationRequest	true	"Mutation"
//	@Success		200		{object}	StateResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/mutations [post]
func (h *Handler) ApplyMutation(w http.ResponseWriter, r *http.Request) {
	var m MutationRequest
	if !decodeJSON(w, r, &m) {
		return
	}

	// The check and the apply are not atomic; If-Match only guards against
	// edits based on a copy the client already knows is old.
	if ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`); ifMatch != "" {
		if cur := h.ed.State(); cur.Checksum != ifMatch {
			writeJSON(w, http.StatusConflict, errorBody(apperr.ErrConflict.Error()))
			return
		}
	}

	st, err := h.ed.Apply(r.Context(), m)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidMutation) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		} else {
			slog.Error("apply mutation failed", slog.String("op", string(m.Op)), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeState(w, st)
}

// Undo handles POST /api/undo.
//
//	@Summary		Step back one history entry
//	@Tags			document
//	@Produce		json
//	@Success		200		{object}	StateResponse
//	@Security		BearerAuth
//	@Router			/undo [post]
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	writeState(w, h.ed.Undo(r.Context()))
}

// Reset handles POST /api/reset.
//
//	@Summary		Replace the document with the default résumé
//	@Tags			document
//	@Produce		json
//	@Success		200		{object}	StateResponse
//	@Security		BearerAuth
//	@Router			/reset [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	writeState(w, h.ed.Reset(r.Context()))
}

// SetTheme handles PUT /api/theme.
//
//	@Summary		Change the print accent colour
//	@Tags			document
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ThemeRequest	true	"Colour as #RRGGBB"
//	@Success		200		{object}	StateResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/theme [put]
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.ed.SetThemeColor(r.Context(), req.Color)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeState(w, st)
}

// ReportPagination handles POST /api/pagination.
//
// page_height applies to reports without a revision; revisioned reports use
// the configured page height.
//
//	@Summary		Report measured block heights and get page breaks
//	@Tags			pagination
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PaginationRequest	true	"Measured heights"
//	@Success		200		{object}	PaginationResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pagination [post]
func (h *Handler) ReportPagination(w http.ResponseWriter, r *http.Request) {
	var req PaginationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SectionHeights == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("section_heights is required"))
		return
	}

	var (
		breaks  []int
		applied = true
	)
	if req.Revision != nil {
		breaks, applied = h.ed.ReportMeasurements(*req.Revision, printview.Measurements{
			Header:   req.HeaderHeight,
			Sections: req.SectionHeights,
		})
	} else {
		breaks = h.ed.RequestPaginationRefresh(req.HeaderHeight, req.SectionHeights, req.PageHeight)
	}

	writeJSON(w, http.StatusOK, PaginationResponse{
		PageBreaks: breaks,
		Pages:      pagination.PageCount(breaks),
		Applied:    applied,
		Revision:   h.ed.State().Revision,
	})
}

// PrintView handles GET /api/print.
//
//	@Summary		Print-formatted HTML of the current document
//	@Tags			print
//	@Produce		html
//	@Success		200
//	@Security		BearerAuth
//	@Router			/print [get]
func (h *Handler) PrintView(w http.ResponseWriter, r *http.Request) {
	job, err := h.ed.ExportToPrintView(r.Context())
	if err != nil {
		slog.Error("print view failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(job.HTML)
}

// PrintPDF handles GET /api/print.pdf.
//
//	@Summary		PDF of the current document
//	@Tags			print
//	@Produce		application/pdf
//	@Success		200
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/print.pdf [get]
func (h *Handler) PrintPDF(w http.ResponseWriter, r *http.Request) {
	pdf, err := h.ed.ExportPDF(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrPrinterUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("pdf export is not configured"))
		} else {
			slog.Error("pdf export failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="resume.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
