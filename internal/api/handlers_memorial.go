package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/stine-ri/wings-of-memory/internal/api/respond"
	"github.com/stine-ri/wings-of-memory/internal/api/validate"
	"github.com/stine-ri/wings-of-memory/internal/model"
	"github.com/stine-ri/wings-of-memory/internal/pdf"
	"github.com/stine-ri/wings-of-memory/internal/services"
)

type MemorialHandler struct {
	svc   *services.MemorialService
	rsvps *services.RSVPService
}

func NewMemorialHandler(svc *services.MemorialService, rsvps *services.RSVPService) *MemorialHandler {
	return &MemorialHandler{svc: svc, rsvps: rsvps}
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError(key, "must be an integer")
	}
	return n, nil
}

// SearchPublic GET /api/memorials/public?search=&sortBy=&limit=&offset=
func (h *MemorialHandler) SearchPublic(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	q := r.URL.Query()
	res, err := h.svc.SearchPublic(r.Context(), model.SearchRequest{
		Query:  q.Get("search"),
		SortBy: q.Get("sortBy"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// GetPublic GET /api/memorials/public/{identifier}
func (h *MemorialHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["identifier"]
	if err := validate.Identifier("identifier", id); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	m, tributes, err := h.svc.Detail(r.Context(), id)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	if tributes == nil {
		tributes = []*model.Tribute{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"memorial": m, "tributes": tributes})
}

func memorialInput(req validate.MemorialRequest) services.MemorialInput {
	return services.MemorialInput{
		FullName:   req.FullName,
		BirthDate:  req.BirthDate,
		DeathDate:  req.DeathDate,
		Biography:  req.Biography,
		Location:   req.Location,
		Visibility: req.Visibility,
		Timeline:   req.Timeline,
	}
}

// Create POST /api/memorials
func (h *MemorialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req validate.MemorialRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	m, err := h.svc.Create(r.Context(), principal(r).UserID, memorialInput(req))
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, m)
}

// ListMine GET /api/memorials
func (h *MemorialHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ms, err := h.svc.ListMine(r.Context(), principal(r).UserID)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"memorials": ms, "count": len(ms)})
}

// Get GET /api/memorials/{id}
func (h *MemorialHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), mux.Vars(r)["id"], principal(r).UserID)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

// Update PUT /api/memorials/{id}
func (h *MemorialHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req validate.MemorialRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	m, err := h.svc.Update(r.Context(), principal(r).UserID, mux.Vars(r)["id"], memorialInput(req))
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

// Delete DELETE /api/memorials/{id}
func (h *MemorialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), principal(r).UserID, mux.Vars(r)["id"]); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PDFData GET /api/memorials/{id}/pdf-data
func (h *MemorialHandler) PDFData(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.PDFData(r.Context(), principal(r).UserID, mux.Vars(r)["id"])
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, data)
}

// PreviewPDF GET /api/memorials/{id}/preview-pdf
func (h *MemorialHandler) PreviewPDF(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.PDFData(r.Context(), principal(r).UserID, mux.Vars(r)["id"])
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := pdf.Render(&buf, data); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+data.Memorial.Slug+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn().Err(err).Msg("pdf write interrupted")
	}
}

// ListRSVPs GET /api/memorials/{id}/rsvps
func (h *MemorialHandler) ListRSVPs(w http.ResponseWriter, r *http.Request) {
	rs, err := h.rsvps.List(r.Context(), principal(r).UserID, mux.Vars(r)["id"])
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"rsvps": rs, "count": len(rs)})
}

// CreateRSVP POST /api/memorials/public/{identifier}/rsvps
func (h *MemorialHandler) CreateRSVP(w http.ResponseWriter, r *http.Request) {
	var req validate.RSVPRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.rsvps.Create(r.Context(), mux.Vars(r)["identifier"], services.RSVPInput{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Attendees: req.Attendees,
		Message:   req.Message,
	})
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}
