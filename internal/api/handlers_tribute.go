package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stine-ri/wings-of-memory/internal/api/respond"
	"github.com/stine-ri/wings-of-memory/internal/api/validate"
	"github.com/stine-ri/wings-of-memory/internal/services"
)

type TributeHandler struct{ svc *services.TributeService }

func NewTributeHandler(svc *services.TributeService) *TributeHandler {
	return &TributeHandler{svc: svc}
}

// List GET /api/memorials/public/{identifier}/tributes
func (h *TributeHandler) List(w http.ResponseWriter, r *http.Request) {
	ts, err := h.svc.List(r.Context(), mux.Vars(r)["identifier"])
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"tributes": ts, "count": len(ts)})
}

// Create POST /api/memorials/public/{identifier}/tributes
func (h *TributeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req validate.TributeRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	t, err := h.svc.Create(r.Context(), mux.Vars(r)["identifier"], services.TributeInput{
		AuthorName: req.AuthorName,
		Message:    req.Message,
		SessionID:  req.SessionID,
	})
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, t)
}

// Update PUT /api/memorials/public/{identifier}/tributes/{tributeId}
func (h *TributeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req validate.TributeUpdateRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	t, err := h.svc.Update(r.Context(), vars["identifier"], vars["tributeId"], req.Message, req.SessionID)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, t)
}

// Delete DELETE /api/memorials/public/{identifier}/tributes/{tributeId}
// The session ID comes from the JSON body, or from ?sessionId= for clients
// that cannot send a DELETE body.
func (h *TributeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req validate.TributeDeleteRequest
	req.SessionID = r.URL.Query().Get("sessionId")
	if err := decodeBody(w, r, &req, true); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	if err := h.svc.Delete(r.Context(), vars["identifier"], vars["tributeId"], req.SessionID); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
