package api

import (
	"net/http"

	"github.com/stine-ri/wings-of-memory/internal/api/respond"
	"github.com/stine-ri/wings-of-memory/internal/api/validate"
	"github.com/stine-ri/wings-of-memory/internal/services"
)

type AuthHandler struct{ svc *services.AuthService }

func NewAuthHandler(svc *services.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req validate.LoginRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req validate.RegisterRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	out, err := h.svc.Register(r.Context(), services.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		respond.WriteServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}
