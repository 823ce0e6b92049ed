package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/lexbridge/internal/server/services"
)

type registerRequest struct {
	UserName string `json:"user_name"`
	Phone    string `json:"user_phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, pair, err := s.svc.Users.Register(r.Context(), services.RegisterInput{
		UserName: req.UserName,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: toToken(pair), User: toUser(user)})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, pair, err := s.svc.Users.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: toToken(pair), User: toUser(user)})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		writeDetail(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := s.svc.Users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toToken(pair))
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.RefreshToken != "" {
		if err := s.svc.Users.Logout(r.Context(), req.RefreshToken); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out", Success: true})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Users.Me(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Users.ChangePassword(r.Context(), principalFrom(r.Context()).UserID, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password changed", Success: true})
}
