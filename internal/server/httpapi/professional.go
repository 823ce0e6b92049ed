package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/services"
)

type profileRequest struct {
	LawFirmName       string   `json:"law_firm_name"`
	SpecialtyAreas    []string `json:"specialty_areas"`
	YearsOfExperience int      `json:"years_of_experience"`
	Bio               string   `json:"bio"`
	ConsultationFee   float64  `json:"consultation_fee"`
}

type professionalCasesResponse struct {
	IsVerified bool      `json:"is_verified"`
	Cases      []caseDTO `json:"cases"`
}

func (s *Server) verificationStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Professionals.VerificationStatus(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verificationStatusDTO{
		IsVerified:    st.IsVerified,
		HasProfile:    st.HasProfile,
		RequestStatus: st.RequestStatus,
		RequestID:     st.RequestID,
		AdminNotes:    st.AdminNotes,
	})
}

func (s *Server) professionalStats(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Professionals.Dashboard(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardDTO{
		IsVerified:    d.IsVerified,
		Accepted:      d.Stats.Accepted,
		InProgress:    d.Stats.InProgress,
		Completed:     d.Stats.Completed,
		AverageRating: d.Stats.AverageRating,
		Earnings:      d.Earnings,
	})
}

func (s *Server) professionalCases(w http.ResponseWriter, r *http.Request) {
	cs, verified, err := s.svc.Professionals.MyCases(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, professionalCasesResponse{IsVerified: verified, Cases: toCases(cs)})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Professionals.Profile(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfessional(p))
}

func (s *Server) publicProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Professionals.PublicProfile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dto := toProfessional(p)
	dto.LicenseNumber = ""
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.svc.Professionals.UpdateProfile(r.Context(), principalFrom(r.Context()), services.ProfileUpdate{
		LawFirmName:       req.LawFirmName,
		SpecialtyAreas:    req.SpecialtyAreas,
		YearsOfExperience: req.YearsOfExperience,
		Bio:               req.Bio,
		ConsultationFee:   req.ConsultationFee,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfessional(p))
}

func (s *Server) acceptCase(w http.ResponseWriter, r *http.Request) {
	s.caseTransition(w, r, s.svc.Professionals.Accept)
}

func (s *Server) startCase(w http.ResponseWriter, r *http.Request) {
	s.caseTransition(w, r, s.svc.Professionals.Start)
}

func (s *Server) completeCase(w http.ResponseWriter, r *http.Request) {
	s.caseTransition(w, r, s.svc.Professionals.Complete)
}

func (s *Server) caseTransition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, p auth.Principal, caseID string) (*models.Case, error)) {
	c, err := fn(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCase(c))
}
