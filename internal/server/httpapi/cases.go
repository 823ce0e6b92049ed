package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/lexbridge/internal/server/services"
)

type caseRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"case_category"`
	Priority    string  `json:"priority"`
	Budget      float64 `json:"budget_cny"`
}

type caseUpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"case_category"`
	Priority    *string  `json:"priority"`
	Budget      *float64 `json:"budget_cny"`
}

type rateRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

func (req caseRequest) input() services.CaseInput {
	return services.CaseInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Budget:      req.Budget,
	}
}

func (s *Server) createCase(w http.ResponseWriter, r *http.Request) {
	var req caseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Cases.Create(r.Context(), principalFrom(r.Context()), req.input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCase(c))
}

// updateCase changes only the fields present in the body.
func (s *Server) updateCase(w http.ResponseWriter, r *http.Request) {
	var req caseUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Cases.Update(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"], services.CaseUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Budget:      req.Budget,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCase(c))
}

func (s *Server) myCases(w http.ResponseWriter, r *http.Request) {
	cs, err := s.svc.Cases.ListMine(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCases(cs))
}

func (s *Server) caseStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Cases.Stats(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseStats(st))
}

func (s *Server) casePool(w http.ResponseWriter, r *http.Request) {
	cs, err := s.svc.Professionals.Pool(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCases(cs))
}

func (s *Server) getCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Cases.Get(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCase(c))
}

func (s *Server) cancelCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Cases.Cancel(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCase(c))
}

func (s *Server) rateCase(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Cases.Rate(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"], req.Rating, req.Review)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCase(c))
}
