package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/cases"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/users"
)

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Admin.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, platformStatsDTO{
		Users: userStatsDTO{
			Total:         st.Users.Total,
			Active:        st.Users.Active,
			Professionals: st.Users.Professionals,
			Admins:        st.Users.Admins,
		},
		Cases:                toCaseStats(&st.Cases),
		PendingVerifications: st.PendingVerifications,
	})
}

func (s *Server) adminUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	us, err := s.svc.Admin.Users(r.Context(), users.ListFilter{
		Role:   r.URL.Query().Get("role"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsers(us))
}

func (s *Server) setUserActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := s.svc.Admin.SetActive(r.Context(), principalFrom(r.Context()), id, active); err != nil {
			s.writeError(w, r, err)
			return
		}
		msg := "user deactivated"
		if active {
			msg = "user activated"
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: msg, Success: true})
	}
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Admin.ResetPassword(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"], req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password reset", Success: true})
}

func (s *Server) userSessions(w http.ResponseWriter, r *http.Request) {
	ts, err := s.svc.Admin.Sessions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]sessionDTO, 0, len(ts))
	for _, t := range ts {
		out = append(out, sessionDTO{ID: t.ID, UserID: t.UserID, CreatedAt: t.CreatedAt, ExpiresAt: t.Expires})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) revokeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Admin.RevokeSession(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "session revoked", Success: true})
}

func (s *Server) revokeAllSessions(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Admin.RevokeAllSessions(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revokedDTO{Message: "sessions revoked", Success: true, Revoked: int64(n)})
}

func (s *Server) cleanupSessions(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Admin.CleanupSessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revokedDTO{Message: "expired sessions removed", Success: true, Revoked: n})
}

func (s *Server) adminProfessionals(w http.ResponseWriter, r *http.Request) {
	verifiedOnly := r.URL.Query().Get("verified_only") == "true"
	ps, err := s.svc.Admin.Professionals(r.Context(), verifiedOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]professionalDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProfessional(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) setProfessionalVerified(verified bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := s.svc.Admin.SetProfessionalVerified(r.Context(), principalFrom(r.Context()), id, verified); err != nil {
			s.writeError(w, r, err)
			return
		}
		msg := "professional unverified"
		if verified {
			msg = "professional verified"
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: msg, Success: true})
	}
}

func (s *Server) adminLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	logs, err := s.svc.Admin.Logs(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]adminLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, adminLogDTO{
			ID:          l.ID,
			AdminID:     l.AdminID,
			Action:      l.Action,
			TargetTable: l.TargetTable,
			TargetID:    l.TargetID,
			Details:     l.Details,
			PerformedAt: l.PerformedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) adminCases(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cs, err := s.svc.Admin.Cases(r.Context(), cases.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCases(cs))
}
