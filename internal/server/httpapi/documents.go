package httpapi

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/documents"
)

func (s *Server) myDocuments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	ds, err := s.svc.Documents.Mine(r.Context(), principalFrom(r.Context()), documents.ListFilter{
		DocumentType: q.Get("document_type"),
		CaseID:       q.Get("case_uuid"),
		SessionID:    q.Get("session_id"),
		Limit:        limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]documentDTO, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDocument(d, "/api/documents/download/"+d.ID))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) downloadDocument(w http.ResponseWriter, r *http.Request) {
	d, body, err := s.svc.Documents.Download(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ct := d.MimeType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) caseDocuments(w http.ResponseWriter, r *http.Request) {
	ds, err := s.svc.Documents.CaseDocuments(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLinkedDocuments(ds))
}

func (s *Server) attachCaseDocument(w http.ResponseWriter, r *http.Request) {
	f, ok := s.parseSingleFile(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Documents.Attach(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"], f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocument(d.Document, d.DownloadURL))
}

func (s *Server) detachCaseDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.svc.Documents.Detach(r.Context(), principalFrom(r.Context()), vars["id"], vars["doc"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
