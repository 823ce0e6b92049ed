package httpapi

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/services"
)

// maxVerificationFiles bounds one verification request.
const maxVerificationFiles = 10

type reviewRequest struct {
	AdminNotes string `json:"admin_notes"`
}

func (s *Server) submitVerification(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxVerificationFiles*(common.MaxUploadSize+1)+maxJSONBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	years := 0
	if raw := strings.TrimSpace(r.FormValue("years_of_experience")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "years_of_experience must be an integer")
			return
		}
		years = n
	}

	headers := r.MultipartForm.File["documents"]
	if len(headers) > maxVerificationFiles {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("at most %d documents per request", maxVerificationFiles))
		return
	}
	files := make([]filex.LocalFile, 0, len(headers))
	for _, h := range headers {
		f, err := readPart(h)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		files = append(files, f)
	}

	detail, err := s.svc.Verifications.Submit(r.Context(), principalFrom(r.Context()), services.VerificationInput{
		FullName:          r.FormValue("full_name"),
		LicenseNumber:     r.FormValue("license_number"),
		LawFirmName:       r.FormValue("law_firm_name"),
		SpecialtyAreas:    splitList(r.MultipartForm.Value["specialty_areas"]),
		YearsOfExperience: years,
		Bio:               r.FormValue("bio"),
		Files:             files,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVerificationDetail(detail))
}

func (s *Server) myVerification(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.Verifications.MyRequest(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerificationDetail(detail))
}

func (s *Server) listVerifications(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.svc.Verifications.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]verificationDTO, 0, len(reqs))
	for _, v := range reqs {
		out = append(out, toVerification(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getVerification(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.Verifications.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerificationDetail(detail))
}

func (s *Server) approveVerification(w http.ResponseWriter, r *http.Request) {
	s.reviewVerification(w, r, s.svc.Verifications.Approve)
}

func (s *Server) rejectVerification(w http.ResponseWriter, r *http.Request) {
	s.reviewVerification(w, r, s.svc.Verifications.Reject)
}

func (s *Server) reviewVerification(w http.ResponseWriter, r *http.Request,
	review func(ctx context.Context, admin auth.Principal, id, notes string) (*models.VerificationRequest, error)) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := review(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"], req.AdminNotes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerification(v))
}

// readPart loads an uploaded file, reading at most one byte past the upload
// ceiling so the service can reject oversized files.
func readPart(h *multipart.FileHeader) (filex.LocalFile, error) {
	f, err := h.Open()
	if err != nil {
		return filex.LocalFile{}, fmt.Errorf("%w: cannot read %s", common.ErrorValidation, h.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, common.MaxUploadSize+1))
	if err != nil {
		return filex.LocalFile{}, fmt.Errorf("%w: cannot read %s", common.ErrorValidation, h.Filename)
	}
	return filex.LocalFile{
		Name:        h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// splitList accepts both repeated form values and comma-separated lists.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
