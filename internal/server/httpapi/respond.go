package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/lexbridge/internal/common"
)

// maxJSONBody caps request bodies that are not file uploads.
const maxJSONBody = 1 << 20

// maxAnswerBody fits an upload answer carrying a whole file inline.
var maxAnswerBody = int64(base64.StdEncoding.EncodedLen(int(common.MaxUploadSize))) + maxJSONBody

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrTokenExpired, http.StatusUnauthorized},
	{common.ErrRefreshTokenExpired, http.StatusUnauthorized},
	{common.ErrorForbidden, http.StatusForbidden},
	{common.ErrorInactive, http.StatusForbidden},
	{common.ErrorValidation, http.StatusBadRequest},
	{common.ErrorConflict, http.StatusConflict},
	{common.ErrorAlreadyExists, http.StatusConflict},
}

// statusFor maps service errors to HTTP statuses and a client-facing detail.
// Unknown errors become 500 with a generic detail.
func statusFor(err error) (int, string) {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status, detailOf(err, s.err)
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// detailOf drops the "<sentinel>: " prefix services put in front of the
// human-readable part.
func detailOf(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok && rest != "" {
		return rest
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeDetail(w, status, detail)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	return decodeJSONLimit(r, v, maxJSONBody)
}

// decodeJSONLimit is decodeJSON for bodies of up to limit bytes.
func decodeJSONLimit(r *http.Request, v any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON body: %v", common.ErrorValidation, err)
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", common.ErrorValidation, name)
	}
	return n, nil
}
