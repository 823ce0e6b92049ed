package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// SubmitVerification uploads a professional verification request with its
// supporting documents.
func (c *Client) SubmitVerification(ctx context.Context, in VerificationForm) (*VerificationDetail, error) {
	fields := []formField{
		{"full_name", in.FullName},
		{"license_number", in.LicenseNumber},
		{"law_firm_name", in.LawFirmName},
		{"years_of_experience", strconv.Itoa(in.YearsOfExperience)},
		{"bio", in.Bio},
	}
	for _, area := range in.SpecialtyAreas {
		fields = append(fields, formField{"specialty_areas", area})
	}
	files := make([]formFile, 0, len(in.Files))
	for _, f := range in.Files {
		files = append(files, formFile{field: "documents", file: f})
	}

	var out VerificationDetail
	if err := c.postMultipart(ctx, "/verification/request", fields, files, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyVerification(ctx context.Context) (*VerificationDetail, error) {
	var out VerificationDetail
	if err := c.call(ctx, http.MethodGet, "/verification/my-request", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verifications lists requests for review, optionally filtered by status.
func (c *Client) Verifications(ctx context.Context, status string) ([]Verification, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var out []Verification
	if err := c.call(ctx, http.MethodGet, "/admin/verifications", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Verification(ctx context.Context, id string) (*VerificationDetail, error) {
	var out VerificationDetail
	if err := c.call(ctx, http.MethodGet, "/admin/verifications/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApproveVerification(ctx context.Context, id, notes string) (*Verification, error) {
	return c.review(ctx, id, "approve", notes)
}

func (c *Client) RejectVerification(ctx context.Context, id, notes string) (*Verification, error) {
	return c.review(ctx, id, "reject", notes)
}

func (c *Client) review(ctx context.Context, id, action, notes string) (*Verification, error) {
	var out Verification
	in := map[string]string{"admin_notes": notes}
	if err := c.call(ctx, http.MethodPost, "/admin/verifications/"+url.PathEscape(id)+"/"+action, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
