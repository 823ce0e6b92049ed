package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

// Download is a document body fetched from the server.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

func (d *Download) read(resp *http.Response) error {
	d.ContentType = resp.Header.Get("Content-Type")
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.FileName = params["filename"]
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxUploadSize+1))
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	d.Data = data
	return nil
}

func (f DocumentFilter) query() url.Values {
	q := url.Values{}
	if f.DocumentType != "" {
		q.Set("document_type", f.DocumentType)
	}
	if f.CaseID != "" {
		q.Set("case_uuid", f.CaseID)
	}
	if f.SessionID != "" {
		q.Set("session_id", f.SessionID)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// MyDocuments lists documents the caller uploaded or generated, newest first.
func (c *Client) MyDocuments(ctx context.Context, f DocumentFilter) ([]Document, error) {
	var out []Document
	if err := c.call(ctx, http.MethodGet, "/documents/my-documents", f.query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DownloadDocument(ctx context.Context, id string) (*Download, error) {
	var out Download
	if err := c.call(ctx, http.MethodGet, "/documents/download/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CaseDocuments(ctx context.Context, caseID string) ([]Document, error) {
	var out []Document
	if err := c.call(ctx, http.MethodGet, "/cases/"+url.PathEscape(caseID)+"/documents", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AttachCaseDocument uploads f to a case. Files over the upload ceiling fail
// with ErrFileTooLarge without a request being made.
func (c *Client) AttachCaseDocument(ctx context.Context, caseID string, f File) (*Document, error) {
	if int64(len(f.Data)) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	var out Document
	if err := c.postMultipart(ctx, "/cases/"+url.PathEscape(caseID)+"/documents", nil, []formFile{{field: "file", file: f}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DetachCaseDocument(ctx context.Context, caseID, docID string) error {
	return c.call(ctx, http.MethodDelete, "/cases/"+url.PathEscape(caseID)+"/documents/"+url.PathEscape(docID), nil, nil, nil)
}
