package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

type formField struct {
	name, value string
}

type formFile struct {
	field string
	file  File
}

// encodeMultipart renders fields and files as multipart/form-data and
// returns the body together with its content type.
func encodeMultipart(fields []formField, files []formFile) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.file.Name))
		ct := f.file.ContentType
		if ct == "" {
			ct = http.DetectContentType(f.file.Data)
		}
		h.Set("Content-Type", ct)
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(f.file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (c *Client) postMultipart(ctx context.Context, path string, fields []formField, files []formFile, out any) error {
	body, contentType, err := encodeMultipart(fields, files)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}
	return c.send(ctx, build, out)
}
