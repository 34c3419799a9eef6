package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Request describes one logical call against the API. It survives a refresh
// and replay, so Body must be re-encodable: Go values are JSON-encoded, []byte
// is sent as-is, and *Multipart is encoded as multipart/form-data.
type Request struct {
	Method string
	Path   string // relative to the base URL, or an absolute URL
	Query  url.Values
	Header http.Header
	Body   any

	// Retried is set once the request has gone through a token refresh. A
	// retried request never triggers another refresh.
	Retried bool
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Request    *Request

	// Fallback is true when the body was substituted by a fallback rule
	// instead of coming from the server.
	Fallback bool
}

// Decode unmarshals the JSON body into dest. A nil dest or an empty body is
// not an error.
func (r *Response) Decode(dest any) error {
	if r == nil || dest == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Multipart is a form body for submissions that carry files, such as a
// visitor photo.
type Multipart struct {
	Fields []FormField
	Files  []FormFile
}

// FormField is one text field. Names may repeat.
type FormField struct {
	Name  string
	Value string
}

// FormFile is one file part.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Add appends a text field.
func (m *Multipart) Add(name, value string) {
	m.Fields = append(m.Fields, FormField{Name: name, Value: value})
}

// AddFile appends a file part.
func (m *Multipart) AddFile(field, filename, contentType string, data []byte) {
	m.Files = append(m.Files, FormFile{Field: field, Filename: filename, ContentType: contentType, Data: data})
}

func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range m.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", f.Name, err)
		}
	}
	for _, f := range m.Files {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{
			fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename),
		}
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		header["Content-Type"] = []string{ct}
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write form file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// encodeBody returns the body reader and, when the body dictates one, the
// content type that must replace the JSON default.
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	case *Multipart:
		return b.encode()
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(raw), "", nil
	}
}
