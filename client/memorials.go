package client

import (
	"context"
	"net/http"
	"strconv"
)

// SearchPublic lists public memorials matching params.Search.
func (c *Client) SearchPublic(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	q := map[string]string{
		"search": params.Search,
		"offset": strconv.Itoa(params.Offset),
	}
	if params.SortBy != "" {
		q["sortBy"] = params.SortBy
	}
	if params.Limit > 0 {
		q["limit"] = strconv.Itoa(params.Limit)
	}

	var out SearchResponse
	if _, err := c.do(ctx, call{op: "search_public", method: http.MethodGet, path: "/memorials/public", query: q}, &out); err != nil {
		return nil, err
	}
	if out.Memorials == nil {
		out.Memorials = []Memorial{}
	}
	return &out, nil
}

// GetPublicMemorial fetches a memorial by slug or ID together with its tributes.
func (c *Client) GetPublicMemorial(ctx context.Context, identifier string) (*MemorialDetail, error) {
	var out MemorialDetail
	cl := call{
		op: "get_public_memorial", method: http.MethodGet,
		path:   "/memorials/public/{identifier}",
		params: map[string]string{"identifier": identifier},
	}
	if _, err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMemorial requires a token.
func (c *Client) CreateMemorial(ctx context.Context, in MemorialInput) (*Memorial, error) {
	var out Memorial
	if _, err := c.do(ctx, call{op: "create_memorial", method: http.MethodPost, path: "/memorials", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMyMemorials returns the memorials owned by the token's user.
func (c *Client) ListMyMemorials(ctx context.Context) ([]Memorial, error) {
	var out struct {
		Memorials []Memorial `json:"memorials" validate:"dive"`
	}
	if _, err := c.do(ctx, call{op: "list_memorials", method: http.MethodGet, path: "/memorials"}, &out); err != nil {
		return nil, err
	}
	if out.Memorials == nil {
		return []Memorial{}, nil
	}
	return out.Memorials, nil
}

// GetMemorial fetches one of the token user's memorials, private ones included.
func (c *Client) GetMemorial(ctx context.Context, id string) (*Memorial, error) {
	var out Memorial
	cl := call{op: "get_memorial", method: http.MethodGet, path: "/memorials/{id}", params: map[string]string{"id": id}}
	if _, err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMemorial overwrites every editable field of the memorial.
func (c *Client) UpdateMemorial(ctx context.Context, id string, in MemorialInput) (*Memorial, error) {
	var out Memorial
	cl := call{
		op: "update_memorial", method: http.MethodPut,
		path: "/memorials/{id}", params: map[string]string{"id": id}, body: in,
	}
	if _, err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMemorial(ctx context.Context, id string) error {
	cl := call{op: "delete_memorial", method: http.MethodDelete, path: "/memorials/{id}", params: map[string]string{"id": id}}
	_, err := c.do(ctx, cl, nil)
	return err
}

// GetPDFData returns the data the PDF export is rendered from.
func (c *Client) GetPDFData(ctx context.Context, id string) (*PDFData, error) {
	var out PDFData
	cl := call{op: "pdf_data", method: http.MethodGet, path: "/memorials/{id}/pdf-data", params: map[string]string{"id": id}}
	if _, err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PreviewPDF downloads the rendered PDF document.
func (c *Client) PreviewPDF(ctx context.Context, id string) ([]byte, error) {
	cl := call{op: "preview_pdf", method: http.MethodGet, path: "/memorials/{id}/preview-pdf", params: map[string]string{"id": id}}
	return c.do(ctx, cl, nil)
}
