package client

import (
	"context"
	"net/http"
)

func tributePath(identifier string) (string, map[string]string) {
	return "/memorials/public/{identifier}/tributes", map[string]string{"identifier": identifier}
}

// ListTributes returns the tributes of a public memorial, newest first.
func (c *Client) ListTributes(ctx context.Context, identifier string) ([]Tribute, error) {
	path, params := tributePath(identifier)
	var out struct {
		Tributes []Tribute `json:"tributes" validate:"dive"`
	}
	if _, err := c.do(ctx, call{op: "list_tributes", method: http.MethodGet, path: path, params: params}, &out); err != nil {
		return nil, err
	}
	if out.Tributes == nil {
		return []Tribute{}, nil
	}
	return out.Tributes, nil
}

// CreateTribute posts a tribute attributed to sessionID.
func (c *Client) CreateTribute(ctx context.Context, identifier, authorName, message, sessionID string) (*Tribute, error) {
	path, params := tributePath(identifier)
	body := map[string]string{"authorName": authorName, "message": message, "sessionId": sessionID}
	var out Tribute
	if _, err := c.do(ctx, call{op: "create_tribute", method: http.MethodPost, path: path, params: params, body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTribute replaces the message. The backend answers 403 when sessionID
// is not the one the tribute was created with.
func (c *Client) UpdateTribute(ctx context.Context, identifier, tributeID, message, sessionID string) (*Tribute, error) {
	path, params := tributePath(identifier)
	params["tributeId"] = tributeID
	body := map[string]string{"message": message, "sessionId": sessionID}
	var out Tribute
	cl := call{op: "update_tribute", method: http.MethodPut, path: path + "/{tributeId}", params: params, body: body}
	if _, err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTribute removes a tribute; sessionID travels in the request body.
func (c *Client) DeleteTribute(ctx context.Context, identifier, tributeID, sessionID string) error {
	path, params := tributePath(identifier)
	params["tributeId"] = tributeID
	cl := call{
		op: "delete_tribute", method: http.MethodDelete, path: path + "/{tributeId}", params: params,
		body: map[string]string{"sessionId": sessionID},
	}
	_, err := c.do(ctx, cl, nil)
	return err
}

// CreateRSVP registers attendance for a public memorial's service.
func (c *Client) CreateRSVP(ctx context.Context, identifier string, req RSVPRequest) (*RSVP, error) {
	var out RSVP
	cl := call{
		op: "create_rsvp", method: http.MethodPost,
		path: "/memorials/public/{identifier}/rsvps", params: map[string]string{"identifier": identifier}, body: req,
	}
	if _, err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRSVPs returns the RSVPs of a memorial owned by the token's user.
func (c *Client) ListRSVPs(ctx context.Context, memorialID string) ([]RSVP, error) {
	var out struct {
		RSVPs []RSVP `json:"rsvps" validate:"dive"`
	}
	cl := call{op: "list_rsvps", method: http.MethodGet, path: "/memorials/{id}/rsvps", params: map[string]string{"id": memorialID}}
	if _, err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	if out.RSVPs == nil {
		return []RSVP{}, nil
	}
	return out.RSVPs, nil
}
