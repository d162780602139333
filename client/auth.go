package client

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a token and installs it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if _, err := c.do(ctx, call{op: "login", method: http.MethodPost, path: "/auth/login", body: body}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Register creates an account and installs the returned token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if _, err := c.do(ctx, call{op: "register", method: http.MethodPost, path: "/auth/register", body: req}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}
