package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// client talks to the phonebook HTTP API.
type client struct {
	base       string
	token      string
	grpcTarget string
	http       *http.Client
}

func newClient(base, token string) *client {
	return &client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

// apiError carries the server's error body.
type apiError struct {
	Status    int
	Message   string `json:"error"`
	RequestID string `json:"request_id"`
}

func (e *apiError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%d: %s (request %s)", e.Status, e.Message, e.RequestID)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (c *client) signup(ctx context.Context, username, password, role string) (tokenResponse, error) {
	var out tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/users", map[string]string{
		"username": username,
		"password": password,
		"role":     role,
	}, &out)
	return out, err
}

func (c *client) login(ctx context.Context, username, password string) (tokenResponse, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var out tokenResponse
	return out, c.send(req, &out)
}

func (c *client) logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/logout", nil, nil)
}

func (c *client) add(ctx context.Context, name, phone string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.doJSON(ctx, http.MethodPost, "/phonebook/add", map[string]string{
		"name":         name,
		"phone_number": phone,
	}, &out)
	return out, err
}

func (c *client) list(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	return out, c.doJSON(ctx, http.MethodGet, "/phonebook/list", nil, &out)
}

func (c *client) deleteByName(ctx context.Context, name string) (json.RawMessage, error) {
	var out json.RawMessage
	path := "/phonebook/deleteByName?" + url.Values{"name": {name}}.Encode()
	return out, c.doJSON(ctx, http.MethodPut, path, nil, &out)
}

func (c *client) deleteByNumber(ctx context.Context, phone string) (json.RawMessage, error) {
	var out json.RawMessage
	path := "/phonebook/deleteByNumber?" + url.Values{"phone_number": {phone}}.Encode()
	return out, c.doJSON(ctx, http.MethodPut, path, nil, &out)
}

func (c *client) auditLogs(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	return out, c.doJSON(ctx, http.MethodGet, "/audit-logs", nil, &out)
}

func (c *client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *client) send(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
