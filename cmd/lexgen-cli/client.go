package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type apiClient struct {
	addr  string
	token string
	http  *http.Client
}

// do sends body as JSON and returns the raw response.
func (c *apiClient) do(method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimSuffix(c.addr, "/")+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}

// call is do plus status checking and decoding into out.
func (c *apiClient) call(method, path string, body any, want int, out any) ([]byte, error) {
	respBody, status, err := c.do(method, path, body)
	if err != nil {
		return nil, err
	}
	if status != want {
		return respBody, &statusError{status: status, body: respBody}
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return respBody, fmt.Errorf("invalid response: %w", err)
		}
	}
	return respBody, nil
}

type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	var payload struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(e.body, &payload); err == nil && payload.Error != "" {
		if payload.RequestID != "" {
			return fmt.Sprintf("request failed (%d): %s request_id=%s", e.status, payload.Error, payload.RequestID)
		}
		return fmt.Sprintf("request failed (%d): %s", e.status, payload.Error)
	}
	return fmt.Sprintf("request failed (%d): %s", e.status, strings.TrimSpace(string(e.body)))
}
