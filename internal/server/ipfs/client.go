// Package ipfs implements the content-pinning collaborator over Pinata's
// REST API. Callers get back content ids (CIDs); everything else about the
// pinned bytes is opaque to this process.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const (
	pinFilePath = "/pinning/pinFileToIPFS"
	pinJSONPath = "/pinning/pinJSONToIPFS"
)

// Client talks to a Pinata-compatible pinning API using a bearer JWT.
type Client struct {
	client     *http.Client
	endpoint   string
	jwt        string
	gatewayURL string
}

// NewClient constructs a Client. endpoint is the API base URL (no trailing
// slash), gatewayURL the public gateway prefix ending in "/ipfs/".
func NewClient(endpoint, jwt, gatewayURL string) *Client {
	return &Client{
		client:     &http.Client{},
		endpoint:   endpoint,
		jwt:        jwt,
		gatewayURL: gatewayURL,
	}
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinFile uploads the file stream and returns its CID.
func (c *Client) PinFile(ctx context.Context, r io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read file stream: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return c.pin(ctx, pinFilePath, &body, writer.FormDataContentType())
}

// PinJSON pins v as a JSON document and returns its CID.
func (c *Client) PinJSON(ctx context.Context, v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return c.pin(ctx, pinJSONPath, bytes.NewReader(payload), "application/json")
}

// GatewayURL returns the full public gateway URL for a CID.
func (c *Client) GatewayURL(cid string) string {
	return c.gatewayURL + cid
}

func (c *Client) pin(ctx context.Context, path string, body io.Reader, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("pin request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode pin response: %w", err)
	}
	if parsed.IpfsHash == "" {
		return "", fmt.Errorf("pin response contained no hash")
	}
	return parsed.IpfsHash, nil
}
