package downloadsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the download service.
type Client struct {
	BaseURL string

	// HTTPClient is used for JSON calls.
	HTTPClient *http.Client

	// StreamClient is used by Download. It has no overall timeout since films
	// are large; bound transfers with the context instead.
	StreamClient *http.Client

	// BearerToken is sent as "Authorization: Bearer" when set.
	BearerToken string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		StreamClient: &http.Client{},
	}
}

// RequestDownload authorizes a download. A user without a plan gets an
// *APIError whose RequiresSubscription is true.
func (c *Client) RequestDownload(ctx context.Context, req DownloadRequest) (*DownloadResponse, error) {
	if req.UserID == "" || req.ContentID == "" || req.StreamURL == "" || req.Title == "" {
		return nil, &APIError{
			StatusCode:  http.StatusBadRequest,
			Code:        ErrorCodeInvalidRequest,
			Description: "userId, contentId, streamUrl and title are required",
		}
	}

	var out DownloadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/downloads", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateToken checks token and spends it.
func (c *Client) ValidateToken(ctx context.Context, token string) (*ValidateResponse, error) {
	var out ValidateResponse
	path := "/v1/downloads/validate?token=" + url.QueryEscape(token)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download redeems token and copies the media into w.
func (c *Client) Download(ctx context.Context, token string, w io.Writer) (*DownloadInfo, error) {
	path := "/v1/downloads/stream?token=" + url.QueryEscape(token)
	resp, err := c.do(ctx, c.StreamClient, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, parseErrorResponse(resp, body)
	}

	info := &DownloadInfo{ContentType: resp.Header.Get("Content-Type")}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		info.Filename = params["filename"]
	}

	n, err := io.Copy(w, resp.Body)
	info.Bytes = n
	if err != nil {
		return info, fmt.Errorf("failed to copy media: %w", err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return info, fmt.Errorf("short download: got %d of %d bytes", n, resp.ContentLength)
	}
	return info, nil
}

func (c *Client) Plans(ctx context.Context) ([]Plan, error) {
	var out PlansResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/plans", nil, &out); err != nil {
		return nil, err
	}
	return out.Plans, nil
}

func (c *Client) Subscription(ctx context.Context, userID string) (*SubscriptionResponse, error) {
	var out SubscriptionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GrantSubscription activates planID for userID. Requires admin:write.
func (c *Client) GrantSubscription(ctx context.Context, userID, planID string) (*SubscriptionResponse, error) {
	var out SubscriptionResponse
	body := GrantSubscriptionRequest{PlanID: planID}
	if err := c.doJSON(ctx, http.MethodPut, "/v1/subscriptions/"+url.PathEscape(userID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetAdmin sets the user's admin flag. Requires admin:write.
func (c *Client) SetAdmin(ctx context.Context, userID string, isAdmin bool) (*ProfileResponse, error) {
	var out ProfileResponse
	body := ProfileRequest{IsAdmin: isAdmin}
	if err := c.doJSON(ctx, http.MethodPut, "/v1/profiles/"+url.PathEscape(userID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}

	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// doJSON sends in (if non-nil) and decodes a 200 response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	resp, err := c.do(ctx, c.HTTPClient, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
