package tms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"enrol-sync/internal/httpx"
)

const (
	contentTypeJSON  = "application/json"
	contentTypePatch = "application/xml-patch+xml"
)

// Client talks to the training-management system's registration API.
type Client struct {
	BaseURL     string
	HTTP        *http.Client
	BearerToken string
}

func New(baseURL string) *Client {
	tr := &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout:   2 * time.Minute,
			Transport: tr,
		},
	}
}

type AuthRequest struct {
	GrantType string `json:"grantType"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type AuthResponse struct {
	Data struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Scope       string `json:"scope"`
		TokenType   string `json:"token_type"`
	} `json:"data"`
}

// Authenticate exchanges the basic credential for a bearer token and stores it
// on the client.
func (c *Client) Authenticate(ctx context.Context, basicBase64 string, req AuthRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}

	var ar AuthResponse
	err = httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/oauth/v1/token", bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", contentTypeJSON)
			r.Header.Set("Accept", contentTypeJSON)
			r.Header.Set("Authorization", "Basic "+basicBase64)
			return r, nil
		},
		&ar,
		httpx.DefaultRetryConfig(),
	)
	if err != nil {
		return fmt.Errorf("tms auth failed: %w", err)
	}

	token := ar.Data.AccessToken
	if token == "" {
		return fmt.Errorf("tms auth: token not found")
	}
	c.BearerToken = token
	return nil
}

// PageMeta is the paging block returned by registration listings.
type PageMeta struct {
	PageStartIndex int `json:"pageStartIndex"`
	PageTotalCount int `json:"pageTotalCount"`
	TotalCount     int `json:"totalCount"`
}

type listRegistrationsResponse struct {
	Data []map[string]any `json:"data"`
	Meta PageMeta         `json:"meta"`
}

// ListRegistrationsPage fetches one page of registrations. courseRef filters
// by the TMS course reference; empty lists everything.
func (c *Client) ListRegistrationsPage(ctx context.Context, courseRef string, startIndex, limit int) ([]map[string]any, PageMeta, error) {
	if c.BearerToken == "" {
		return nil, PageMeta{}, errors.New("tms: missing bearer token (call Authenticate first)")
	}

	u, err := url.Parse(c.BaseURL + "/api/v1/registrations")
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("tms: invalid base url: %w", err)
	}
	q := u.Query()
	if strings.TrimSpace(courseRef) != "" {
		q.Set("courseRef", strings.TrimSpace(courseRef))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if startIndex > 0 {
		q.Set("pageStartIndex", fmt.Sprintf("%d", startIndex))
	}
	u.RawQuery = q.Encode()

	var out listRegistrationsResponse
	err = httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
			if err != nil {
				return nil, err
			}
			r.Header.Set("Accept", contentTypeJSON)
			r.Header.Set("Authorization", "Bearer "+c.BearerToken)
			return r, nil
		},
		&out,
		httpx.DefaultRetryConfig(),
	)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("tms: list registrations failed: %w", err)
	}

	return out.Data, out.Meta, nil
}

// ListRegistrations fetches the first page only. Kept for debug tooling; the
// sync loop pages through ListRegistrationsPage.
func (c *Client) ListRegistrations(ctx context.Context, courseRef string, limit int) ([]map[string]any, error) {
	rows, _, err := c.ListRegistrationsPage(ctx, courseRef, 0, limit)
	return rows, err
}

// UpdateRegistration pushes an XML patch document against one registration.
// The patch is produced by result.ExportPatch; callers must not send empty
// patches.
func (c *Client) UpdateRegistration(ctx context.Context, registrationID string, patchXML string) error {
	if c.BearerToken == "" {
		return errors.New("tms: missing bearer token (call Authenticate first)")
	}
	if strings.TrimSpace(registrationID) == "" {
		return errors.New("tms: missing registration id")
	}
	if strings.TrimSpace(patchXML) == "" {
		return errors.New("tms: refusing to send empty patch")
	}

	endpoint := c.BaseURL + "/api/v1/registrations/" + url.PathEscape(registrationID)

	_, _, err := httpx.DoWithRetry(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, strings.NewReader(patchXML))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", contentTypePatch)
			r.Header.Set("Authorization", "Bearer "+c.BearerToken)
			return r, nil
		},
		httpx.DefaultRetryConfig(),
	)
	if err != nil {
		return fmt.Errorf("tms: update registration %s failed: %w", registrationID, err)
	}
	return nil
}
