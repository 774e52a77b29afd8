package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	tokenEndpoint = "https://oauth2.googleapis.com/token"
	formsEndpoint = "https://forms.googleapis.com/v1/forms"
)

// GoogleClient provisions attendance forms through the Google Forms v1
// API, authenticating with a long-lived OAuth refresh token.
type GoogleClient struct {
	httpClient *http.Client
	log        *zap.Logger
	loc        *time.Location

	clientID     string
	clientSecret string
	refreshToken string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func NewGoogleClient(cfg GoogleConfig, loc *time.Location, log *zap.Logger) *GoogleClient {
	return &GoogleClient{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		log:          log.Named("forms.google"),
		loc:          loc,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
	}
}

// CreateForm creates the form, adds the single required name question,
// and returns the public and edit URLs.
func (c *GoogleClient) CreateForm(ctx context.Context, title string, scheduledAt time.Time) (URLs, error) {
	token, err := c.accessTokenLocked(ctx)
	if err != nil {
		return URLs{}, fmt.Errorf("obtain access token: %w", err)
	}

	formTitle := fmt.Sprintf("%s (%s)", title, scheduledAt.In(c.loc).Format("2006-01-02 15:04"))
	createBody := map[string]any{
		"info": map[string]any{
			"title":         formTitle,
			"documentTitle": formTitle,
		},
	}

	var created struct {
		FormID string `json:"formId"`
	}
	if err := c.postJSON(ctx, formsEndpoint, token, createBody, &created); err != nil {
		return URLs{}, fmt.Errorf("create form: %w", err)
	}
	if created.FormID == "" {
		return URLs{}, fmt.Errorf("create form: empty form id in response")
	}

	updateBody := map[string]any{
		"requests": []map[string]any{
			{
				"createItem": map[string]any{
					"item": map[string]any{
						"title": "이름",
						"questionItem": map[string]any{
							"question": map[string]any{
								"required":     true,
								"textQuestion": map[string]any{"paragraph": false},
							},
						},
					},
					"location": map[string]any{"index": 0},
				},
			},
		},
	}
	if err := c.postJSON(ctx, fmt.Sprintf("%s/%s:batchUpdate", formsEndpoint, created.FormID), token, updateBody, nil); err != nil {
		return URLs{}, fmt.Errorf("add form question: %w", err)
	}

	return URLs{
		FormURL:     fmt.Sprintf("https://docs.google.com/forms/d/%s/viewform", created.FormID),
		ResponseURL: fmt.Sprintf("https://docs.google.com/forms/d/%s/edit", created.FormID),
	}, nil
}

func (c *GoogleClient) accessTokenLocked(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {c.refreshToken},
		"grant_type":    {"refresh_token"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	c.accessToken = payload.AccessToken
	// Refresh a minute early to avoid using a token at its expiry edge.
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

func (c *GoogleClient) postJSON(ctx context.Context, endpoint, token string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
