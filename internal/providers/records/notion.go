package records

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

	"go.uber.org/zap"
)

const (
	notionAPIURL  = "https://api.notion.com/v1"
	notionVersion = "2022-06-28"
	qrImageURL    = "https://api.qrserver.com/v1/create-qr-code/"
)

// NotionClient keeps one tracking page per occurrence in a Notion
// database, with the form URLs and a QR image link for on-site check-in.
type NotionClient struct {
	httpClient *http.Client
	log        *zap.Logger

	token      string
	databaseID string

	// checkinBaseURL is the public prefix encoded into the QR image.
	checkinBaseURL string
}

type NotionConfig struct {
	Token          string
	DatabaseID     string
	CheckinBaseURL string
}

func NewNotionClient(cfg NotionConfig, log *zap.Logger) *NotionClient {
	return &NotionClient{
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		log:            log.Named("records.notion"),
		token:          cfg.Token,
		databaseID:     cfg.DatabaseID,
		checkinBaseURL: strings.TrimRight(cfg.CheckinBaseURL, "/"),
	}
}

func (c *NotionClient) CreateRecord(ctx context.Context, rec Record) error {
	body := map[string]any{
		"parent": map[string]any{"database_id": c.databaseID},
		"properties": map[string]any{
			"Name": map[string]any{
				"title": []map[string]any{
					{"text": map[string]any{"content": rec.Title}},
				},
			},
			"QR URL":       map[string]any{"url": c.qrURL(rec.CheckinToken)},
			"Form URL":     map[string]any{"url": rec.FormURL},
			"Response URL": map[string]any{"url": rec.ResponseURL},
			"Date": map[string]any{
				"date": map[string]any{"start": rec.ScheduledTime.Format(time.RFC3339)},
			},
			"id": map[string]any{
				"rich_text": []map[string]any{
					{"text": map[string]any{"content": rec.OccurrenceID}},
				},
			},
			"Checkin Token": map[string]any{
				"rich_text": []map[string]any{
					{"text": map[string]any{"content": rec.CheckinToken}},
				},
			},
		},
	}

	if err := c.post(ctx, notionAPIURL+"/pages", body, nil); err != nil {
		return fmt.Errorf("create record page: %w", err)
	}
	return nil
}

func (c *NotionClient) GetRecord(ctx context.Context, occurrenceID string) (*Record, error) {
	body := map[string]any{
		"filter": map[string]any{
			"property":  "id",
			"rich_text": map[string]any{"equals": occurrenceID},
		},
	}

	var result struct {
		Results []notionPage `json:"results"`
	}
	endpoint := fmt.Sprintf("%s/databases/%s/query", notionAPIURL, c.databaseID)
	if err := c.post(ctx, endpoint, body, &result); err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	if len(result.Results) == 0 {
		return nil, ErrRecordNotFound
	}
	return result.Results[0].toRecord(occurrenceID)
}

func (c *NotionClient) qrURL(checkinToken string) string {
	checkin := fmt.Sprintf("%s/%s", c.checkinBaseURL, checkinToken)
	return qrImageURL + "?size=300x300&data=" + url.QueryEscape(checkin)
}

func (c *NotionClient) post(ctx context.Context, endpoint string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
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

type notionPage struct {
	Properties struct {
		Name struct {
			Title []struct {
				PlainText string `json:"plain_text"`
			} `json:"title"`
		} `json:"Name"`
		FormURL struct {
			URL string `json:"url"`
		} `json:"Form URL"`
		ResponseURL struct {
			URL string `json:"url"`
		} `json:"Response URL"`
		Date struct {
			Date struct {
				Start string `json:"start"`
			} `json:"date"`
		} `json:"Date"`
		CheckinToken struct {
			RichText []struct {
				PlainText string `json:"plain_text"`
			} `json:"rich_text"`
		} `json:"Checkin Token"`
	} `json:"properties"`
}

func (p notionPage) toRecord(occurrenceID string) (*Record, error) {
	rec := &Record{
		OccurrenceID: occurrenceID,
		FormURL:      p.Properties.FormURL.URL,
		ResponseURL:  p.Properties.ResponseURL.URL,
	}
	if len(p.Properties.CheckinToken.RichText) > 0 {
		rec.CheckinToken = p.Properties.CheckinToken.RichText[0].PlainText
	}
	if len(p.Properties.Name.Title) > 0 {
		rec.Title = p.Properties.Name.Title[0].PlainText
	}
	if raw := p.Properties.Date.Date.Start; raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("parse record date %q: %w", raw, err)
		}
		rec.ScheduledTime = at
	}
	return rec, nil
}
