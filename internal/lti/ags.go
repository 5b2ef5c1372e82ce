package lti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// ===== Models (per IMS AGS 2.0 spec, trimmed to what we use) =====

type LineItem struct {
	ID             string  `json:"id,omitempty"` // absolute URL for this line item
	ScoreMaximum   float64 `json:"scoreMaximum,omitempty"`
	Label          string  `json:"label,omitempty"`
	ResourceLinkID string  `json:"resourceLinkId,omitempty"` // from launch claim
	Tag            string  `json:"tag,omitempty"`
}

type Score struct {
	UserID           string  `json:"userId"`
	Timestamp        string  `json:"timestamp"` // RFC3339
	ScoreGiven       float64 `json:"scoreGiven"`
	ScoreMaximum     float64 `json:"scoreMaximum"`
	ActivityProgress string  `json:"activityProgress"` // Initialized|InProgress|Submitted|Completed
	GradingProgress  string  `json:"gradingProgress"`  // NotReady|Pending|Failed|PendingManual|FullyGraded
}

// ===== Client =====

// AGSClient talks to the platform gradebook. Line-item and score URLs come
// from the launch claim per request, so the client itself is stateless.
// Auth: OAuth2 client_credentials against the platform token endpoint.
type AGSClient struct {
	HTTP *http.Client
}

type AGSConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

func NewAGSClient(cfg AGSConfig) *AGSClient {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes: []string{
			"https://purl.imsglobal.org/spec/lti-ags/scope/lineitem",
			"https://purl.imsglobal.org/spec/lti-ags/scope/score",
		},
	}
	h := cc.Client(context.Background())
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &AGSClient{HTTP: h}
}

// ListLineItems GETs the line items of a collection, optionally filtered by
// resource_link_id.
func (c *AGSClient) ListLineItems(ctx context.Context, lineItemsURL, resourceLinkID string) ([]LineItem, error) {
	u, err := url.Parse(lineItemsURL)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	q := u.Query()
	if resourceLinkID != "" {
		q.Set("resource_link_id", resourceLinkID)
	}
	u.RawQuery = q.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	req.Header.Set("Accept", "application/vnd.ims.lis.v2.lineitemcontainer+json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, httpErr("list line items", resp)
	}
	var out []LineItem
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLineItem POSTs a new line item to the collection and returns the
// created item, whose ID is its absolute URL.
func (c *AGSClient) CreateLineItem(ctx context.Context, lineItemsURL string, li LineItem) (LineItem, error) {
	body, _ := json.Marshal(li)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, lineItemsURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/vnd.ims.lis.v2.lineitem+json")
	req.Header.Set("Accept", "application/vnd.ims.lis.v2.lineitem+json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return LineItem{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return LineItem{}, httpErr("create line item", resp)
	}
	var out LineItem
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return LineItem{}, err
	}
	return out, nil
}

// PostScore upserts a score into "{lineItemURL}/scores".
func (c *AGSClient) PostScore(ctx context.Context, lineItemURL string, s Score) error {
	if s.Timestamp == "" {
		s.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	u := strings.TrimRight(lineItemURL, "/") + "/scores"
	body, _ := json.Marshal(s)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/vnd.ims.lis.v1.score+json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return httpErr("post score", resp)
	}
	return nil
}

func httpErr(op string, resp *http.Response) error {
	return fmt.Errorf("%s: platform returned %s", op, resp.Status)
}
