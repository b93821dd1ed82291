package stories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Story is the document-store record for one submitted story. The
// store owns it; this package only forwards calls.
type Story struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Badge     string    `json:"badge,omitempty"`
	Media     *Media    `json:"media,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Media points at an asset already uploaded to the external host.
type Media struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
	FileType string `json:"fileType"`
	Format   string `json:"format"`
}

// Client talks to the upstream document store (a json-server style
// REST API) that owns story content and newsletter subscriptions.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

func (c *Client) List(ctx context.Context, sortBy, order string) ([]Story, error) {
	endpoint := c.BaseURL + "/stories"
	if sortBy != "" {
		if order == "" {
			order = "desc"
		}
		endpoint += "?_sort=" + url.QueryEscape(sortBy) + "&_order=" + url.QueryEscape(order)
	}

	var stories []Story
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Story, error) {
	var story Story
	if err := c.do(ctx, http.MethodGet, c.BaseURL+"/stories/"+url.PathEscape(id), nil, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

func (c *Client) Create(ctx context.Context, story Story) (*Story, error) {
	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	story.CreatedAt = now
	story.UpdatedAt = now

	var created Story
	if err := c.do(ctx, http.MethodPost, c.BaseURL+"/stories", story, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) Update(ctx context.Context, id string, story Story) (*Story, error) {
	story.ID = id
	story.UpdatedAt = time.Now().UTC()

	var updated Story
	if err := c.do(ctx, http.MethodPut, c.BaseURL+"/stories/"+url.PathEscape(id), story, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.BaseURL+"/stories/"+url.PathEscape(id), nil, nil)
}

// SubscribeNewsletter forwards a newsletter signup.
func (c *Client) SubscribeNewsletter(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, c.BaseURL+"/api/newsletter-subscribe", body, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("story store unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("story store returned %s", resp.Status)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
