package preferences

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	gistAPIURL   = "https://api.github.com/gists"
	gistFilename = RecordKey + ".json"
	timeout      = 15 * time.Second
)

// GistStorage implements Storage using a private GitHub Gist
type GistStorage struct {
	gistID      string
	githubToken string
	apiURL      string
	httpClient  *http.Client
}

// GistOption configures a GistStorage
type GistOption func(*GistStorage)

// WithGistAPIURL points the storage at a different Gist API endpoint
func WithGistAPIURL(url string) GistOption {
	return func(g *GistStorage) {
		g.apiURL = url
	}
}

// WithGistHTTPClient replaces the HTTP client
func WithGistHTTPClient(c *http.Client) GistOption {
	return func(g *GistStorage) {
		g.httpClient = c
	}
}

// NewGistStorage creates a new Gist-based storage
func NewGistStorage(gistID, githubToken string, opts ...GistOption) (*GistStorage, error) {
	if gistID == "" {
		return nil, fmt.Errorf("gist ID is required")
	}
	if githubToken == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}

	g := &GistStorage{
		gistID:      gistID,
		githubToken: githubToken,
		apiURL:      gistAPIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GistStorage) newRequest(method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("token %s", g.githubToken))
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Load fetches the config record from the Gist
func (g *GistStorage) Load() ([]byte, error) {
	req, err := g.newRequest(http.MethodGet, fmt.Sprintf("%s/%s", g.apiURL, g.gistID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Don't include response body in error to prevent information leakage
		return nil, fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}

	var gistResp struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&gistResp); err != nil {
		return nil, fmt.Errorf("decoding gist response: %w", err)
	}

	file, exists := gistResp.Files[gistFilename]
	if !exists || file.Content == "" {
		return nil, ErrNotFound
	}

	return []byte(file.Content), nil
}

// Save overwrites the config record in the Gist
func (g *GistStorage) Save(data []byte) error {
	payload := map[string]interface{}{
		"files": map[string]interface{}{
			gistFilename: map[string]string{
				"content": string(data),
			},
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := g.newRequest(http.MethodPatch, fmt.Sprintf("%s/%s", g.apiURL, g.gistID), payloadBytes)
	if err != nil {
		return err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("updating gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}

	return nil
}

// CreateGist creates a private Gist seeded with cfg and returns its ID
func CreateGist(githubToken, description string, cfg AppConfig, opts ...GistOption) (string, error) {
	g, err := NewGistStorage("new", githubToken, opts...)
	if err != nil {
		return "", err
	}

	content, err := cfg.ToJSON()
	if err != nil {
		return "", fmt.Errorf("marshaling initial config: %w", err)
	}

	payload := map[string]interface{}{
		"description": description,
		"public":      false,
		"files": map[string]interface{}{
			gistFilename: map[string]string{
				"content": string(content),
			},
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := g.newRequest(http.MethodPost, g.apiURL, payloadBytes)
	if err != nil {
		return "", err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}

	var gistResp struct {
		ID string `json:"id"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&gistResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return gistResp.ID, nil
}
