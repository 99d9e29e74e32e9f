// Package immich pulls slideshow images from an Immich photo server.
package immich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"easel/internal/fileutil"
	"easel/internal/provider"
)

const (
	requestTimeout = 30 * time.Second
	userAgent      = "Easel/0.1.0"
)

// HTTPDoer describes the HTTP client used by the Immich provider.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider downloads images from an Immich server, either a named album or
// the full asset list.
type Provider struct {
	client HTTPDoer

	baseURL      string
	apiKey       string
	albumName    string
	skipExisting bool
}

// New constructs an unconfigured Immich provider.
func New() provider.Provider {
	return &Provider{client: &http.Client{Timeout: requestTimeout}}
}

// NewWithClient constructs an Immich provider around a custom HTTP client.
func NewWithClient(client HTTPDoer) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Describe() provider.Descriptor {
	return provider.Descriptor{
		Name:        "immich",
		DisplayName: "Immich",
		Description: "Download images from your Immich photo management server",
		Fields: []provider.ConfigField{
			{Key: "server_url", Label: "Server URL", Type: provider.FieldText, Required: true},
			{Key: "api_key", Label: "API Key", Type: provider.FieldPassword, Required: true},
			{Key: "album_name", Label: "Album Name", Type: provider.FieldText},
			{Key: "skip_existing", Label: "Skip Existing Files", Type: provider.FieldBoolean},
		},
	}
}

func (p *Provider) Configure(settings map[string]string) {
	p.baseURL = strings.TrimRight(strings.TrimSpace(settings["server_url"]), "/")
	p.apiKey = strings.TrimSpace(settings["api_key"])
	p.albumName = strings.TrimSpace(settings["album_name"])
	p.skipExisting = true
	if raw, ok := settings["skip_existing"]; ok {
		if parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw))); err == nil {
			p.skipExisting = parsed
		}
	}
}

func (p *Provider) ValidateConfig() error {
	if p.baseURL == "" {
		return fmt.Errorf("%w: server_url is required", provider.ErrConfigInvalid)
	}
	if !strings.HasPrefix(p.baseURL, "http://") && !strings.HasPrefix(p.baseURL, "https://") {
		return fmt.Errorf("%w: server_url must start with http:// or https://", provider.ErrConfigInvalid)
	}
	if p.apiKey == "" {
		return fmt.Errorf("%w: api_key is required", provider.ErrConfigInvalid)
	}
	return nil
}

func (p *Provider) TestConnection(ctx context.Context) (bool, string) {
	if err := p.ValidateConfig(); err != nil {
		return false, fmt.Sprintf("configuration error: %v", err)
	}

	resp, err := p.get(ctx, "/api/users/me")
	if err != nil {
		if provider.IsTimeout(err) {
			return false, "connection timed out"
		}
		return false, fmt.Sprintf("connection failed: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var user struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&user)
		who := user.Name
		if who == "" {
			who = user.Email
		}
		if who != "" {
			return true, fmt.Sprintf("connected to Immich as %s", who)
		}
		return true, "connected to Immich"
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, "authentication failed - check your API key"
	default:
		return false, fmt.Sprintf("Immich returned status %d", resp.StatusCode)
	}
}

type asset struct {
	ID               string `json:"id"`
	OriginalFileName string `json:"originalFileName"`
}

func (p *Provider) Refresh(ctx context.Context, targetFolder string) provider.Outcome {
	if err := p.ValidateConfig(); err != nil {
		return provider.Failure("configuration error: %v", err)
	}

	assets, err := p.fetchAssets(ctx)
	if err != nil {
		return provider.Failure("failed to fetch assets: %v", err)
	}

	var downloaded, skipped, failed int
	var errs []string
	for _, entry := range assets {
		filename := fileutil.SafeName(entry.OriginalFileName)
		if filename == "" {
			filename = entry.ID + ".jpg"
		}
		target := filepath.Join(targetFolder, filename)

		if p.skipExisting && fileutil.Exists(target) {
			skipped++
			continue
		}
		if err := p.download(ctx, entry.ID, target); err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("download %s: %v", filename, err))
			continue
		}
		downloaded++
	}
	return provider.Summarize(downloaded, skipped, failed, len(assets), errs)
}

// fetchAssets lists the album contents when an album is configured, all
// assets otherwise.
func (p *Provider) fetchAssets(ctx context.Context) ([]asset, error) {
	if p.albumName == "" {
		var assets []asset
		if err := p.getJSON(ctx, "/api/assets", &assets); err != nil {
			return nil, err
		}
		return assets, nil
	}

	var albums []struct {
		ID        string `json:"id"`
		AlbumName string `json:"albumName"`
	}
	if err := p.getJSON(ctx, "/api/albums", &albums); err != nil {
		return nil, err
	}
	for _, album := range albums {
		if strings.EqualFold(album.AlbumName, p.albumName) {
			var detail struct {
				Assets []asset `json:"assets"`
			}
			if err := p.getJSON(ctx, "/api/albums/"+album.ID, &detail); err != nil {
				return nil, err
			}
			return detail.Assets, nil
		}
	}
	return nil, fmt.Errorf("album %q not found", p.albumName)
}

func (p *Provider) download(ctx context.Context, assetID, target string) error {
	resp, err := p.get(ctx, "/api/assets/"+assetID+"/original")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return fileutil.WriteAtomic(target, resp.Body)
}

func (p *Provider) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	return p.client.Do(req)
}

func (p *Provider) getJSON(ctx context.Context, path string, out any) error {
	resp, err := p.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: Immich rejected the API key", provider.ErrAuthFailed)
	default:
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
