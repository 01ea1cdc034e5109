// Package jamendo provides a client for the Jamendo tracks API.
package jamendo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jambox/internal/domain/playlist"
	"github.com/osa030/jambox/internal/domain/track"
)

const defaultBaseURL = "https://api.jamendo.com/v3.0/tracks"

// Client is a Jamendo tracks API client.
type Client struct {
	clientID   string
	baseURL    string
	limit      int
	offset     int
	search     string
	httpClient *http.Client
}

// Config represents Jamendo client configuration. When Search is set it
// selects the catalog instead of Limit/Offset pagination.
type Config struct {
	ClientID string
	BaseURL  string
	Limit    int
	Offset   int
	Search   string
}

// trackResult mirrors one entry of the API's results array.
type trackResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ArtistName  string `json:"artist_name"`
	AlbumName   string `json:"album_name"`
	Audio       string `json:"audio"`
	Image       string `json:"image"`
	Duration    int    `json:"duration"`
	ReleaseDate string `json:"releasedate"`
}

// tracksResponse mirrors the API envelope. Only results matters here; a
// response without it is treated as an empty catalog.
type tracksResponse struct {
	Results []trackResult `json:"results"`
}

// New creates a new Jamendo client.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("jamendo client ID is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 200
	}

	return &Client{
		clientID:   cfg.ClientID,
		baseURL:    baseURL,
		limit:      limit,
		offset:     cfg.Offset,
		search:     cfg.Search,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// FetchCatalog retrieves the configured slice of the catalog as an ordered
// playlist. Any failure, and any response without a results field, yields
// an empty playlist: an empty catalog is a valid terminal state for
// callers, not an error.
func (c *Client) FetchCatalog(ctx context.Context) playlist.Playlist {
	tracks, err := c.fetchTracks(ctx)
	if err != nil {
		zlog.Warn().Msgf("jamendo: catalog fetch failed, using empty playlist: %v", err)
		return playlist.New(nil)
	}
	return playlist.New(tracks)
}

func (c *Client) fetchTracks(ctx context.Context) ([]track.Track, error) {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("format", "jsonpretty")
	if c.search != "" {
		params.Set("search", c.search)
	} else {
		params.Set("limit", strconv.Itoa(c.limit))
		params.Set("offset", strconv.Itoa(c.offset))
	}

	reqURL := c.baseURL + "/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("jamendo API returned status %d", resp.StatusCode)
	}

	var response tracksResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	tracks := make([]track.Track, 0, len(response.Results))
	for _, r := range response.Results {
		tracks = append(tracks, track.Track{
			ID:          r.ID,
			Name:        r.Name,
			Artist:      r.ArtistName,
			Album:       r.AlbumName,
			Audio:       r.Audio,
			ImageURL:    r.Image,
			Duration:    time.Duration(r.Duration) * time.Second,
			ReleaseDate: r.ReleaseDate,
		})
	}

	zlog.Debug().Msgf("jamendo: fetched %d tracks", len(tracks))
	return tracks, nil
}
