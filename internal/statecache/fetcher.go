package statecache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/mcdev12/liveauction/internal/models"
)

// HTTPFetcher loads room state from the auction API, authenticating with
// a room token. Any role's token works; snapshots are read-only.
type HTTPFetcher struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher against the given API base URL.
func NewHTTPFetcher(baseURL, token string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{baseURL: baseURL, token: token, client: client}
}

type snapshotPayload struct {
	Room     *models.Room     `json:"room"`
	Teams    []models.Team    `json:"teams"`
	Players  []models.Player  `json:"players"`
	Bids     []models.Bid     `json:"bids"`
	Messages []models.Message `json:"messages"`
}

// FetchAll loads the full snapshot.
func (f *HTTPFetcher) FetchAll(ctx context.Context, roomID uuid.UUID) (*RoomState, error) {
	var payload snapshotPayload
	if err := f.get(ctx, fmt.Sprintf("/rooms/%s", roomID), &payload); err != nil {
		return nil, err
	}
	return &RoomState{
		Room:     payload.Room,
		Teams:    payload.Teams,
		Players:  payload.Players,
		Bids:     payload.Bids,
		Messages: payload.Messages,
	}, nil
}

// FetchPoll loads the poll payload.
func (f *HTTPFetcher) FetchPoll(ctx context.Context, roomID uuid.UUID) (*PollState, error) {
	var payload snapshotPayload
	if err := f.get(ctx, fmt.Sprintf("/rooms/%s/poll", roomID), &payload); err != nil {
		return nil, err
	}
	return &PollState{
		Room:     payload.Room,
		Teams:    payload.Teams,
		Players:  payload.Players,
		Bids:     payload.Bids,
		Messages: payload.Messages,
	}, nil
}

func (f *HTTPFetcher) get(ctx context.Context, path string, out any) error {
	u, err := url.JoinPath(f.baseURL, path)
	if err != nil {
		return fmt.Errorf("failed to build request URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
