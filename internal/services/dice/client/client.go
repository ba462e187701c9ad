// Package client calls the dice daemon HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/louisbranch/bloodroll/internal/services/dice/storage"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

// Character is one entry of the daemon's character list.
type Character struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Clan   string       `json:"clan,omitempty"`
	Tracks tracks.State `json:"tracks"`
}

// Selection reports the pool a selection composes to.
type Selection struct {
	OK     bool        `json:"ok"`
	Result pool.Result `json:"result"`
}

// ListRollsParams selects one page of the journal.
type ListRollsParams struct {
	Filter    string
	OrderBy   string
	PageSize  int
	PageToken string
}

// RollList is one page of the journal.
type RollList struct {
	Rolls         []storage.RollRecord `json:"rolls"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("dice api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("dice api: %s: %s", e.Code, e.Message)
}

// Client talks to one dice daemon.
type Client struct {
	baseURL string
	locale  string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLocale sends Accept-Language on every call so error messages come
// back localized.
func WithLocale(locale string) Option {
	return func(c *Client) {
		c.locale = locale
	}
}

// New builds a client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), client: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Characters lists every loaded character.
func (c *Client) Characters(ctx context.Context) ([]Character, error) {
	var out struct {
		Characters []Character `json:"characters"`
	}
	if err := c.do(ctx, http.MethodGet, "/characters", nil, &out); err != nil {
		return nil, err
	}
	return out.Characters, nil
}

// Select stores the composer state for a character.
func (c *Client) Select(ctx context.Context, characterID string, state pool.ComposerState) (Selection, error) {
	var out Selection
	err := c.do(ctx, http.MethodPut, characterPath(characterID, "selection"), state, &out)
	return out, err
}

// Roll throws the composed pool, or a quick check when kind is rouse,
// remorse or frenzy.
func (c *Client) Roll(ctx context.Context, characterID, kind string, difficulty *int) (overlay.Resolution, error) {
	body := struct {
		Kind       string `json:"kind,omitempty"`
		Difficulty *int   `json:"difficulty,omitempty"`
	}{Kind: kind, Difficulty: difficulty}
	var out overlay.Resolution
	err := c.do(ctx, http.MethodPost, characterPath(characterID, "rolls"), body, &out)
	return out, err
}

// Toggle flips one die in the Willpower reroll selection.
func (c *Client) Toggle(ctx context.Context, characterID string, index int) ([]int, error) {
	var out struct {
		Selected []int `json:"selected"`
	}
	err := c.do(ctx, http.MethodPost, characterPath(characterID, "dice", strconv.Itoa(index), "toggle"), nil, &out)
	return out.Selected, err
}

// Reroll spends Willpower on the selected dice.
func (c *Client) Reroll(ctx context.Context, characterID string) (overlay.Resolution, error) {
	var out overlay.Resolution
	err := c.do(ctx, http.MethodPost, characterPath(characterID, "reroll"), nil, &out)
	return out, err
}

// Wipe clears the overlay.
func (c *Client) Wipe(ctx context.Context, characterID string) error {
	return c.do(ctx, http.MethodDelete, characterPath(characterID, "overlay"), nil, nil)
}

// ListRolls reads one page of the roll journal.
func (c *Client) ListRolls(ctx context.Context, params ListRollsParams) (RollList, error) {
	query := url.Values{}
	if params.Filter != "" {
		query.Set("filter", params.Filter)
	}
	if params.OrderBy != "" {
		query.Set("order_by", params.OrderBy)
	}
	if params.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(params.PageSize))
	}
	if params.PageToken != "" {
		query.Set("page_token", params.PageToken)
	}
	target := "/rolls"
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var out RollList
	err := c.do(ctx, http.MethodGet, target, nil, &out)
	return out, err
}

func characterPath(characterID string, parts ...string) string {
	segments := append([]string{"characters", url.PathEscape(characterID)}, parts...)
	return "/" + strings.Join(segments, "/")
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", target, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+target, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", target, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.locale != "" {
		req.Header.Set("Accept-Language", c.locale)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", target, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		if envelope.Error.Message != "" {
			apiErr.Message = envelope.Error.Message
		}
	}
	return apiErr
}
