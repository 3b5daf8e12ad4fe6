// Package remote provides a minimal client for the hosted PostgREST-style
// match statistics store.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-wp-metrics/internal/model"
)

// restPrefix is the path under which tables and RPCs are exposed.
const restPrefix = "/rest/v1"

// Client is a minimal REST client for the hosted store.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logrus.Entry
}

// NewClient returns a client for the store at baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.WithField("component", "remote"),
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := c.baseURL + restPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "resolution=merge-duplicates")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) rows(ctx context.Context, table string, query url.Values) ([]model.Row, error) {
	var rows []model.Row
	if err := c.do(ctx, http.MethodGet, "/"+table, query, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func seasonFilter(clubID, season string) url.Values {
	q := url.Values{}
	if clubID != "" {
		q.Set(model.ColClubID, "eq."+clubID)
	}
	if season != "" {
		q.Set(model.ColSeason, "eq."+season)
	}
	return q
}

// FetchMatches returns the matches of a club's season. Rows that do not decode
// are skipped.
func (c *Client) FetchMatches(ctx context.Context, clubID, season string) ([]model.MatchRecord, error) {
	rows, err := c.rows(ctx, "matches", seasonFilter(clubID, season))
	if err != nil {
		return nil, err
	}
	out := make([]model.MatchRecord, 0, len(rows))
	for _, r := range rows {
		m, err := model.MatchFromRow(r)
		if err != nil {
			c.log.WithError(err).Debug("skipping match row")
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// FetchPlayerStats returns the stat rows of a club's season.
func (c *Client) FetchPlayerStats(ctx context.Context, clubID, season string) ([]model.PlayerStatRecord, error) {
	rows, err := c.rows(ctx, "player_stats", seasonFilter(clubID, season))
	if err != nil {
		return nil, err
	}
	out := make([]model.PlayerStatRecord, 0, len(rows))
	for _, r := range rows {
		s, err := model.StatFromRow(r)
		if err != nil {
			c.log.WithError(err).Debug("skipping stat row")
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// FetchWeightMap returns the weights a user saved for a role.
func (c *Client) FetchWeightMap(ctx context.Context, userID string, role model.Role) (model.WeightMap, error) {
	q := url.Values{}
	q.Set(model.ColUserID, "eq."+userID)
	q.Set(model.ColRole, "eq."+role.String())
	rows, err := c.rows(ctx, "weights", q)
	if err != nil {
		return nil, err
	}
	return model.WeightsFromRows(rows, userID, role), nil
}

func weightBody(userID string, role model.Role, key string, weight any) map[string]any {
	return map[string]any{
		model.ColUserID:  userID,
		model.ColRole:    role.String(),
		model.ColStatKey: key,
		model.ColWeight:  weight,
	}
}

// ToggleWeight adds key when absent and removes it when present, through the
// toggle_weight RPC.
func (c *Client) ToggleWeight(ctx context.Context, userID string, role model.Role, key string, weight any) error {
	return c.do(ctx, http.MethodPost, "/rpc/toggle_weight", nil, weightBody(userID, role, key, weight), nil)
}

// SetWeight upserts a single weight row.
func (c *Client) SetWeight(ctx context.Context, userID string, role model.Role, key string, weight any) error {
	return c.do(ctx, http.MethodPost, "/weights", nil, []map[string]any{weightBody(userID, role, key, weight)}, nil)
}
