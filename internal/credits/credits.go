// Package credits fetches the externally computed pod credit scores. The
// source is best-effort: when it is down the pipeline carries on with zero
// credits rather than aborting the poll.
package credits

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/abulimen/pnode-watch/internal/models"
)

type Client struct {
	httpClient *http.Client
	endpoint   string
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
	}
}

// Fetch returns the credit score per pod pubkey. Callers treat any error as
// "no credits this cycle".
func (c *Client) Fetch(ctx context.Context) (map[string]int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create credits request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pod credits: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credits API returned status %d", resp.StatusCode)
	}

	var creditsResp models.CreditsResponse
	if err := json.NewDecoder(resp.Body).Decode(&creditsResp); err != nil {
		return nil, fmt.Errorf("failed to decode credits response: %w", err)
	}

	byPubkey := make(map[string]int64, len(creditsResp.PodsCredits))
	for _, entry := range creditsResp.PodsCredits {
		byPubkey[entry.PodID] = entry.Credits
	}
	return byPubkey, nil
}

// Apply writes credits and ranks onto derived nodes in place. Nodes without
// an entry keep zero credits.
func Apply(nodes []models.DerivedNode, byPubkey map[string]int64) {
	if len(byPubkey) == 0 {
		return
	}

	ranks := Ranks(byPubkey)
	for i := range nodes {
		if c, ok := byPubkey[nodes[i].Pubkey]; ok {
			nodes[i].Credits = c
			nodes[i].CreditsRank = ranks[nodes[i].Pubkey]
		}
	}
}

// Ranks orders pubkeys by descending credits; rank 1 is the highest score.
func Ranks(byPubkey map[string]int64) map[string]int {
	type entry struct {
		pubkey  string
		credits int64
	}
	entries := make([]entry, 0, len(byPubkey))
	for k, v := range byPubkey {
		entries = append(entries, entry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].credits != entries[j].credits {
			return entries[i].credits > entries[j].credits
		}
		return entries[i].pubkey < entries[j].pubkey
	})

	ranks := make(map[string]int, len(entries))
	for i, e := range entries {
		ranks[e.pubkey] = i + 1
	}
	return ranks
}
