// Package seeds queries the redundant seed RPC endpoints that answer
// telemetry on behalf of the pod network. The Client issues single calls;
// failover across seeds belongs to the Coordinator.
package seeds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/abulimen/pnode-watch/internal/models"
)

// PodsMethod is the RPC method that returns the pod list with per-pod stats.
const PodsMethod = "get-pods-with-stats"

// Client speaks JSON-RPC 2.0 over HTTP POST to one seed at a time. The
// per-request timeout is fixed at construction; callers wanting different
// interactive and batch deadlines hold two clients.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Query issues one RPC call to one seed. Any failure mode comes back as a
// *SourceError carrying the seed identifier; nothing panics or leaks raw
// transport errors past this boundary. No retries here.
func (c *Client) Query(ctx context.Context, source, method string) (*models.PodsResult, error) {
	reqBody := models.RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		ID:      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &SourceError{Source: source, Cause: fmt.Errorf("marshal request: %w", err)}
	}

	url := source
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &SourceError{Source: source, Cause: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &SourceError{Source: source, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceError{Source: source, Cause: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	var rpcResp models.RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &SourceError{Source: source, Cause: fmt.Errorf("decode response: %w", err)}
	}

	if len(rpcResp.Error) > 0 {
		return nil, &SourceError{Source: source, Cause: fmt.Errorf("rpc error: %s", rpcResp.ErrorText())}
	}

	var result models.PodsResult
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, &SourceError{Source: source, Cause: fmt.Errorf("unmarshal result: %w", err)}
	}

	return &result, nil
}
