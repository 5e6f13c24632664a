package models

import "encoding/json"

// RPCRequest is a JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int    `json:"id"`
}

// RPCResponse is a JSON-RPC 2.0 response envelope. Error is either a plain
// string or an object depending on the seed implementation, so it is kept raw
// until inspected.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// ErrorText renders the raw error field as a human-readable string.
func (r *RPCResponse) ErrorText() string {
	if len(r.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Error, &s); err == nil {
		return s
	}
	return string(r.Error)
}

// PodsResult is the result payload of the pods query.
type PodsResult struct {
	Pods       []RawPod `json:"pods"`
	TotalCount int      `json:"total_count"`
}
