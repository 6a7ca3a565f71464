package docconv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/auditkraft/requex/internal/chunk"
	"github.com/auditkraft/requex/internal/layout"
)

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// ConvertRequest is one document handed to the conversion service. Content
// travels base64-encoded inside the JSON-RPC params.
type ConvertRequest struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// ConvertResult is the conversion output for one document: the ordered block
// tree and the plain page texts. Block ids are local to this result; callers
// merging several results re-index them through the layout package.
type ConvertResult struct {
	Blocks []layout.RawBlock `json:"blocks"`
	Pages  []chunk.Page      `json:"pages"`
}

// Client is the interface to the document conversion service.
type Client interface {
	// Convert turns a source document into blocks and page texts.
	Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error)

	// Health checks whether the service is reachable and ready.
	Health(ctx context.Context) error
}

// HTTPClient implements the Client interface using HTTP/JSON-RPC.
type HTTPClient struct {
	endpoint  string
	http      *http.Client
	requestID atomic.Int64
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// NewHTTPClient creates a client for the conversion service at endpoint.
// The default timeout is generous: converting a large scanned PDF is slow.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert sends one document via the document/convert JSON-RPC method.
func (c *HTTPClient) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	var result ConvertResult
	if err := c.call(ctx, methodConvert, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health pings the service via the service/health JSON-RPC method.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.call(ctx, methodHealth, struct{}{}, nil)
}

// nextID returns a monotonically increasing request ID for JSON-RPC calls.
func (c *HTTPClient) nextID() int64 {
	return c.requestID.Add(1)
}

// call performs a JSON-RPC 2.0 call over HTTP POST.
func (c *HTTPClient) call(ctx context.Context, method string, params any, result any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("docconv: marshal params: %w", err)
	}

	rpcReq := jsonrpcRequest{
		JSONRPC: jsonrpcVersion,
		ID:      c.nextID(),
		Method:  method,
		Params:  paramsJSON,
	}

	body, err := json.Marshal(rpcReq)
	if err != nil {
		return fmt.Errorf("docconv: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("docconv: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("docconv: %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("docconv: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("docconv: %s: HTTP %d: %s", method, resp.StatusCode, string(respBody))
	}

	var rpcResp jsonrpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("docconv: decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Method:  method,
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("docconv: decode result: %w", err)
		}
	}

	return nil
}

// RPCError represents a JSON-RPC error reported by the conversion service.
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("docconv: %s: rpc error %d: %s (data: %s)", e.Method, e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("docconv: %s: rpc error %d: %s", e.Method, e.Code, e.Message)
}
