// Package swapapi is the HTTP client for the external swap service that
// prices pools and compiles swap transactions. Pricing math and
// instruction layout live on the service side; this client only shuttles
// parameters and decodes results into the pipeline's types.
package swapapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Deskrado/warpSOL/internal/amm"
	"github.com/Deskrado/warpSOL/internal/market"
	"github.com/Deskrado/warpSOL/internal/solana"
)

const defaultTimeout = 10 * time.Second

// Client implements amm.Quoter and amm.TxBuilder against the swap
// service's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type quoteRequest struct {
	PoolID     string  `json:"poolId"`
	OutputMint string  `json:"outputMint"`
	AmountIn   string  `json:"amountIn"`
	Slippage   float64 `json:"slippage"`
}

type quoteResponse struct {
	AmountOut    string `json:"amountOut"`
	MinAmountOut string `json:"minAmountOut"`
}

// Quote implements amm.Quoter.
func (c *Client) Quote(ctx context.Context, keys market.PoolKeys, amountIn decimal.Decimal, outMint string, slippage float64) (amm.Quote, error) {
	var resp quoteResponse
	err := c.post(ctx, "/v1/quote", quoteRequest{
		PoolID:     keys.PoolID,
		OutputMint: outMint,
		AmountIn:   amountIn.String(),
		Slippage:   slippage,
	}, &resp)
	if err != nil {
		return amm.Quote{}, err
	}

	out, err := decimal.NewFromString(resp.AmountOut)
	if err != nil {
		return amm.Quote{}, fmt.Errorf("parse amountOut %q: %w", resp.AmountOut, err)
	}
	minOut, err := decimal.NewFromString(resp.MinAmountOut)
	if err != nil {
		return amm.Quote{}, fmt.Errorf("parse minAmountOut %q: %w", resp.MinAmountOut, err)
	}
	return amm.Quote{AmountOut: out, MinAmountOut: minOut}, nil
}

type poolInfoResponse struct {
	BaseReserve  string `json:"baseReserve"`
	QuoteReserve string `json:"quoteReserve"`
	Status       uint64 `json:"status"`
}

// FetchPoolInfo implements amm.Quoter.
func (c *Client) FetchPoolInfo(ctx context.Context, keys market.PoolKeys) (amm.PoolInfo, error) {
	var resp poolInfoResponse
	if err := c.get(ctx, "/v1/pool/"+keys.PoolID, &resp); err != nil {
		return amm.PoolInfo{}, err
	}

	base, err := decimal.NewFromString(resp.BaseReserve)
	if err != nil {
		return amm.PoolInfo{}, fmt.Errorf("parse baseReserve %q: %w", resp.BaseReserve, err)
	}
	quote, err := decimal.NewFromString(resp.QuoteReserve)
	if err != nil {
		return amm.PoolInfo{}, fmt.Errorf("parse quoteReserve %q: %w", resp.QuoteReserve, err)
	}
	return amm.PoolInfo{BaseReserve: base, QuoteReserve: quote, Status: resp.Status}, nil
}

type swapRequest struct {
	PoolID             string `json:"poolId"`
	Owner              string `json:"owner"`
	TokenAccount       string `json:"tokenAccount,omitempty"`
	Direction          string `json:"direction"`
	AmountIn           string `json:"amountIn"`
	MinAmountOut       string `json:"minAmountOut"`
	RecentBlockhash    string `json:"recentBlockhash"`
	ComputeUnitLimit   uint32 `json:"computeUnitLimit,omitempty"`
	PriorityFee        uint64 `json:"priorityFeeMicroLamports,omitempty"`
	CreateTokenAccount bool   `json:"createTokenAccount,omitempty"`
	CloseTokenAccount  bool   `json:"closeTokenAccount,omitempty"`
}

type swapResponse struct {
	Message string `json:"message"` // base64 compiled transaction message
}

// BuildSwap implements amm.TxBuilder. The returned transaction is
// unsigned; the wallet signs it before submission.
func (c *Client) BuildSwap(ctx context.Context, params amm.SwapParams) (*solana.Transaction, error) {
	direction := "buy"
	if params.Direction == amm.DirectionSell {
		direction = "sell"
	}

	req := swapRequest{
		PoolID:             params.Keys.PoolID,
		Owner:              params.Owner,
		TokenAccount:       params.TokenAccount,
		Direction:          direction,
		AmountIn:           params.AmountIn.String(),
		MinAmountOut:       params.MinAmountOut.String(),
		RecentBlockhash:    params.RecentBlockhash,
		CreateTokenAccount: params.CreateTokenAccount,
		CloseTokenAccount:  params.CloseTokenAccount,
	}
	// Nil priority fee means the submission channel handles priority
	// itself and the message must carry no compute-budget instructions.
	if params.PriorityFee != nil {
		req.ComputeUnitLimit = params.PriorityFee.ComputeUnitLimit
		req.PriorityFee = params.PriorityFee.MicroLamports
	}

	var resp swapResponse
	if err := c.post(ctx, "/v1/swap", req, &resp); err != nil {
		return nil, err
	}

	message, err := base64.StdEncoding.DecodeString(resp.Message)
	if err != nil {
		return nil, fmt.Errorf("decode swap message: %w", err)
	}
	return &solana.Transaction{Message: message}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("swap api %s: status %d: %s", req.URL.Path, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
