// Package chain talks to the ledger's external collaborators over HTTP: the
// fungible-token gateway and the reward-system contract.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"tycoon_ledger/internal/domain"
)

// Client is a token gateway API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the gateway at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// APIError is a non-2xx gateway response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.Status, e.Body)
}

type balanceResponse struct {
	Balance domain.Amount `json:"balance"`
}

// Balance returns owner's balance of token.
func (c *Client) Balance(ctx context.Context, token, owner domain.Address) (domain.Amount, error) {
	var out balanceResponse
	path := fmt.Sprintf("/tokens/%s/balances/%s", url.PathEscape(token.String()), url.PathEscape(owner.String()))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return domain.Amount{}, errors.Wrapf(err, "balance of %s in %s", owner, token)
	}
	return out.Balance, nil
}

type transferRequest struct {
	From   domain.Address `json:"from"`
	To     domain.Address `json:"to"`
	Amount domain.Amount  `json:"amount"`
}

type transferResponse struct {
	TxHash string `json:"tx_hash"`
}

// Transfer moves amount of token from one address to another.
func (c *Client) Transfer(ctx context.Context, token, from, to domain.Address, amount domain.Amount) error {
	var out transferResponse
	path := fmt.Sprintf("/tokens/%s/transfers", url.PathEscape(token.String()))
	body := transferRequest{From: from, To: to, Amount: amount}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return errors.Wrapf(err, "transfer %s of %s to %s", amount, token, to)
	}
	return nil
}

type invokeRequest struct {
	Function string        `json:"function"`
	Args     []interface{} `json:"args"`
}

type mintVoucherResponse struct {
	Result domain.Amount `json:"result"`
}

// MintVoucher invokes mint_voucher(recipient, amount) on the reward system
// and returns the voucher id it reports.
func (c *Client) MintVoucher(ctx context.Context, rewardSystem, recipient domain.Address, amount domain.Amount) (domain.Amount, error) {
	var out mintVoucherResponse
	path := fmt.Sprintf("/contracts/%s/invoke", url.PathEscape(rewardSystem.String()))
	body := invokeRequest{
		Function: MintVoucherFunction,
		Args:     []interface{}{recipient, amount},
	}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return domain.Amount{}, errors.Wrapf(err, "%s on %s", MintVoucherFunction, rewardSystem)
	}
	return out.Result, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
