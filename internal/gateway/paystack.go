package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"memberly/pkg/utils"
)

const defaultBaseURL = "https://api.paystack.co"

// Gateway is the narrow surface the billing core needs from the payment
// provider. Initialize/Verify serve the checkout path; ChargeAuthorization is
// the scheduler's off-session renewal path.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*ChargeResult, error)
	ChargeAuthorization(ctx context.Context, req ChargeAuthorizationRequest) (*ChargeResult, error)
	VerifyWebhookSignature(payload []byte, signatureHeader string) bool
	ProviderName() string
}

type Config struct {
	SecretKey   string
	BaseURL     string // override for sandbox/tests
	CallbackURL string
	Provider    string // stored on Payment.Provider
	Timeout     time.Duration
}

type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type ChargeAuthorizationRequest struct {
	AuthorizationCode string
	Email             string
	AmountMinor       int64
	Currency          string
	Reference         string
	Metadata          map[string]any
}

// ChargeResult is the normalized outcome of a verify or charge call.
// Authorization fields are only populated on success.
type ChargeResult struct {
	Status            string // "success", "failed", "abandoned", "pending"
	Reference         string
	AmountMinor       int64
	Currency          string
	GatewayResponse   string
	AuthorizationCode string
	CardType          string
	Last4             string
	Bank              string
	Reusable          bool
	Raw               json.RawMessage
}

func (r *ChargeResult) Succeeded() bool { return r.Status == "success" }

// Definitive reports whether the outcome is final. A "pending" or "abandoned"
// charge can still complete, so it must not be reconciled yet.
func (r *ChargeResult) Definitive() bool {
	return r.Status == "success" || r.Status == "failed"
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("missing gateway secret key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Provider == "" {
		cfg.Provider = "paystack"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) ProviderName() string { return c.cfg.Provider }

// envelope is the provider's uniform response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type transactionData struct {
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
	Authorization   struct {
		AuthorizationCode string `json:"authorization_code"`
		CardType          string `json:"card_type"`
		Last4             string `json:"last4"`
		Bank              string `json:"bank"`
		Reusable          bool   `json:"reusable"`
	} `json:"authorization"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
}

func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if req.Email == "" || req.Reference == "" {
		return nil, fmt.Errorf("%w: email and reference are required", utils.ErrValidation)
	}
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", utils.ErrValidation)
	}

	callback := req.CallbackURL
	if callback == "" {
		callback = c.cfg.CallbackURL
	}
	body := map[string]any{
		"email":        req.Email,
		"amount":       req.AmountMinor,
		"reference":    req.Reference,
		"callback_url": callback,
	}
	if req.Currency != "" {
		body["currency"] = req.Currency
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	data, err := c.post(ctx, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decode initialize response: %v", utils.ErrGateway, err)
	}
	return &InitializeResult{
		AuthorizationURL: out.AuthorizationURL,
		AccessCode:       out.AccessCode,
		Reference:        out.Reference,
	}, nil
}

// Verify polls the provider for the definitive outcome of a transaction. Safe
// to call repeatedly for the same reference.
func (c *Client) Verify(ctx context.Context, reference string) (*ChargeResult, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", utils.ErrValidation)
	}

	data, err := c.get(ctx, "/transaction/verify/"+url.PathEscape(reference))
	if err != nil {
		return nil, err
	}
	return decodeChargeResult(data)
}

func (c *Client) ChargeAuthorization(ctx context.Context, req ChargeAuthorizationRequest) (*ChargeResult, error) {
	if req.AuthorizationCode == "" {
		return nil, fmt.Errorf("%w: authorization code is required", utils.ErrValidation)
	}
	if req.Email == "" || req.Reference == "" {
		return nil, fmt.Errorf("%w: email and reference are required", utils.ErrValidation)
	}
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", utils.ErrValidation)
	}

	body := map[string]any{
		"authorization_code": req.AuthorizationCode,
		"email":              req.Email,
		"amount":             req.AmountMinor,
		"reference":          req.Reference,
	}
	if req.Currency != "" {
		body["currency"] = req.Currency
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	data, err := c.post(ctx, "/transaction/charge_authorization", body)
	if err != nil {
		return nil, err
	}
	return decodeChargeResult(data)
}

func decodeChargeResult(data json.RawMessage) (*ChargeResult, error) {
	var txn transactionData
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("%w: decode transaction: %v", utils.ErrGateway, err)
	}
	return &ChargeResult{
		Status:            txn.Status,
		Reference:         txn.Reference,
		AmountMinor:       txn.Amount,
		Currency:          txn.Currency,
		GatewayResponse:   txn.GatewayResponse,
		AuthorizationCode: txn.Authorization.AuthorizationCode,
		CardType:          txn.Authorization.CardType,
		Last4:             txn.Authorization.Last4,
		Bank:              txn.Authorization.Bank,
		Reusable:          txn.Authorization.Reusable,
		Raw:               data,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", utils.ErrGateway, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: provider returned %d: %s", utils.ErrGateway, resp.StatusCode, truncate(raw, 200))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		return nil, fmt.Errorf("%w: %s", utils.ErrGateway, env.Message)
	}
	return env.Data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
