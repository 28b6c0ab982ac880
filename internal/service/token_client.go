package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	mathrand "math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rooftop/solar-rewards-go/internal/model"
	"github.com/rooftop/solar-rewards-go/internal/util"
)

// TokenClient moves reward tokens to a recipient. Transfer returns the
// transaction hash on success.
type TokenClient interface {
	Transfer(ctx context.Context, req model.TransferRequest) (string, error)
	Ping(ctx context.Context) error
}

type HTTPTokenClientConfig struct {
	BaseURL  string
	APIKey   string
	Network  string
	Contract string
	Timeout  time.Duration
}

// HTTPTokenClient calls the distribution endpoint that signs and submits
// token transfers.
type HTTPTokenClient struct {
	cfg    HTTPTokenClientConfig
	client *http.Client
}

func NewHTTPTokenClient(cfg HTTPTokenClientConfig) *HTTPTokenClient {
	return &HTTPTokenClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type transferPayload struct {
	model.TransferRequest
	Network  string `json:"network"`
	Contract string `json:"contract,omitempty"`
}

type transferResponse struct {
	TxHash string `json:"txHash"`
}

func (c *HTTPTokenClient) Transfer(ctx context.Context, req model.TransferRequest) (string, error) {
	body, err := json.Marshal(transferPayload{
		TransferRequest: req,
		Network:         c.cfg.Network,
		Contract:        c.cfg.Contract,
	})
	if err != nil {
		return "", fmt.Errorf("marshal transfer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/v1/transfers"), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transfer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transfer failed with status %d", resp.StatusCode)
	}

	var out transferResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode transfer response: %w", err)
	}
	if out.TxHash == "" {
		return "", errors.New("transfer response has no txHash")
	}

	return out.TxHash, nil
}

func (c *HTTPTokenClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/health"), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPTokenClient) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func (c *HTTPTokenClient) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

// SimulatedTokenClient stands in for the distribution endpoint in development.
// Each transfer fails with probability failureRate; successes carry a random
// 0x-prefixed hash.
type SimulatedTokenClient struct {
	failureRate float64

	mu      sync.Mutex
	rng     *mathrand.Rand
	entropy io.Reader
}

func NewSimulatedTokenClient(failureRate float64) *SimulatedTokenClient {
	seed := time.Now().UnixNano()
	return NewSimulatedTokenClientWithSource(failureRate, mathrand.NewPCG(uint64(seed), uint64(seed>>1)), rand.Reader)
}

// NewSimulatedTokenClientWithSource makes outcomes and hashes reproducible.
func NewSimulatedTokenClientWithSource(failureRate float64, src mathrand.Source, entropy io.Reader) *SimulatedTokenClient {
	return &SimulatedTokenClient{
		failureRate: failureRate,
		rng:         mathrand.New(src),
		entropy:     entropy,
	}
}

func (c *SimulatedTokenClient) Transfer(ctx context.Context, req model.TransferRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rng.Float64() < c.failureRate {
		return "", errors.New("simulated transfer failure")
	}

	hash, err := util.GenerateTxHash(c.entropy)
	if err != nil {
		return "", fmt.Errorf("generate tx hash: %w", err)
	}

	log.Debug().
		Str("recipient", req.Recipient).
		Str("amount", req.Amount.String()).
		Str("txHash", hash).
		Msg("simulated reward transfer")

	return hash, nil
}

func (c *SimulatedTokenClient) Ping(ctx context.Context) error {
	return ctx.Err()
}
