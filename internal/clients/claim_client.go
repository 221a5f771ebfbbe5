package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hyperlane-registration/internal/dto"
	"hyperlane-registration/internal/metrics"
	"hyperlane-registration/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	DefaultClaimBaseURL = "https://claim.hyperlane.foundation"

	OpCheckEligibility   = "check_eligibility"
	OpGetRegistration    = "get_registration"
	OpSubmitRegistration = "save_registration"

	registrationFoundMessage = "Success"
)

// browserHeaders mimic the claim site frontend
var browserHeaders = map[string]string{
	"Accept":             "*/*",
	"Accept-Language":    "en-US,en;q=0.9,ru;q=0.8",
	"Referer":            "https://claim.hyperlane.foundation/",
	"Sec-Ch-Ua":          `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"Windows"`,
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-origin",
	"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

// ClaimClientOptions per-account client settings
type ClaimClientOptions struct {
	BaseURL string
	Proxy   string // host:port, user:pass@host:port or a full URL; empty for none
	Timeout time.Duration
}

// ClaimClient Hyperlane claim service client, one per account
type ClaimClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	metrics    *metrics.Metrics
}

// NewClaimClient creates a client routed through opts.Proxy when set
func NewClaimClient(opts ClaimClientOptions, logger *logrus.Logger, m *metrics.Metrics) (*ClaimClient, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultClaimBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	proxyURL, err := ParseProxyURL(opts.Proxy)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &ClaimClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger:  logger,
		metrics: m,
	}, nil
}

// ParseProxyURL accepts a bare host:port (http assumed) or a full proxy URL
func ParseProxyURL(proxy string) (*url.URL, error) {
	proxy = strings.TrimSpace(proxy)
	if proxy == "" {
		return nil, nil
	}
	if !strings.Contains(proxy, "://") {
		proxy = "http://" + proxy
	}

	u, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q: missing host", u.Redacted())
	}
	return u, nil
}

// CheckEligibility queries whether address may claim and how much
func (c *ClaimClient) CheckEligibility(ctx context.Context, address string) (*models.EligibilityResult, error) {
	var resp dto.EligibilityResponse
	status, err := c.doJSON(ctx, OpCheckEligibility, http.MethodGet, "/api/check-eligibility", addressQuery(address), nil, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Response == nil || resp.Response.IsEligible == nil {
		return nil, &models.ProtocolError{Op: OpCheckEligibility, Status: status, Err: errors.New("missing response.isEligible")}
	}
	if !*resp.Response.IsEligible {
		return &models.EligibilityResult{IsEligible: false}, nil
	}

	if len(resp.Response.Eligibilities) == 0 || resp.Response.Eligibilities[0].Amount == nil {
		return nil, &models.ProtocolError{Op: OpCheckEligibility, Status: status, Err: errors.New("missing response.eligibilities[0].amount")}
	}

	return &models.EligibilityResult{
		IsEligible: true,
		Amount:     *resp.Response.Eligibilities[0].Amount,
	}, nil
}

// GetRegistration reports whether address already has a registration
func (c *ClaimClient) GetRegistration(ctx context.Context, address string) (*models.RegistrationStatus, error) {
	var resp dto.RegistrationLookupResponse
	status, err := c.doJSON(ctx, OpGetRegistration, http.MethodGet, "/api/get-registration-for-address", addressQuery(address), nil, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Message == nil {
		return nil, &models.ProtocolError{Op: OpGetRegistration, Status: status, Err: errors.New("missing message")}
	}

	return &models.RegistrationStatus{AlreadyRegistered: *resp.Message == registrationFoundMessage}, nil
}

// SubmitRegistration posts signed claims
func (c *ClaimClient) SubmitRegistration(ctx context.Context, wallets []dto.RegistrationWallet) (*models.SubmissionResult, error) {
	var resp dto.SaveRegistrationResponse
	body := dto.SaveRegistrationRequest{Wallets: wallets}
	status, err := c.doJSON(ctx, OpSubmitRegistration, http.MethodPost, "/api/save-registration", nil, body, &resp)
	if err != nil {
		return nil, err
	}

	if resp.ValidationResult == nil || resp.ValidationResult.Success == nil {
		return nil, &models.ProtocolError{Op: OpSubmitRegistration, Status: status, Err: errors.New("missing validationResult.success")}
	}

	return &models.SubmissionResult{Success: *resp.ValidationResult.Success}, nil
}

// doJSON performs one round trip and decodes the JSON body into out.
// The body is decoded whatever the status code; required fields are checked by the caller.
func (c *ClaimClient) doJSON(ctx context.Context, op, method, path string, query url.Values, body interface{}, out interface{}) (int, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, &models.ProtocolError{Op: op, Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return 0, &models.TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(op, "error", time.Since(start))
		return 0, &models.TransportError{Op: op, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(op, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return resp.StatusCode, &models.TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"op":     op,
			"status": resp.StatusCode,
			"took":   time.Since(start).String(),
		}).Debug("claim api round trip")
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, &models.ProtocolError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("failed to parse response: %w (body: %s)", err, truncate(respBody, 200)),
		}
	}

	return resp.StatusCode, nil
}

func addressQuery(address string) url.Values {
	params := url.Values{}
	params.Add("address", address)
	return params
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
