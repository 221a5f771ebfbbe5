package app

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"hyperlane-registration/internal/config"
	"hyperlane-registration/internal/models"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// claimBackend answers eligible and unregistered for every address
func claimBackend(t *testing.T, submissions *int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/check-eligibility", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":{"isEligible":true,"eligibilities":[{"amount":"42.5"}]}}`)
	})
	mux.HandleFunc("/api/get-registration-for-address", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"Not found"}`)
	})
	mux.HandleFunc("/api/save-registration", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(submissions, 1)
		_, _ = io.WriteString(w, `{"validationResult":{"success":true}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Claim.BaseURL = baseURL
	cfg.Claim.Timeout = 5
	cfg.Run.Concurrency = 2
	cfg.Run.RetryDelay = 0
	return cfg
}

func newSources(t *testing.T, n int) []models.AccountSource {
	sources := make([]models.AccountSource, n)
	for i := range sources {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		sources[i] = models.AccountSource{SecretKey: "0x" + hex.EncodeToString(crypto.FromECDSA(key))}
	}
	return sources
}

func TestRunRegistersEveryAccount(t *testing.T) {
	var submissions int32
	backend := claimBackend(t, &submissions)

	logger, hook := test.NewNullLogger()
	a, err := New(testConfig(backend.URL), logger)
	require.NoError(t, err)
	defer a.Close()

	results := a.Run(context.Background(), newSources(t, 3))

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i+1, r.SequenceID)
		assert.Equal(t, models.OutcomeRegisteredSuccess, r.Outcome)
		assert.Equal(t, "42.5", r.Amount)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&submissions))

	done, total := a.Progress()
	assert.Equal(t, 3, done)
	assert.Equal(t, 3, total)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.metrics.AccountOutcomes.WithLabelValues("registered_success")))

	var banners []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.InfoLevel {
			banners = append(banners, e.Message)
		}
	}
	assert.Contains(t, banners, "Total wallets: 3")
	assert.Contains(t, banners, "The work completed")
	assert.Equal(t, 3, hook.LastEntry().Data["registered_success"])
}

func TestRunIsolatesBadAccount(t *testing.T) {
	var submissions int32
	backend := claimBackend(t, &submissions)

	logger, _ := test.NewNullLogger()
	a, err := New(testConfig(backend.URL), logger)
	require.NoError(t, err)
	defer a.Close()

	sources := newSources(t, 2)
	sources[0].Proxy = "http://[::1"

	results := a.Run(context.Background(), sources)
	require.Len(t, results, 2)
	assert.Equal(t, models.OutcomeWorkerError, results[0].Outcome)
	assert.Equal(t, models.OutcomeRegisteredSuccess, results[1].Outcome)
}

func TestStatusServer(t *testing.T) {
	var submissions int32
	backend := claimBackend(t, &submissions)

	cfg := testConfig(backend.URL)
	cfg.Metrics.Addr = "127.0.0.1:0"

	logger, _ := test.NewNullLogger()
	a, err := New(cfg, logger)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.status)

	a.Run(context.Background(), newSources(t, 1))

	resp, err := http.Get("http://" + a.status.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, a.RunID(), body["run_id"])
	assert.Equal(t, float64(1), body["done"])

	mresp, err := http.Get("http://" + a.status.Addr() + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	raw, _ := io.ReadAll(mresp.Body)
	assert.Contains(t, string(raw), "registered_success")
}
