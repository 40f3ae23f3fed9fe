package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/a11yaudit/config"
	"github.com/use-agent/a11yaudit/discovery"
	"github.com/use-agent/a11yaudit/engine"
	"github.com/use-agent/a11yaudit/llm"
	"github.com/use-agent/a11yaudit/metrics"
	"github.com/use-agent/a11yaudit/models"
	"github.com/use-agent/a11yaudit/pipeline"
	"github.com/use-agent/a11yaudit/scraper"
)

const testKey = "test-key"

type stubLoader struct{}

func (stubLoader) Load(context.Context, string) (string, error) { return "window.axe = {};", nil }

type stubPage struct{ result string }

func (p stubPage) InjectScript(context.Context, string) error { return nil }

func (p stubPage) EvalJSON(context.Context, string, ...interface{}) ([]byte, error) {
	return []byte(p.result), nil
}

type stubBrowser struct {
	page   engine.Page
	err    error
	closed *int
}

func (b stubBrowser) Open(context.Context, string) (engine.Page, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.page, nil
}

func (b stubBrowser) Close() error {
	*b.closed++
	return nil
}

type fixture struct {
	router *gin.Engine
	closed int
}

func newFixture(t *testing.T, axeResult string, navErr error, llmURL string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{}
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Browser.MaxConcurrent = 2
	cfg.Server.Mode = gin.TestMode
	cfg.Auth.APIKeys = []string{testKey}
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100}
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.BaseURL = llmURL

	launch := func() (engine.Browser, error) {
		return stubBrowser{page: stubPage{result: axeResult}, err: navErr, closed: &f.closed}, nil
	}

	fetcher := scraper.NewHTTPFetcher("", 5*time.Second)
	m := metrics.New()
	svc := Services{
		Runner:     pipeline.NewRunner(m),
		Axe:        engine.NewAxeEngine(cfg.Axe, launch, stubLoader{}),
		HTMLCS:     engine.NewHTMLCSEngine(cfg.HTMLCS, cfg.Browser, stubLoader{}),
		Discoverer: discovery.New(fetcher, 100),
		Render: func(context.Context, string) (string, error) {
			return `<html><body><main><img src="a.png"></main></body></html>`, nil
		},
		LLM:     llm.NewClient(nil),
		Metrics: m,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.router = NewRouter(ctx, svc, cfg, time.Now())
	return f
}

func (f *fixture) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("X-API-Key", testKey)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "", nil, "")
	rec := f.do(http.MethodGet, "/api/v1/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 0, resp.ActiveAudits)
	assert.Equal(t, 2, resp.MaxAudits)
}

func TestProtectedRoutesRequireKey(t *testing.T) {
	f := newFixture(t, "", nil, "")
	for _, path := range []string{"/api/v1/audit/axe", "/api/v1/audit/htmlcs", "/api/v1/discover", "/api/v1/snapshot", "/api/v1/fix"} {
		rec := f.do(http.MethodPost, path, `{}`, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAuditAxe(t *testing.T) {
	result := `{"violations":[{"id":"image-alt","impact":"critical","help":"Images must have alternate text",` +
		`"helpUrl":"https://dequeuniversity.com/rules/axe/4.10/image-alt",` +
		`"nodes":[{"html":"<img src=\"a.png\">","target":["main > img"],"failureSummary":"Fix any"}]}]}`
	f := newFixture(t, result, nil, "")

	rec := f.do(http.MethodPost, "/api/v1/audit/axe", `{"url":"https://example.com"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.AxeAuditResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Report.Violations, 1)
	assert.Equal(t, "main > img", resp.Report.Violations[0].Selector)
	assert.Equal(t, 1, f.closed)

	metricsRec := f.do(http.MethodGet, "/metrics", "", false)
	assert.Contains(t, metricsRec.Body.String(), `a11yaudit_audits_total{engine="axe",outcome="success"} 1`)
}

func TestAuditAxe_EngineFailure(t *testing.T) {
	navErr := models.NewAuditError(models.ErrCodeAuditEngine, "navigation to https://example.com failed: timed out", nil)
	f := newFixture(t, "", navErr, "")

	rec := f.do(http.MethodPost, "/api/v1/audit/axe", `{"url":"https://example.com"}`, true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"AUDIT_ENGINE_FAILED"`)
	assert.Equal(t, 1, f.closed)
}

func TestAuditAxe_Malformed(t *testing.T) {
	f := newFixture(t, `{"passes":[]}`, nil, "")

	rec := f.do(http.MethodPost, "/api/v1/audit/axe", `{"url":"https://example.com"}`, true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"MALFORMED_RESULT"`)
}

func TestAudit_InvalidInput(t *testing.T) {
	f := newFixture(t, "", nil, "")
	tests := []struct {
		path string
		body string
	}{
		{"/api/v1/audit/axe", `{"url":"not a url"}`},
		{"/api/v1/audit/htmlcs", `{"url":"https://example.com","standard":"Section508"}`},
		{"/api/v1/snapshot", `{"url":"https://example.com","selectors":[]}`},
		{"/api/v1/fix", `{"rule":"image-alt"}`},
		{"/api/v1/discover", `{}`},
	}
	for _, tt := range tests {
		rec := f.do(http.MethodPost, tt.path, tt.body, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.path)
		assert.Contains(t, rec.Body.String(), `"INVALID_INPUT"`, tt.path)
	}
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, "", nil, "")
	rec := f.do(http.MethodPost, "/api/v1/snapshot", `{"url":"https://example.com","selectors":["main > img","nav"]}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, `<img src="a.png"/>`, resp.Elements["main > img"])
	assert.Equal(t, "element not found", resp.Elements["nav"])
}

func TestDiscover(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`<a href="/about">About</a>`))
			return
		}
		http.NotFound(w, r)
	}))
	defer site.Close()

	f := newFixture(t, "", nil, "")
	rec := f.do(http.MethodPost, "/api/v1/discover", `{"url":"`+site.URL+`/"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.DiscoverResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "homepage", resp.Site.Source)
}

func TestFix(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		_, _ = body.ReadFrom(r.Body)
		assert.Contains(t, body.String(), `"model":"gpt-4o"`)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"<img src=\"a.png\" alt=\"Logo\">"}}],"usage":{"total_tokens":10}}`))
	}))
	defer llmSrv.Close()

	f := newFixture(t, "", nil, llmSrv.URL)
	rec := f.do(http.MethodPost, "/api/v1/fix", `{"rule":"image-alt","message":"Images must have alternate text","html":"<img src=\"a.png\">"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.FixResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, `<img src="a.png" alt="Logo">`, resp.FixedHTML)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
}

func TestFix_LLMAuthFailure(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer llmSrv.Close()

	f := newFixture(t, "", nil, llmSrv.URL)
	rec := f.do(http.MethodPost, "/api/v1/fix", `{"rule":"r","html":"<p>"}`, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"LLM_AUTH_FAILURE"`)
}
