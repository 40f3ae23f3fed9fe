//go:build integration

package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/a11yaudit/config"
)

func TestRodRenderer(t *testing.T) {
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no Chromium found")
	}

	// The button only exists after scripts run.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><main id="main"></main><script>
document.getElementById('main').innerHTML = '<button class="cta">Go</button>';
</script></body></html>`))
	}))
	defer srv.Close()

	render := RodRenderer(config.BrowserConfig{
		Headless:          true,
		NoSandbox:         true,
		BrowserBin:        bin,
		NavigationTimeout: 30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	out, err := Take(ctx, render, srv.URL, []string{"#main .cta", "#missing"})
	require.NoError(t, err)
	assert.Equal(t, `<button class="cta">Go</button>`, out["#main .cta"])
	assert.Equal(t, NotFound, out["#missing"])
}
