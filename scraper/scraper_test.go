package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/a11yaudit/models"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"deadline", context.DeadlineExceeded, "navigation failed: timed out"},
		{"canceled", context.Canceled, "navigation failed: canceled"},
		{"other", errors.New("net::ERR_NAME_NOT_RESOLVED"), "navigation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := categorizeError(tt.err, "navigation failed")
			assert.Equal(t, models.ErrCodeAuditEngine, ae.Code)
			assert.Equal(t, tt.wantMsg, ae.Message)
			assert.ErrorIs(t, ae, tt.err)
		})
	}
}

func TestToHeadersMap(t *testing.T) {
	m := toHeadersMap(map[string]string{"Authorization": "Bearer x", "X-Env": "staging"})
	require.Len(t, m, 2)
	assert.Equal(t, "Bearer x", m["Authorization"].Str())
	assert.Equal(t, "staging", m["X-Env"].Str())
}

func TestExceptionText(t *testing.T) {
	withDesc := &proto.RuntimeExceptionDetails{
		Text:      "Uncaught",
		Exception: &proto.RuntimeRemoteObject{Description: "ReferenceError: axe is not defined"},
	}
	assert.Equal(t, "ReferenceError: axe is not defined", exceptionText(withDesc))
	assert.Equal(t, "Uncaught", exceptionText(&proto.RuntimeExceptionDetails{Text: "Uncaught"}))
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/axe.min.js":
			assert.Contains(t, r.Header.Get("User-Agent"), "Chrome/")
			_, _ = w.Write([]byte("window.axe = {};"))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher("", 2*time.Second)
	defer f.CloseIdleConnections()

	body, err := f.Fetch(context.Background(), srv.URL+"/axe.min.js")
	require.NoError(t, err)
	assert.Equal(t, "window.axe = {};", string(body))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.True(t, strings.HasSuffix(se.URL, "/missing"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, srv.URL+"/slow")
	assert.Error(t, err)
}

func TestNewHTTPFetcher_IgnoresUnsupportedProxy(t *testing.T) {
	f := NewHTTPFetcher("socks5://127.0.0.1:1080", time.Second)
	tr, ok := f.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, tr.Proxy)

	f = NewHTTPFetcher("http://127.0.0.1:3128", time.Second)
	tr = f.client.Transport.(*http.Transport)
	assert.NotNil(t, tr.Proxy)
}
