package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<p>hi</p>"))
	}))
	defer srv.Close()

	body, ct, err := NewClient(time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(body))
	assert.Equal(t, "text/html", ct)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, _, err := (&Client{}).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewClient(time.Second).Fetch(ctx, srv.URL)
	require.Error(t, err)
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://a.test/css/x.css", ResolveURL("https://a.test/page/index.html", "/css/x.css"))
	assert.Equal(t, "https://a.test/page/x.css", ResolveURL("https://a.test/page/index.html", "x.css"))
	assert.Equal(t, "http://b.test/y", ResolveURL("https://a.test/", "http://b.test/y"))
}

func TestIsNetworkURL(t *testing.T) {
	assert.True(t, IsNetworkURL("https://a.test"))
	assert.True(t, IsNetworkURL("http://a.test"))
	assert.False(t, IsNetworkURL("file:///tmp/x"))
	assert.False(t, IsNetworkURL("page.html"))
}
