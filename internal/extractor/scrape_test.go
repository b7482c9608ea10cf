package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPageScannerScan(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		switch r.URL.Path {
		case "/alice":
			fmt.Fprint(w, `<html><body>
				<a href="mailto:Alice@Example.com?subject=hi">email me</a>
				<p>press: press@example.org</p>
				<img src="logo@2x.png">
				<p>support@substack.com is not mine</p>
			</body></html>`)
		case "/bob":
			fmt.Fprint(w, `<html><body>nothing to see</body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	scanner := NewPageScanner("TestAgent", 5*time.Second, time.Millisecond, zap.NewNop())
	refs := []ProfileRef{
		{Username: "alice", URL: srv.URL + "/alice"},
		{Username: "bob", URL: srv.URL + "/bob"},
		{Username: "missing", URL: srv.URL + "/missing"},
	}

	found := scanner.Scan(context.Background(), refs, 0)
	require.Equal(t, map[string][]string{
		"alice": {"alice@example.com", "press@example.org"},
	}, found)
	require.Equal(t, int32(3), hits.Load())
}

func TestPageScannerHonorsLimit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		fmt.Fprint(w, `<html><body>ok</body></html>`)
	}))
	defer srv.Close()

	scanner := NewPageScanner("TestAgent", 5*time.Second, 0, zap.NewNop())
	refs := []ProfileRef{
		{Username: "a", URL: srv.URL + "/a"},
		{Username: "b", URL: srv.URL + "/b"},
		{Username: "c", URL: srv.URL + "/c"},
	}

	scanner.Scan(context.Background(), refs, 2)
	require.Equal(t, int32(2), hits.Load())
}

func TestPageScannerCancelledContext(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewPageScanner("TestAgent", 5*time.Second, 0, zap.NewNop())
	found := scanner.Scan(ctx, []ProfileRef{{Username: "a", URL: srv.URL}}, 0)
	require.Empty(t, found)
	require.Equal(t, int32(0), hits.Load())
}
