package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	qagenhttp "github.com/fwojciec/qagen/http"
	"github.com/stretchr/testify/assert"
)

func robotsServer(t *testing.T, robotsTxt string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(robotsTxt))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRobotsChecker_Allowed(t *testing.T) {
	t.Parallel()

	t.Run("disallow blocks matching paths", func(t *testing.T) {
		t.Parallel()

		server := robotsServer(t, "User-agent: *\nDisallow: /private/\n")
		checker := qagenhttp.NewRobotsChecker(nil)

		ctx := context.Background()
		assert.False(t, checker.Allowed(ctx, server.URL+"/private/secrets"))
		assert.True(t, checker.Allowed(ctx, server.URL+"/docs/intro"))
	})

	t.Run("allow overrides broader disallow", func(t *testing.T) {
		t.Parallel()

		server := robotsServer(t, "User-agent: *\nDisallow: /docs/\nAllow: /docs/public/\n")
		checker := qagenhttp.NewRobotsChecker(nil)

		ctx := context.Background()
		assert.True(t, checker.Allowed(ctx, server.URL+"/docs/public/guide"))
		assert.False(t, checker.Allowed(ctx, server.URL+"/docs/internal"))
	})

	t.Run("other agent groups are ignored", func(t *testing.T) {
		t.Parallel()

		server := robotsServer(t, "User-agent: badbot\nDisallow: /\n\nUser-agent: *\nDisallow: /admin/\n")
		checker := qagenhttp.NewRobotsChecker(nil)

		ctx := context.Background()
		assert.True(t, checker.Allowed(ctx, server.URL+"/docs/intro"))
		assert.False(t, checker.Allowed(ctx, server.URL+"/admin/panel"))
	})

	t.Run("missing robots.txt permits everything", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		checker := qagenhttp.NewRobotsChecker(nil)
		assert.True(t, checker.Allowed(context.Background(), server.URL+"/anything"))
	})

	t.Run("results are cached per host", func(t *testing.T) {
		t.Parallel()

		hits := 0
		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
			hits++
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /x/\n"))
		})
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		checker := qagenhttp.NewRobotsChecker(nil)
		ctx := context.Background()
		checker.Allowed(ctx, server.URL+"/a")
		checker.Allowed(ctx, server.URL+"/b")
		checker.Allowed(ctx, server.URL+"/x/c")

		assert.Equal(t, 1, hits)
	})
}
