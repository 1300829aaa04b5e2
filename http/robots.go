package http

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/qagen"
)

// Ensure RobotsChecker implements qagen.RobotsChecker at compile time.
var _ qagen.RobotsChecker = (*RobotsChecker)(nil)

// RobotsChecker fetches and caches robots.txt rules per host.
// Only the wildcard user-agent group is consulted. Hosts without a
// readable robots.txt permit everything, matching common scraper
// convention.
type RobotsChecker struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]*robotsRules
}

// NewRobotsChecker creates a new RobotsChecker with the given HTTP
// client. If client is nil, http.DefaultClient is used.
func NewRobotsChecker(client *http.Client) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsChecker{
		client: client,
		cache:  make(map[string]*robotsRules),
	}
}

// Allowed returns true if robots.txt permits fetching the URL.
func (c *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}

	rules := c.rulesForHost(ctx, u)
	if rules == nil {
		return true
	}
	return rules.allowed(u.EscapedPath())
}

// rulesForHost returns cached rules for the URL's host, fetching
// robots.txt on first use. Returns nil when no rules apply.
func (c *RobotsChecker) rulesForHost(ctx context.Context, u *url.URL) *robotsRules {
	c.mu.Lock()
	rules, ok := c.cache[u.Host]
	c.mu.Unlock()
	if ok {
		return rules
	}

	rules = c.fetchRules(ctx, u)

	c.mu.Lock()
	c.cache[u.Host] = rules
	c.mu.Unlock()
	return rules
}

func (c *RobotsChecker) fetchRules(ctx context.Context, u *url.URL) *robotsRules {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	return parseRobots(resp.Body)
}

// robotsRules holds Allow/Disallow path prefixes for the wildcard
// user-agent group.
type robotsRules struct {
	allow    []string
	disallow []string
}

// allowed applies longest-prefix-match semantics: the most specific
// matching rule wins, and an Allow beats a Disallow of equal length.
func (r *robotsRules) allowed(path string) bool {
	if path == "" {
		path = "/"
	}

	bestLen := -1
	result := true
	for _, p := range r.disallow {
		if p != "" && strings.HasPrefix(path, p) && len(p) > bestLen {
			bestLen = len(p)
			result = false
		}
	}
	for _, p := range r.allow {
		if p != "" && strings.HasPrefix(path, p) && len(p) >= bestLen {
			bestLen = len(p)
			result = true
		}
	}
	return result
}

// parseRobots extracts the wildcard user-agent group from robots.txt.
func parseRobots(body io.Reader) *robotsRules {
	rules := &robotsRules{}
	inWildcard := false
	sawAgentLine := false

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			// Consecutive User-agent lines share one group; a directive
			// line ends the current group header.
			if sawAgentLine && inWildcard && value != "*" {
				continue
			}
			if !sawAgentLine {
				inWildcard = value == "*"
			} else if value == "*" {
				inWildcard = true
			}
			sawAgentLine = true
		case "disallow":
			if inWildcard {
				rules.disallow = append(rules.disallow, value)
			}
			sawAgentLine = false
		case "allow":
			if inWildcard {
				rules.allow = append(rules.allow, value)
			}
			sawAgentLine = false
		default:
			sawAgentLine = false
		}
	}

	if len(rules.allow) == 0 && len(rules.disallow) == 0 {
		return nil
	}
	return rules
}
