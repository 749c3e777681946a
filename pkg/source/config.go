package source

import (
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/stromtarif/stromtarif/pkg/common"
)

// Configured sets up flags for the upstream API and returns the client.
func Configured() *Client {
	c := New("", nil)
	baseURL := lflag.String("source-base-url", "http://localhost:3000", "Base URL of the price and profile API")
	timeout := lflag.Duration("source-timeout", 30*time.Second, "Timeout for a single upstream request")
	cacheTTL := lflag.Duration("source-cache-ttl", DefaultCacheTTL, "How long a loaded dataset is reused")

	lflag.Do(func() {
		c.baseURL = *baseURL
		c.client = common.HTTPClient(*timeout)
		c.cacheTTL = *cacheTTL
	})
	return c
}
