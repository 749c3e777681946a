package registry

import (
	"fmt"

	"github.com/levenlabs/go-lflag"
)

// Configured sets up flags for the appliance catalog and returns the session
// store.
func Configured() *Sessions {
	s := NewSessions(Catalog{}, DefaultSessionTTL)
	catalogFile := lflag.String("catalog-file", "", "Appliance catalog file (.yaml, .toml or .json) replacing the built-in catalog")
	ttl := lflag.Duration("session-ttl", DefaultSessionTTL, "How long an idle device session is kept")

	lflag.Do(func() {
		var (
			c   Catalog
			err error
		)
		if *catalogFile != "" {
			c, err = LoadCatalog(*catalogFile)
		} else {
			c, err = DefaultCatalog()
		}
		if err != nil {
			panic(fmt.Errorf("failed to load appliance catalog: %w", err))
		}
		s.catalog = c
		s.ttl = *ttl
	})
	return s
}
