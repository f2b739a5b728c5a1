package metadata

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/gear6io/metastore/server/config"
	"github.com/rs/zerolog"
)

// Opener builds a backend from configuration. It runs once at startup.
type Opener func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Backend, error)

var (
	openersMu sync.RWMutex
	openers   = make(map[string]Opener)
)

// Register makes a store implementation available under name. It panics
// on duplicate registration.
func Register(name string, opener Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	if opener == nil {
		panic("metadata: Register opener is nil")
	}
	if _, dup := openers[name]; dup {
		panic("metadata: Register called twice for store " + name)
	}
	openers[name] = opener
}

// Registered lists the registered implementation identifiers.
func Registered() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	names := make([]string, 0, len(openers))
	for name := range openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open resolves the configured implementation identifier and opens its
// backend. Unknown identifiers fail immediately.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Backend, error) {
	openersMu.RLock()
	opener, ok := openers[cfg.Store.Impl]
	openersMu.RUnlock()
	if !ok {
		return nil, errors.New(MetadataUnknownStore, "metadata store implementation not found", nil).
			AddContext("impl", cfg.Store.Impl).
			AddContext("registered", strings.Join(Registered(), ","))
	}

	backend, err := opener(ctx, cfg, logger)
	if err != nil {
		return nil, errors.New(MetadataOpenFailed, "failed to open metadata store", err).AddContext("impl", cfg.Store.Impl)
	}
	logger.Info().Str("impl", cfg.Store.Impl).Msg("Opened metadata store")
	return backend, nil
}
