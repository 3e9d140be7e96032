// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package driver selects the store backend at startup
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/relabs-tech/folio/core/config"
	"github.com/relabs-tech/folio/core/csql"
	"github.com/relabs-tech/folio/core/logger"
	"github.com/relabs-tech/folio/core/store"
	"github.com/relabs-tech/folio/core/store/memory"
	"github.com/relabs-tech/folio/core/store/postgres"
	"github.com/relabs-tech/folio/core/store/supabase"
)

// ConnectTimeout bounds connecting to and migrating the configured backend
var ConnectTimeout = 10 * time.Second

// Selection is the store chosen at startup
type Selection struct {
	Store store.Store
	// Degraded is true when the configured backend was unreachable and the
	// seeded memory store is used instead
	Degraded bool
	// Configured is the driver name from the configuration
	Configured string
}

// Open opens the store configured in service. If the backend cannot be reached
// the seeded memory store is returned with Degraded set. The choice holds for
// the lifetime of the process.
func Open(ctx context.Context, service *config.Service) (*Selection, error) {
	rlog := logger.FromContext(ctx)
	selection := &Selection{Configured: service.StoreDriver}

	if service.StoreDriver == config.StoreMemory {
		selection.Store = memory.NewSeeded()
		return selection, nil
	}

	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	s, err := open(ctx, service)
	if err != nil {
		rlog.WithError(err).Warnf("store driver %s unavailable, continuing with volatile in-memory data", service.StoreDriver)
		selection.Store = memory.NewSeeded()
		selection.Degraded = true
		return selection, nil
	}
	if service.Seed {
		if err := store.Seed(ctx, s); err != nil {
			s.Close()
			return nil, fmt.Errorf("cannot seed store: %w", err)
		}
	}
	selection.Store = s
	return selection, nil
}

func open(ctx context.Context, service *config.Service) (store.Store, error) {
	switch service.StoreDriver {
	case config.StorePostgres:
		db, err := csql.Open(ctx, service.DSN(), service.DBSchema)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return postgres.New(db), nil
	case config.StoreSupabase:
		client, err := supabase.NewClient(supabase.Config{URL: service.SupabaseURL, APIKey: service.SupabaseKey})
		if err != nil {
			return nil, err
		}
		s := supabase.New(client)
		if err := s.Ping(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", service.StoreDriver)
}
