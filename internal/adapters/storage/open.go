// Package storage picks the SessionStore implementation named by config.
package storage

import (
	"context"
	"fmt"

	"github.com/PabloGalante/chatpro/internal/adapters/storage/firestore"
	"github.com/PabloGalante/chatpro/internal/adapters/storage/memory"
	"github.com/PabloGalante/chatpro/internal/adapters/storage/mongo"
	"github.com/PabloGalante/chatpro/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/chatpro/internal/config"
	"github.com/PabloGalante/chatpro/internal/domain"
)

func Open(ctx context.Context, cfg config.StorageConfig) (domain.SessionStore, error) {
	var (
		store domain.SessionStore
		err   error
	)

	// Assign through typed locals so a failed constructor never yields a
	// non-nil interface holding a nil pointer.
	switch cfg.Backend {
	case config.StorageMemory, "":
		store = memory.NewSessionStore()
	case config.StorageFirestore:
		var s *firestore.Store
		if s, err = firestore.NewStore(ctx, cfg.Firestore.ProjectID, cfg.Firestore.Collection); err == nil {
			store = s
		}
	case config.StorageMongo:
		var s *mongo.Store
		if s, err = mongo.NewStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection); err == nil {
			store = s
		}
	case config.StorageSQLite:
		var s *sqlite.Store
		if s, err = sqlite.NewStore(cfg.SQLite.Path); err == nil {
			store = s
		}
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if err != nil {
		return nil, err
	}
	return store, nil
}
