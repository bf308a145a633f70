package main

import (
	"github.com/kbukum/draftkit/component"
	"github.com/kbukum/draftkit/database"
	"github.com/kbukum/draftkit/kv"
	"github.com/kbukum/draftkit/logger"
	"github.com/kbukum/draftkit/redis"
	"github.com/kbukum/draftkit/storage"
	"github.com/kbukum/draftkit/util"

	_ "github.com/kbukum/draftkit/storage/local"
	_ "github.com/kbukum/draftkit/storage/s3"
)

// backend is the draft medium draftd serves from. Its store resolves once
// the owning component has started.
type backend struct {
	store kv.Store
	// components to register ahead of the HTTP server, may be empty
	components []component.Component
	// objects is set when object storage is configured, for uploads
	objects *storage.Component
}

func newBackend(cfg *Config, log *logger.Logger) *backend {
	b := &backend{}

	if cfg.Storage.Enabled {
		b.objects = storage.NewComponent(cfg.Storage, cfg.providerConfig(), log)
		b.components = append(b.components, b.objects)
	}

	switch cfg.Backend {
	case BackendRedis:
		c := redis.NewComponent(cfg.Redis, log)
		b.components = append(b.components, c)
		b.store = kv.NewDeferred("redis", c.Store)
	case BackendDatabase:
		c := database.NewComponent(cfg.Database, log)
		b.components = append(b.components, c)
		b.store = kv.NewDeferred("database", c.Store)
	case BackendLocal, BackendS3:
		b.store = kv.NewDeferred("storage", b.objects.Store)
	default:
		b.store = kv.NewMemoryStoreWithQuota(int(util.ParseSize(cfg.MemoryQuota, 0)))
	}
	return b
}
