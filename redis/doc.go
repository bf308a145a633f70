// Package redis provides a Redis draft backend built on go-redis with
// draftkit logging, retries and component lifecycle support.
//
// KVStore implements kv.Store. Keys are namespaced with Config.KeyPrefix and
// listed with SCAN, so many draftd instances can share one Redis database:
//
//	comp := redis.NewComponent(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	if err := comp.Start(ctx); err != nil { ... }
//	store, _ := draft.New(comp.Store(), "wizard", initial, draft.Options[Wizard]{})
package redis
