// Package database provides a GORM draft backend with connection pooling,
// connection retries, health checks and auto-migration.
//
// Drafts are rows of the draft_entries table (see DraftEntry). The component
// opens SQLite by default; other drivers are plugged in with WithDriver:
//
//	comp := database.NewComponent(cfg, log).
//	    WithDriver(func(dsn string) gorm.Dialector {
//	        return postgres.Open(dsn)
//	    })
//	if err := comp.Start(ctx); err != nil { ... }
//	backend := comp.Store()
package database
