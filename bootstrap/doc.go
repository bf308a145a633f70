// Package bootstrap runs a draftkit service: typed configuration, component
// registration, lifecycle hooks and graceful shutdown on OS signals.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.RegisterComponent(backend)
//	app.RegisterComponent(server.NewComponent(srv))
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Components start in registration order and stop in reverse order.
package bootstrap
