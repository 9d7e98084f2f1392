// Package httpserver wraps net/http.Server for beacon nodes.
//
// Server adds a listen step that is separate from serving: Listen binds the
// socket and reports the real address (useful with ":0"), so a node can
// publish its own address in the registry before the first request arrives.
// Run serves until the context is cancelled or Shutdown is called and then
// drains connections within the shutdown timeout.
//
//	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"))
//	addr, err := srv.Listen()
//	if err != nil {
//		return err
//	}
//	go srv.Run(ctx, router)
//
// HealthCheckHandler builds liveness and readiness probes from plain
// func(context.Context) error checks.
package httpserver
