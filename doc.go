// Package flowgate provides an embeddable approval workflow engine.
//
// Workflows are declared as versioned templates of approval, notification
// and condition steps, and executed as instances pinned to the template
// version that was active at creation. Every transition is appended to an
// audit log that replays deterministically to the instance state.
//
// End-users typically interact with the engine via the high-level Service
// façade exposed by the root package:
//
//	srv := flowgate.New(flowgate.WithIdentityProvider(directory))
//	rt := srv.Runtime()
//	tmpl, _ := rt.CreateTemplate(ctx, "expense approval", steps)
//	instance, _ := rt.CreateInstance(ctx, tmpl.ID, "expense-1", "dave", nil)
//
// For more details see the README and individual sub-packages.
package flowgate
