// Package lib provides a Go SDK for tracking opwatch operations programmatically.
//
// This package allows applications to register operations, push their coded log
// events and follow their stage timelines without shelling out to the opwatch CLI
// binary. It is useful for job executors that report progress and for tools that
// display it.
//
// # Quick Start
//
// Create a client, register an operation and report its progress:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	op, err := client.CreateOperation(ctx, "video")
//	client.PushEvent(ctx, op.ID, "cv_input_received", nil)
//	client.PushEvent(ctx, op.ID, "cv_render_error", &lib.PushEventOpts{Message: "codec not supported"})
//
//	status, _ := client.GetStatus(ctx, op.ID)
//	fmt.Println(status.Timeline.Status, status.Timeline.Headline)
//
// # Watching
//
// Follow an operation until it completes or fails. The callback receives every
// timeline change and the call blocks until the operation has finished, the context
// is cancelled or the event feed gives up:
//
//	tl, err := client.Watch(ctx, op.ID, func(tl lib.Timeline) {
//	    fmt.Printf("%s: %s\n", tl.Status, tl.Headline)
//	})
//
// # Timeline Definitions
//
// Operation types are described by timeline definitions: the ordered stages with
// their success and error codes, and the global error codes. The built-in "video"
// definition is always available, more can be loaded with [Config].DefinitionsFS
// from YAML or TOML files.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Operation or definition does not exist.
//   - [ErrAlreadyExists]: Resource with the same ID already exists.
//   - [ErrNotValid]: Invalid input.
//   - [ErrFeedInterrupted]: The event feed could not reconnect while watching.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines. The underlying
// storage uses SQLite with WAL mode, and every watch owns its own subscription.
package lib
