// Package synchronizer keeps the logical graph and its diagram consistent.
//
// A Synchronizer is the only holder of the privileged ports.GraphStore. It listens to
// actions from the dispatch service and turns them into diagram commands, and it
// listens to diagram events (whether caused by those commands or by user gestures) and
// turns them into validated store mutations followed by domain notifications.
//
// Everything runs synchronously on the caller's goroutine: by the time a dispatch call
// or a gesture returns, the store, the diagram and every notification subscriber have
// all seen the change.
package synchronizer
