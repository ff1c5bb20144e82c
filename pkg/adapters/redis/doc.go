// Package redis relays workspace notifications to a Redis pub/sub channel, so that
// processes other than the one holding the workspace can follow the graph as it changes.
package redis
