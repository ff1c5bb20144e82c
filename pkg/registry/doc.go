// Package registry holds the catalog of operator types and the ports each one exposes.
// Handed to the dispatch service, it rejects operators of unknown types and links that
// join ports an operator does not have.
package registry
