// Package service wires protocol transport to domain handlers.
//
// It knows how to run MCP over stdio or streamable HTTP and delegates the
// dice semantics to the domain package, which forwards to the dice daemon.
package service
