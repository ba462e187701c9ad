// Package domain translates MCP tool calls into dice daemon requests.
//
// Each tool pairs an *mcp.Tool definition with a typed handler. Handlers
// call the daemon through DiceClient and flatten the overlay resolution into
// a result MCP clients can render.
package domain
