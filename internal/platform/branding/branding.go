// Package branding holds the product name shown to users and MCP clients.
package branding

// AppName is the user-facing product name.
const AppName = "Bloodroll"
