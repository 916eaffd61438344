// Package domain translates MCP tool calls into ledger RPCs.
//
// Each handler parses tool input, calls the ledger gRPC client with a bounded
// timeout, and returns a structured result MCP clients can render. Ledger
// errors are rendered with their domain code and localized message.
package domain
