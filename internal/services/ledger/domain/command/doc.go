// Package command defines the command envelope used on the ledger write path.
//
// Commands express caller intent. The registry normalizes them before a
// decider evaluates business rules, so deciders only see trimmed identifiers
// and well-formed payload JSON.
package command
