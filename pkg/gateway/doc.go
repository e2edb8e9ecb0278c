// Package gateway is the authorization and execution-control point for
// every action the agent proposes against business records.
//
// Invariants:
// - No external-impact tool ever executes without an approved request,
//   regardless of policy configuration.
// - Tool code runs only through the gateway's dispatch path, during
//   auto-execute or after approval, never directly.
// - A disabled tool is a hard error and cannot be queued for approval.
// - Approval requests are terminal once decided or expired.
// - Every terminal outcome is written to the audit trail and event sink.
package gateway
