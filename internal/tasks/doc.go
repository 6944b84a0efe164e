// Package tasks runs the long-lived client operations: exporting a merchant's data and monitoring its inventory.
//
// # Export
//
// [ExportData] resolves the session's merchant, pages through its items, optionally fetches orders in a time range,
// and writes a [models.Snapshot] as JSON, CSV, Markdown or text with an export_manifest.json beside it.
//
// # Monitor
//
// [InventoryMonitor] polls a merchant's items on an interval with explicit Start and Stop:
//   - at most one poll is in flight; overlapping ticks are skipped, never queued
//   - Stop cancels the in-flight poll and waits for it
//   - an expired token stops the monitor without retry
//
// Each poll publishes a [MonitorUpdate] with the items and the [Changes] since the previous poll.
//
// # Progress Reporting
//
// Progress and monitor updates are delivered on channels with non-blocking sends.
// A slow reader misses updates; it never stalls the operation.
package tasks
