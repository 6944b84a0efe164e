package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/butter/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchMerchant Phase = iota
	FetchItems
	FetchOrders
	WriteFiles
)

func (p Phase) String() string {
	switch p {
	case FetchMerchant:
		return "fetch_merchant"
	case FetchItems:
		return "fetch_items"
	case FetchOrders:
		return "fetch_orders"
	case WriteFiles:
		return "write_files"
	default:
		return ""
	}
}

// sendProgress sends a progress update to the channel if it's not nil.
//
// Uses select with default so progress reporting never blocks the operation.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchMerchantUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMerchant,
		Step:    step,
		Total:   total,
		Message: "Fetching merchant...",
	}
}

func foundMerchantUpdate(step, total int, m *models.Merchant) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMerchant,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found merchant: %s (ID: %s)", m.Name, m.ID),
		Data:    m,
	}
}

func fetchItemsUpdate(step, total, fetched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching items (%d so far)...", fetched),
	}
}

func fetchOrdersUpdate(step, total, fetched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchOrders,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching orders (%d so far)...", fetched),
	}
}

func writeFilesUpdate(step, total int, format string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Writing %s export...", format),
	}
}

func exportCompletedUpdate(step, total, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ Export complete (%d files)", filesCount),
	}
}

// MonitorUpdate is published after every completed poll of an [InventoryMonitor].
type MonitorUpdate struct {
	Seq       int           // Poll sequence number, starting at 1
	Items     []models.Item // Items returned by the poll; nil on error
	Changes   Changes       // Differences from the previous successful poll
	FetchedAt time.Time
	Duration  time.Duration
	Err       error // Poll error; [shared.ErrTokenExpired] also stops the monitor
	Stopped   bool  // Set on the final update when the monitor stopped itself
}

// Changes lists the items added, removed and updated between two polls.
type Changes struct {
	Added   []models.Item
	Removed []models.Item
	Updated []models.Item
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Updated) == 0
}

func (c Changes) String() string {
	return fmt.Sprintf("+%d -%d ~%d", len(c.Added), len(c.Removed), len(c.Updated))
}
