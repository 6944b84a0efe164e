// Package ui implements the live inventory dashboard using bubbletea's Elm architecture.
//
// [MonitorModel] starts a [tasks.InventoryMonitor] and renders each poll as a filterable item list.
// Items added or changed since the previous poll are marked + and ~.
//
// Updates flow from the monitor's channel into the model as [Msg] values. Pausing stops the monitor and bumps a
// generation counter so messages from the stopped run are dropped.
//
// Keyboard: j/k to move, / to filter, r to poll now, p to pause or resume, q to quit.
package ui
