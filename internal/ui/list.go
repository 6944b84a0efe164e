package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/butter/internal/formatter"
	"github.com/desertthunder/butter/internal/models"
)

var _ list.Item = itemRow{}

// itemRow wraps [models.Item] to implement [list.Item].
type itemRow struct {
	item   models.Item
	change string
}

func (i itemRow) FilterValue() string { return i.item.Name }
func (i itemRow) Title() string {
	if i.change != "" {
		return fmt.Sprintf("%s %s", i.change, i.item.Name)
	}
	return i.item.Name
}
func (i itemRow) Description() string {
	parts := []string{formatter.FormatPrice(i.item.Price)}
	if i.item.SKU != "" {
		parts = append(parts, i.item.SKU)
	}
	if i.item.Hidden {
		parts = append(parts, "hidden")
	}
	return strings.Join(parts, " • ")
}

// itemRows builds list rows, marking items added (+) or updated (~) by the latest poll.
func itemRows(items []models.Item, added, updated []models.Item) []list.Item {
	marks := make(map[string]string, len(added)+len(updated))
	for _, it := range added {
		marks[it.ID] = "+"
	}
	for _, it := range updated {
		marks[it.ID] = "~"
	}

	rows := make([]list.Item, len(items))
	for i, it := range items {
		rows[i] = itemRow{item: it, change: marks[it.ID]}
	}
	return rows
}
