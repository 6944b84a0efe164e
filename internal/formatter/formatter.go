// package formatter renders inventory snapshots as CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/shared"
)

// FormatPrice renders an amount in minor currency units as a decimal string, e.g. 1299 -> "12.99".
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParsePrice parses a decimal amount such as "12.99", "12.5" or "12" into minor currency units.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && !hasFrac {
		return 0, fmt.Errorf("%w: empty price", shared.ErrInvalidArgument)
	}
	if len(frac) > 2 || (hasFrac && frac == "") {
		return 0, fmt.Errorf("%w: price %q must have at most two decimal places", shared.ErrInvalidArgument, s)
	}

	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseUint(whole, 10, 62)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q: %v", shared.ErrInvalidArgument, s, err)
	}

	var cents uint64
	if frac != "" {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseUint(frac, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: price %q: %v", shared.ErrInvalidArgument, s, err)
		}
	}
	return int64(units*100 + cents), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ItemsToCSV converts items to CSV with columns: ID, Name, SKU, Price, Hidden, Modified
func ItemsToCSV(items []models.Item) ([]byte, error) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Name,
			item.SKU,
			FormatPrice(item.Price),
			strconv.FormatBool(item.Hidden),
			formatTime(item.Modified()),
		})
	}
	return writeCSV([]string{"ID", "Name", "SKU", "Price", "Hidden", "Modified"}, rows)
}

// OrdersToCSV converts orders to CSV with columns: ID, Created, State, Currency, Total
func OrdersToCSV(orders []models.Order) ([]byte, error) {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			o.ID,
			formatTime(o.Created()),
			o.State,
			o.Currency,
			FormatPrice(o.Total),
		})
	}
	return writeCSV([]string{"ID", "Created", "State", "Currency", "Total"}, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SnapshotToMarkdown converts a Snapshot to a Markdown report with item and order tables
func SnapshotToMarkdown(s *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	name := s.Merchant.Name
	if name == "" {
		name = s.Merchant.ID
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", name))
	buf.WriteString(fmt.Sprintf("**Merchant ID**: %s\n", s.Merchant.ID))
	buf.WriteString(fmt.Sprintf("**Exported**: %s\n", formatTime(s.ExportedAt)))
	buf.WriteString(fmt.Sprintf("**Items**: %d\n", len(s.Items)))
	buf.WriteString(fmt.Sprintf("**Orders**: %d\n\n", len(s.Orders)))

	buf.WriteString("## Items\n\n")
	buf.WriteString("| Name | SKU | Price |\n|---|---|---:|\n")
	for _, item := range s.Items {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s |\n", escapeCell(item.Name), escapeCell(item.SKU), FormatPrice(item.Price)))
	}

	if len(s.Orders) > 0 {
		buf.WriteString("\n## Orders\n\n")
		buf.WriteString("| ID | Created | State | Total |\n|---|---|---|---:|\n")
		for _, o := range s.Orders {
			buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", o.ID, formatTime(o.Created()), o.State, FormatPrice(o.Total)))
		}
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// SnapshotToText converts a Snapshot to plain text format
func SnapshotToText(s *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Merchant: %s (%s)\n", s.Merchant.Name, s.Merchant.ID))
	buf.WriteString(fmt.Sprintf("Items: %d\n\n", len(s.Items)))

	for i, item := range s.Items {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, item.Name, FormatPrice(item.Price)))
	}

	if len(s.Orders) > 0 {
		buf.WriteString(fmt.Sprintf("\nOrders: %d\n\n", len(s.Orders)))
		for i, o := range s.Orders {
			buf.WriteString(fmt.Sprintf("%d. %s %s %s\n", i+1, o.ID, o.State, FormatPrice(o.Total)))
		}
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of the merchant (without items or orders)
func ToMetadataJSON(m models.Merchant) ([]byte, error) {
	return shared.MarshalJSON(m, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ItemsFile    string
	OrdersFile   string
	MetadataFile string
}

// WriteCSVExport exports a snapshot to CSV files with an accompanying metadata JSON file.
//
// Defaults to the merchant ID as the base filename & creates {base}_items.csv, {base}_orders.csv (when there are
// orders) and {base}_metadata.json
func WriteCSVExport(s *models.Snapshot, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = s.Merchant.ID
	}

	result := &CSVExportResult{}

	itemsCSV, err := ItemsToCSV(s.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}
	result.ItemsFile = baseFilepath + "_items.csv"
	if err := os.WriteFile(result.ItemsFile, itemsCSV, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	if len(s.Orders) > 0 {
		ordersCSV, err := OrdersToCSV(s.Orders)
		if err != nil {
			return nil, fmt.Errorf("failed to generate CSV: %w", err)
		}
		result.OrdersFile = baseFilepath + "_orders.csv"
		if err := os.WriteFile(result.OrdersFile, ordersCSV, 0644); err != nil {
			return nil, fmt.Errorf("failed to write CSV file: %w", err)
		}
	}

	metadataJSON, err := ToMetadataJSON(s.Merchant)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}
	result.MetadataFile = baseFilepath + "_metadata.json"
	if err := os.WriteFile(result.MetadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return result, nil
}

// Files lists every file written.
func (r *CSVExportResult) Files() []string {
	files := []string{r.ItemsFile}
	if r.OrdersFile != "" {
		files = append(files, r.OrdersFile)
	}
	return append(files, r.MetadataFile)
}

// WriteMarkdownExport writes {outputDir}/README.md. The directory defaults to the merchant ID.
func WriteMarkdownExport(s *models.Snapshot, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = s.Merchant.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := SnapshotToMarkdown(s)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport exports a snapshot to plain text format.
//
// Defaults to {merchant.ID}_inventory.txt as the filename.
func WriteTextExport(s *models.Snapshot, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_inventory.txt", s.Merchant.ID)
	}

	textData, err := SnapshotToText(s)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
