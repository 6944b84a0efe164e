package formatter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/shared"
	th "github.com/desertthunder/butter/internal/testing"
)

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Merchant: models.Merchant{ID: "M1", Name: "Corner Cafe"},
		Items: []models.Item{
			{ID: "I1", Name: "Latte", SKU: "LAT-01", Price: 450, ModifiedTime: 1700000000000},
			{ID: "I2", Name: "Pie | Slice", Price: 1299, Hidden: true},
		},
		Orders: []models.Order{
			{ID: "O1", Currency: "USD", Total: 1749, State: "locked", CreatedTime: 1700000000000},
		},
		ExportedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{450, "4.50"},
		{1299, "12.99"},
		{-250, "-2.50"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.cents); got != tt.want {
			t.Errorf("FormatPrice(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestExporters(t *testing.T) {
	t.Run("ItemsToCSV", func(t *testing.T) {
		data, err := ItemsToCSV(testSnapshot().Items)
		if err != nil {
			t.Fatalf("ItemsToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Name,SKU,Price,Hidden,Modified\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "I1,Latte,LAT-01,4.50,false,2023-11-14T22:13:20Z") {
			t.Errorf("CSV missing first item row, got: %s", output)
		}
		if !strings.Contains(output, "I2,Pie | Slice,,12.99,true,") {
			t.Errorf("CSV missing second item row, got: %s", output)
		}
	})

	t.Run("OrdersToCSV", func(t *testing.T) {
		data, err := OrdersToCSV(testSnapshot().Orders)
		if err != nil {
			t.Fatalf("OrdersToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Created,State,Currency,Total") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "O1,2023-11-14T22:13:20Z,locked,USD,17.49") {
			t.Errorf("CSV missing order row, got: %s", output)
		}
	})

	t.Run("SnapshotToMarkdown", func(t *testing.T) {
		data, err := SnapshotToMarkdown(testSnapshot())
		if err != nil {
			t.Fatalf("SnapshotToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Corner Cafe") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Items**: 2") {
			t.Errorf("Markdown missing item count")
		}
		if !strings.Contains(output, `| Pie \| Slice |  | 12.99 |`) {
			t.Errorf("Markdown did not escape pipe, got: %s", output)
		}
		if !strings.Contains(output, "## Orders") {
			t.Errorf("Markdown missing orders section")
		}
	})

	t.Run("SnapshotToMarkdown without orders", func(t *testing.T) {
		s := testSnapshot()
		s.Orders = nil
		s.Merchant.Name = ""

		data, _ := SnapshotToMarkdown(s)
		output := string(data)
		if strings.Contains(output, "## Orders") {
			t.Errorf("Markdown should omit empty orders section")
		}
		if !strings.Contains(output, "# M1") {
			t.Errorf("Markdown should fall back to merchant id, got: %s", output)
		}
	})

	t.Run("SnapshotToText", func(t *testing.T) {
		data, err := SnapshotToText(testSnapshot())
		if err != nil {
			t.Fatalf("SnapshotToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Merchant: Corner Cafe (M1)") {
			t.Errorf("Text missing merchant header")
		}
		if !strings.Contains(output, "1. Latte - 4.50") {
			t.Errorf("Text missing item line, got: %s", output)
		}
		if !strings.Contains(output, "1. O1 locked 17.49") {
			t.Errorf("Text missing order line, got: %s", output)
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(testSnapshot().Merchant)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}
		output := string(data)
		if !strings.Contains(output, `"id": "M1"`) {
			t.Errorf("metadata missing id, got: %s", output)
		}
		if strings.Contains(output, "Latte") {
			t.Errorf("metadata should not include items")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "cafe")

		result, err := WriteCSVExport(testSnapshot(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		for _, f := range result.Files() {
			th.AssertFileExists(t, f)
		}
		if len(result.Files()) != 3 {
			t.Errorf("expected 3 files, got %v", result.Files())
		}
		if !strings.Contains(th.MustReadFile(t, result.ItemsFile), "Latte") {
			t.Errorf("items file missing content")
		}
	})

	t.Run("WriteCSVExport without orders", func(t *testing.T) {
		s := testSnapshot()
		s.Orders = nil
		base := filepath.Join(t.TempDir(), "cafe")

		result, err := WriteCSVExport(s, base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}
		if result.OrdersFile != "" {
			t.Errorf("expected no orders file, got %s", result.OrdersFile)
		}
		if _, err := os.Stat(base + "_orders.csv"); !os.IsNotExist(err) {
			t.Errorf("orders file should not exist")
		}
	})

	t.Run("WriteCSVExport defaults to merchant id", func(t *testing.T) {
		wd := th.MustGetwd(t)
		th.MustChdir(t, t.TempDir())
		t.Cleanup(func() { th.MustChdir(t, wd) })

		result, err := WriteCSVExport(testSnapshot(), "")
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}
		if result.ItemsFile != "M1_items.csv" {
			t.Errorf("expected M1_items.csv, got %s", result.ItemsFile)
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "report")

		path, err := WriteMarkdownExport(testSnapshot(), dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if path != filepath.Join(dir, "README.md") {
			t.Errorf("unexpected path %s", path)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "inventory.txt")

		got, err := WriteTextExport(testSnapshot(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if !strings.Contains(th.MustReadFile(t, path), "Latte") {
			t.Errorf("text export missing item")
		}
	})

	t.Run("WriteTextExport to missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "inventory.txt")
		if _, err := WriteTextExport(testSnapshot(), path); err == nil {
			t.Error("expected error writing to missing directory")
		}
	})
}

func TestParsePrice(t *testing.T) {
	valid := map[string]int64{
		"12.99":  1299,
		"12.5":   1250,
		"12":     1200,
		"$4.50":  450,
		".75":    75,
		" 0.05 ": 5,
	}
	for in, want := range valid {
		got, err := ParsePrice(in)
		if err != nil {
			t.Errorf("ParsePrice(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePrice(%q) = %d, want %d", in, got, want)
		}
	}

	for _, in := range []string{"", "abc", "1.999", "12.", "-3", "1.-5"} {
		if _, err := ParsePrice(in); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("ParsePrice(%q) expected ErrInvalidArgument, got %v", in, err)
		}
	}
}
