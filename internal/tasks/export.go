package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/desertthunder/butter/internal/formatter"
	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/services"
	"github.com/desertthunder/butter/internal/shared"
)

// ExportFormats lists the formats accepted by [ExportData].
var ExportFormats = []string{"json", "csv", "markdown", "txt"}

// ExportOpts contains configuration for a merchant data export.
type ExportOpts struct {
	Format    string    // Export format: json, csv, markdown, txt (default: json)
	OutputDir string    // Output directory (default: clover_export_{epoch})
	PageSize  int       // Items requested per page (default: 100)
	Orders    bool      // Include orders
	From      time.Time // Earliest order creation time, zero for unbounded
	To        time.Time // Latest order creation time, zero for unbounded
}

// ExportResult summarizes a completed export.
type ExportResult struct {
	Snapshot        *models.Snapshot
	OutputDirectory string
	Files           []string
	ManifestFile    string
}

type exportManifest struct {
	MerchantID string    `json:"merchant_id"`
	Format     string    `json:"format"`
	ExportedAt time.Time `json:"exported_at"`
	ItemCount  int       `json:"item_count"`
	OrderCount int       `json:"order_count"`
	Files      []string  `json:"files"`
}

// ExportData fetches the session's merchant with all of its items, and optionally its orders, then writes them to
// OutputDir in the requested format alongside an export_manifest.json.
//
// Items are fetched page by page until a short page is returned.
func ExportData(
	ctx context.Context,
	srv services.Service,
	sess models.Session,
	opts ExportOpts,
	prog chan<- ProgressUpdate,
) (*ExportResult, error) {
	if srv == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Format == "" {
		opts.Format = "json"
	}
	if !slices.Contains(ExportFormats, opts.Format) {
		return nil, fmt.Errorf("%w: unsupported format %q (want one of %v)", shared.ErrInvalidArgument, opts.Format, ExportFormats)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("clover_export_%d", time.Now().Unix())
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}

	total := 3
	if opts.Orders {
		total = 4
	}

	sendProgress(prog, fetchMerchantUpdate(1, total))
	sess, err := srv.ResolveMerchant(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve merchant: %w", err)
	}
	merchant, err := srv.Merchant(ctx, sess, sess.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch merchant: %w", err)
	}
	sendProgress(prog, foundMerchantUpdate(1, total, merchant))

	items, err := fetchAllItems(ctx, srv, sess, opts.PageSize, func(fetched int) {
		sendProgress(prog, fetchItemsUpdate(2, total, fetched))
	})
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{
		Merchant:   *merchant,
		Items:      items,
		ExportedAt: time.Now().UTC(),
	}

	if opts.Orders {
		orders, err := fetchAllOrders(ctx, srv, sess, opts, func(fetched int) {
			sendProgress(prog, fetchOrdersUpdate(3, total, fetched))
		})
		if err != nil {
			return nil, err
		}
		snapshot.Orders = orders
	}

	sendProgress(prog, writeFilesUpdate(total, total, opts.Format))
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files, err := writeSnapshot(snapshot, opts)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		Snapshot:        snapshot,
		OutputDirectory: opts.OutputDir,
		Files:           files,
		ManifestFile:    filepath.Join(opts.OutputDir, "export_manifest.json"),
	}

	manifest := exportManifest{
		MerchantID: merchant.ID,
		Format:     opts.Format,
		ExportedAt: snapshot.ExportedAt,
		ItemCount:  len(snapshot.Items),
		OrderCount: len(snapshot.Orders),
		Files:      files,
	}
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(result.ManifestFile, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	sendProgress(prog, exportCompletedUpdate(total, total, len(files)+1))
	return result, nil
}

func fetchAllItems(ctx context.Context, srv services.Service, sess models.Session, pageSize int, onPage func(int)) ([]models.Item, error) {
	var items []models.Item
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := srv.Items(ctx, sess, services.ItemQuery{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch items at offset %d: %w", offset, err)
		}
		items = append(items, page...)
		onPage(len(items))

		if len(page) < pageSize {
			return items, nil
		}
	}
}

func fetchAllOrders(ctx context.Context, srv services.Service, sess models.Session, opts ExportOpts, onPage func(int)) ([]models.Order, error) {
	var orders []models.Order
	for offset := 0; ; offset += opts.PageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := services.OrderQuery{From: opts.From, To: opts.To, Limit: opts.PageSize, Offset: offset}
		page, err := srv.Orders(ctx, sess, q)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch orders at offset %d: %w", offset, err)
		}
		orders = append(orders, page...)
		onPage(len(orders))

		if len(page) < opts.PageSize {
			return orders, nil
		}
	}
}

func writeSnapshot(s *models.Snapshot, opts ExportOpts) ([]string, error) {
	base := filepath.Join(opts.OutputDir, s.Merchant.ID)

	switch opts.Format {
	case "csv":
		res, err := formatter.WriteCSVExport(s, base)
		if err != nil {
			return nil, err
		}
		return res.Files(), nil
	case "markdown":
		path, err := formatter.WriteMarkdownExport(s, opts.OutputDir)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	case "txt":
		path, err := formatter.WriteTextExport(s, base+"_inventory.txt")
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		data, err := shared.MarshalJSON(s, true)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		path := base + ".json"
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write JSON file: %w", err)
		}
		return []string{path}, nil
	}
}
