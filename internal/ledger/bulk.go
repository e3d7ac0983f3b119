package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/store"
	"github.com/erazemk/labstock/internal/tabular"
)

// Column sets for bulk files.
var (
	ItemColumns        = []string{"name", "category", "totalCount", "workingCount", "damagedCount", "lostCount", "labId", "labName"}
	MaintenanceColumns = []string{"date", "itemId", "cost", "type", "vendor", "notes"}
)

// RowError is a rejected input row. Row is the row's line number in the
// source file, counting the header and any blank lines before it.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a best-effort batch. A failing row never aborts
// the rest.
type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors"`
}

func (r *ImportResult) fail(row tabular.Row, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RowError{Row: row.Line, Message: rowMessage(err)})
}

func rowMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden), errors.Is(err, ErrConflict):
		return err.Error()
	}
	slog.Error("import row failed", "error", err)
	return "internal error"
}

// ImportItems upserts items from header-keyed rows. A row matching an
// existing item by lab, name and category updates its counts; other rows
// create new items. Admin only.
func (s *Service) ImportItems(ctx context.Context, actor Actor, rows []tabular.Row) (*ImportResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	res := &ImportResult{Errors: []RowError{}}
	for _, row := range rows {
		created, err := s.importItemRow(ctx, row)
		switch {
		case err != nil:
			res.fail(row, err)
		case created:
			res.Created++
		default:
			res.Updated++
		}
	}

	s.Metrics.ImportRows("items", res.Created, res.Updated, res.Failed)
	slog.Info("items imported", "rows", len(rows), "created", res.Created, "updated", res.Updated, "failed", res.Failed)
	return res, nil
}

func (s *Service) importItemRow(ctx context.Context, row tabular.Row) (bool, error) {
	in := ItemInput{Name: row.Get("name"), Category: row.Get("category")}
	var err error
	if in.TotalCount, err = parseCount(row, "totalCount", true); err != nil {
		return false, err
	}
	if in.WorkingCount, err = parseCount(row, "workingCount", true); err != nil {
		return false, err
	}
	if in.DamagedCount, err = parseCount(row, "damagedCount", false); err != nil {
		return false, err
	}
	if in.LostCount, err = parseCount(row, "lostCount", false); err != nil {
		return false, err
	}

	lab, err := s.resolveLab(ctx, row)
	if err != nil {
		return false, err
	}
	in.LabID = lab.ID

	if err := in.validate(); err != nil {
		return false, err
	}

	var created bool
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := store.FindItem(ctx, tx, in.LabID, in.Name, in.Category)
		if err != nil {
			return err
		}
		if existing == nil {
			created = true
			_, err := store.CreateItem(ctx, tx, in.fields())
			return err
		}
		ok, err := store.UpdateItemCounts(ctx, tx, existing.ID,
			in.TotalCount, in.WorkingCount, in.DamagedCount, in.LostCount, 0)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: item %d was removed during import", ErrConflict, existing.ID)
		}
		return nil
	})
	return created, err
}

func (s *Service) resolveLab(ctx context.Context, row tabular.Row) (*model.Lab, error) {
	if v := row.Get("labId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return nil, invalid("labId", "must be a positive integer")
		}
		lab, err := store.GetLab(ctx, s.DB, id)
		if err != nil {
			return nil, err
		}
		if lab == nil {
			return nil, fmt.Errorf("lab %d %w", id, ErrNotFound)
		}
		return lab, nil
	}
	if name := row.Get("labName"); name != "" {
		lab, err := store.GetLabByName(ctx, s.DB, name)
		if err != nil {
			return nil, err
		}
		if lab == nil {
			return nil, fmt.Errorf("lab %q %w", name, ErrNotFound)
		}
		return lab, nil
	}
	return nil, invalid("labId", "labId or labName is required")
}

func parseCount(row tabular.Row, col string, required bool) (int, error) {
	v := row.Get(col)
	if v == "" {
		if required {
			return 0, invalid(col, "is required")
		}
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid(col, "must be an integer")
	}
	return n, nil
}

// ExportItems returns the items in scope as a table with ItemColumns.
func (s *Service) ExportItems(ctx context.Context, actor Actor, labID int64) (*tabular.Table, error) {
	items, err := s.ListItems(ctx, actor, ItemQuery{LabID: labID})
	if err != nil {
		return nil, err
	}

	t := &tabular.Table{Sheet: "Items", Header: ItemColumns, Rows: make([][]string, 0, len(items))}
	for _, it := range items {
		t.Rows = append(t.Rows, []string{
			it.Name,
			it.Category,
			strconv.Itoa(it.TotalCount),
			strconv.Itoa(it.WorkingCount),
			strconv.Itoa(it.DamagedCount),
			strconv.Itoa(it.LostCount),
			strconv.FormatInt(it.LabID, 10),
			it.LabName,
		})
	}
	return t, nil
}

// ImportMaintenance appends maintenance records from header-keyed rows
// with MaintenanceColumns. The same scope rules as CreateMaintenanceRecord
// apply per row.
func (s *Service) ImportMaintenance(ctx context.Context, actor Actor, rows []tabular.Row) (*ImportResult, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		for _, col := range []string{"date", "itemId", "cost"} {
			if !rows[0].Has(col) {
				return nil, invalid(col, "missing required column")
			}
		}
	}

	res := &ImportResult{Errors: []RowError{}}
	for _, row := range rows {
		if err := s.importMaintenanceRow(ctx, actor, row); err != nil {
			res.fail(row, err)
			continue
		}
		res.Created++
	}

	s.Metrics.ImportRows("maintenance", res.Created, 0, res.Failed)
	slog.Info("maintenance imported", "rows", len(rows), "created", res.Created, "failed", res.Failed)
	return res, nil
}

func (s *Service) importMaintenanceRow(ctx context.Context, actor Actor, row tabular.Row) error {
	itemID, err := strconv.ParseInt(row.Get("itemId"), 10, 64)
	if err != nil {
		return invalid("itemId", "must be an item id")
	}
	cost, err := decimal.NewFromString(row.Get("cost"))
	if err != nil {
		return invalid("cost", "must be a number")
	}

	rec, err := s.buildMaintenance(ctx, actor, MaintenanceInput{
		ItemID: itemID,
		Date:   row.Get("date"),
		Cost:   decimal.NewNullDecimal(cost),
		Type:   row.Get("type"),
		Vendor: row.Get("vendor"),
		Notes:  row.Get("notes"),
	})
	if err != nil {
		return err
	}
	_, err = store.CreateMaintenanceRecord(ctx, s.DB, rec)
	return err
}

// MaintenanceTemplate is an empty import file with the expected header.
func MaintenanceTemplate() *tabular.Table {
	return &tabular.Table{Sheet: "Maintenance", Header: MaintenanceColumns}
}
