/*
Package sqlite provides a SQLite-backed implementation of ledger.TxStore.

KEY TABLES:
  daily_production_reports: one row per natural key
  container_types, container_sizes: dimension tables
  master_order_status: singleton at id 1
  historical_opening_balance: write-once singleton at id 1
  dispatch_entries: shipment log
  production_entries: shift batches and their container status

INDEXES:
  - idx_reports_natural_key (UNIQUE): enforces one row per
    (date, operation_name, container_type_id, container_size_id)
  - idx_reports_date: range queries (hot path)
  - idx_reports_operation: per-operation series
  - idx_dispatch_date: dispatch range queries
  - idx_entries_type_status: production entry filters

UPSERT:
  INSERT ... ON CONFLICT(natural key) DO UPDATE ... RETURNING id. The
  conflict target keeps the existing id, so re-submitting a key never
  allocates a new row.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's single writer.
  Every write is a single statement or runs inside one SQL transaction, so
  readers never observe a partially applied row.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the writer.

USAGE:
  store, err := sqlite.New("./data/production.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  l := ledger.New(store)
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/production-ledger/ledger"
)

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	const op = "store.sqlite.New"

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}
	// An in-memory database lives and dies with its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS container_types (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS container_sizes (
		id INTEGER PRIMARY KEY,
		size TEXT NOT NULL,
		length_ft INTEGER NOT NULL DEFAULT 0,
		width_ft INTEGER NOT NULL DEFAULT 0,
		height_ft REAL NOT NULL DEFAULT 0,
		is_high_cube BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS daily_production_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		operation_name TEXT NOT NULL,
		container_type_id INTEGER NOT NULL REFERENCES container_types(id),
		container_size_id INTEGER NOT NULL REFERENCES container_sizes(id),
		today_production INTEGER NOT NULL,
		total_completed INTEGER NOT NULL,
		dispatched INTEGER NOT NULL,
		in_hand INTEGER NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_reports_natural_key
		ON daily_production_reports(date, operation_name, container_type_id, container_size_id);
	CREATE INDEX IF NOT EXISTS idx_reports_date
		ON daily_production_reports(date);
	CREATE INDEX IF NOT EXISTS idx_reports_operation
		ON daily_production_reports(operation_name, date);

	CREATE TABLE IF NOT EXISTS master_order_status (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		order_name TEXT NOT NULL,
		total_order_quantity INTEGER NOT NULL,
		total_manufactured INTEGER NOT NULL,
		total_dispatched INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS historical_opening_balance (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		opening_date TEXT NOT NULL,
		manufacturing_start_date TEXT NOT NULL,
		system_go_live_date TEXT NOT NULL,
		manufactured_before_system INTEGER NOT NULL,
		dispatched_before_system INTEGER NOT NULL,
		entry_type TEXT NOT NULL,
		is_locked BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS dispatch_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		container_type_id INTEGER NOT NULL REFERENCES container_types(id),
		quantity INTEGER NOT NULL,
		dispatch_date INTEGER NOT NULL,
		destination TEXT NOT NULL,
		delivery_status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dispatch_date
		ON dispatch_entries(dispatch_date);

	CREATE TABLE IF NOT EXISTS production_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		container_type_id INTEGER NOT NULL REFERENCES container_types(id),
		shift_id INTEGER NOT NULL,
		shift_name TEXT NOT NULL,
		shift_container_qty INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK (status IN ('pending_operations', 'under_testing', 'ready_for_dispatch')),
		total_qty INTEGER NOT NULL,
		status_time INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		modified_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_type_status
		ON production_entries(container_type_id, status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// REPORTS
// =============================================================================

const reportColumns = `id, date, operation_name, container_type_id, container_size_id,
	today_production, total_completed, dispatched, in_hand`

func (s *Store) InsertReport(ctx context.Context, r ledger.DailyProductionReport) (ledger.ReportID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertReport(ctx, s.db, r)
}

func insertReport(ctx context.Context, db execer, r ledger.DailyProductionReport) (ledger.ReportID, error) {
	const op = "store.sqlite.InsertReport"

	res, err := db.ExecContext(ctx, `
		INSERT INTO daily_production_reports
		(date, operation_name, container_type_id, container_size_id,
		 today_production, total_completed, dispatched, in_hand)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Date, r.OperationName, r.ContainerTypeID, r.ContainerSizeID,
		r.TodayProduction, r.TotalCompleted, r.Dispatched, r.InHand,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, ledger.ErrDuplicateKey
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}
	return ledger.ReportID(id), nil
}

func (s *Store) UpsertReport(ctx context.Context, r ledger.DailyProductionReport) (ledger.ReportID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertReport(ctx, s.db, r)
}

func upsertReport(ctx context.Context, db execer, r ledger.DailyProductionReport) (ledger.ReportID, error) {
	const op = "store.sqlite.UpsertReport"

	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO daily_production_reports
		(date, operation_name, container_type_id, container_size_id,
		 today_production, total_completed, dispatched, in_hand)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, operation_name, container_type_id, container_size_id) DO UPDATE SET
			today_production = excluded.today_production,
			total_completed = excluded.total_completed,
			dispatched = excluded.dispatched,
			in_hand = excluded.in_hand
		RETURNING id`,
		r.Date, r.OperationName, r.ContainerTypeID, r.ContainerSizeID,
		r.TodayProduction, r.TotalCompleted, r.Dispatched, r.InHand,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return ledger.ReportID(id), nil
}

func (s *Store) UpdateReport(ctx context.Context, r ledger.DailyProductionReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateReport(ctx, s.db, r)
}

func updateReport(ctx context.Context, db execer, r ledger.DailyProductionReport) error {
	const op = "store.sqlite.UpdateReport"

	res, err := db.ExecContext(ctx, `
		UPDATE daily_production_reports
		SET today_production = ?, total_completed = ?, dispatched = ?, in_hand = ?
		WHERE id = ?`,
		r.TodayProduction, r.TotalCompleted, r.Dispatched, r.InHand, r.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: "report", Key: r.ID}
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id ledger.ReportID) (ledger.DailyProductionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getReport(ctx, s.db, id)
}

func getReport(ctx context.Context, db execer, id ledger.ReportID) (ledger.DailyProductionReport, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+reportColumns+" FROM daily_production_reports WHERE id = ?", id)
	if err != nil {
		return ledger.DailyProductionReport{}, fmt.Errorf("store.sqlite.GetReport: %w", err)
	}
	reports, err := scanReports(rows)
	if err != nil {
		return ledger.DailyProductionReport{}, err
	}
	if len(reports) == 0 {
		return ledger.DailyProductionReport{}, &ledger.NotFoundError{Kind: "report", Key: id}
	}
	return reports[0], nil
}

func (s *Store) FindReport(ctx context.Context, key ledger.NaturalKey) (ledger.DailyProductionReport, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findReport(ctx, s.db, key)
}

func findReport(ctx context.Context, db execer, key ledger.NaturalKey) (ledger.DailyProductionReport, bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+reportColumns+` FROM daily_production_reports
		WHERE date = ? AND operation_name = ? AND container_type_id = ? AND container_size_id = ?`,
		key.Date, key.OperationName, key.ContainerTypeID, key.ContainerSizeID)
	if err != nil {
		return ledger.DailyProductionReport{}, false, fmt.Errorf("store.sqlite.FindReport: %w", err)
	}
	reports, err := scanReports(rows)
	if err != nil || len(reports) == 0 {
		return ledger.DailyProductionReport{}, false, err
	}
	return reports[0], true, nil
}

func (s *Store) ReportsInRange(ctx context.Context, start, end string, filter ledger.DimensionFilter) ([]ledger.DailyProductionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reportsInRange(ctx, s.db, start, end, filter)
}

func reportsInRange(ctx context.Context, db execer, start, end string, filter ledger.DimensionFilter) ([]ledger.DailyProductionReport, error) {
	var (
		where = []string{"date >= ?", "date <= ?"}
		args  = []any{start, end}
	)
	if filter.ContainerTypeID != nil {
		where = append(where, "container_type_id = ?")
		args = append(args, *filter.ContainerTypeID)
	}
	if filter.ContainerSizeID != nil {
		where = append(where, "container_size_id = ?")
		args = append(args, *filter.ContainerSizeID)
	}

	query := "SELECT " + reportColumns + " FROM daily_production_reports WHERE " +
		strings.Join(where, " AND ") + " ORDER BY date ASC, id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store.sqlite.ReportsInRange: %w", err)
	}
	reports, err := scanReports(rows)
	if err != nil {
		return nil, err
	}
	sortCanonical(reports)
	return reports, nil
}

func (s *Store) ReportsByOperation(ctx context.Context, operation string) ([]ledger.DailyProductionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+reportColumns+
		" FROM daily_production_reports WHERE operation_name = ? ORDER BY date ASC, id ASC", operation)
	if err != nil {
		return nil, fmt.Errorf("store.sqlite.ReportsByOperation: %w", err)
	}
	return scanReports(rows)
}

func scanReports(rows *sql.Rows) ([]ledger.DailyProductionReport, error) {
	defer rows.Close()

	reports := []ledger.DailyProductionReport{}
	for rows.Next() {
		var r ledger.DailyProductionReport
		if err := rows.Scan(
			&r.ID, &r.Date, &r.OperationName, &r.ContainerTypeID, &r.ContainerSizeID,
			&r.TodayProduction, &r.TotalCompleted, &r.Dispatched, &r.InHand,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// =============================================================================
// DIMENSIONS
// =============================================================================

func (s *Store) ContainerTypes(ctx context.Context) ([]ledger.ContainerType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containerTypes(ctx, s.db)
}

func containerTypes(ctx context.Context, db execer) ([]ledger.ContainerType, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, description, is_active FROM container_types ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store.sqlite.ContainerTypes: %w", err)
	}
	defer rows.Close()

	types := []ledger.ContainerType{}
	for rows.Next() {
		var t ledger.ContainerType
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.IsActive); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) ContainerSizes(ctx context.Context) ([]ledger.ContainerSize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containerSizes(ctx, s.db)
}

func containerSizes(ctx context.Context, db execer) ([]ledger.ContainerSize, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, size, length_ft, width_ft, height_ft, is_high_cube, is_active
		FROM container_sizes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store.sqlite.ContainerSizes: %w", err)
	}
	defer rows.Close()

	sizes := []ledger.ContainerSize{}
	for rows.Next() {
		var sz ledger.ContainerSize
		if err := rows.Scan(&sz.ID, &sz.Size, &sz.LengthFt, &sz.WidthFt, &sz.HeightFt, &sz.IsHighCube, &sz.IsActive); err != nil {
			return nil, err
		}
		sizes = append(sizes, sz)
	}
	return sizes, rows.Err()
}

func (s *Store) SaveContainerType(ctx context.Context, t ledger.ContainerType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveContainerType(ctx, s.db, t)
}

func saveContainerType(ctx context.Context, db execer, t ledger.ContainerType) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO container_types (id, name, description, is_active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			is_active = excluded.is_active`,
		t.ID, t.Name, t.Description, t.IsActive,
	)
	return err
}

func (s *Store) SaveContainerSize(ctx context.Context, sz ledger.ContainerSize) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveContainerSize(ctx, s.db, sz)
}

func saveContainerSize(ctx context.Context, db execer, sz ledger.ContainerSize) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO container_sizes (id, size, length_ft, width_ft, height_ft, is_high_cube, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			size = excluded.size,
			length_ft = excluded.length_ft,
			width_ft = excluded.width_ft,
			height_ft = excluded.height_ft,
			is_high_cube = excluded.is_high_cube,
			is_active = excluded.is_active`,
		sz.ID, sz.Size, sz.LengthFt, sz.WidthFt, sz.HeightFt, sz.IsHighCube, sz.IsActive,
	)
	return err
}

// =============================================================================
// SINGLETONS
// =============================================================================

func (s *Store) GetMasterOrder(ctx context.Context) (ledger.MasterOrderStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getMasterOrder(ctx, s.db)
}

func getMasterOrder(ctx context.Context, db execer) (ledger.MasterOrderStatus, error) {
	var m ledger.MasterOrderStatus
	err := db.QueryRowContext(ctx, `
		SELECT id, order_name, total_order_quantity, total_manufactured, total_dispatched
		FROM master_order_status WHERE id = ?`, ledger.MasterOrderID,
	).Scan(&m.ID, &m.OrderName, &m.TotalOrderQuantity, &m.TotalManufactured, &m.TotalDispatched)
	if errors.Is(err, sql.ErrNoRows) {
		return m, &ledger.NotFoundError{Kind: "master order", Key: ledger.MasterOrderID}
	}
	if err != nil {
		return m, fmt.Errorf("store.sqlite.GetMasterOrder: %w", err)
	}
	return m, nil
}

func (s *Store) SaveMasterOrder(ctx context.Context, m ledger.MasterOrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveMasterOrder(ctx, s.db, m)
}

func saveMasterOrder(ctx context.Context, db execer, m ledger.MasterOrderStatus) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO master_order_status
		(id, order_name, total_order_quantity, total_manufactured, total_dispatched)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			order_name = excluded.order_name,
			total_order_quantity = excluded.total_order_quantity,
			total_manufactured = excluded.total_manufactured,
			total_dispatched = excluded.total_dispatched`,
		ledger.MasterOrderID, m.OrderName, m.TotalOrderQuantity, m.TotalManufactured, m.TotalDispatched,
	)
	if err != nil {
		return fmt.Errorf("store.sqlite.SaveMasterOrder: %w", err)
	}
	return nil
}

func (s *Store) GetOpeningBalance(ctx context.Context) (ledger.HistoricalOpeningBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getOpeningBalance(ctx, s.db)
}

func getOpeningBalance(ctx context.Context, db execer) (ledger.HistoricalOpeningBalance, error) {
	var b ledger.HistoricalOpeningBalance
	err := db.QueryRowContext(ctx, `
		SELECT id, opening_date, manufacturing_start_date, system_go_live_date,
		       manufactured_before_system, dispatched_before_system, entry_type, is_locked
		FROM historical_opening_balance WHERE id = ?`, ledger.OpeningBalanceID,
	).Scan(&b.ID, &b.OpeningDate, &b.ManufacturingStartDate, &b.SystemGoLiveDate,
		&b.ManufacturedBeforeSystem, &b.DispatchedBeforeSystem, &b.EntryType, &b.IsLocked)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ledger.ErrNoOpeningBalance
	}
	if err != nil {
		return b, fmt.Errorf("store.sqlite.GetOpeningBalance: %w", err)
	}
	return b, nil
}

func (s *Store) InsertOpeningBalance(ctx context.Context, b ledger.HistoricalOpeningBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertOpeningBalance(ctx, s.db, b)
}

func insertOpeningBalance(ctx context.Context, db execer, b ledger.HistoricalOpeningBalance) error {
	// Plain INSERT: the primary key check turns a second write into a
	// constraint error instead of an overwrite.
	_, err := db.ExecContext(ctx, `
		INSERT INTO historical_opening_balance
		(id, opening_date, manufacturing_start_date, system_go_live_date,
		 manufactured_before_system, dispatched_before_system, entry_type, is_locked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ledger.OpeningBalanceID, b.OpeningDate, b.ManufacturingStartDate, b.SystemGoLiveDate,
		b.ManufacturedBeforeSystem, b.DispatchedBeforeSystem, b.EntryType, b.IsLocked,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &ledger.AlreadyExistsError{Kind: "historical opening balance"}
		}
		return fmt.Errorf("store.sqlite.InsertOpeningBalance: %w", err)
	}
	return nil
}

// =============================================================================
// DISPATCH LOG
// =============================================================================

func (s *Store) InsertDispatch(ctx context.Context, d ledger.DispatchEntry) (ledger.DispatchID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertDispatch(ctx, s.db, d)
}

func insertDispatch(ctx context.Context, db execer, d ledger.DispatchEntry) (ledger.DispatchID, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO dispatch_entries
		(container_type_id, quantity, dispatch_date, destination, delivery_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ContainerTypeID, d.Quantity, d.DispatchDate, d.Destination, d.DeliveryStatus, d.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("store.sqlite.InsertDispatch: %w", err)
	}
	id, err := res.LastInsertId()
	return ledger.DispatchID(id), err
}

func (s *Store) DispatchesInRange(ctx context.Context, from, to int64) ([]ledger.DispatchEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dispatchesInRange(ctx, s.db, from, to)
}

func dispatchesInRange(ctx context.Context, db execer, from, to int64) ([]ledger.DispatchEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, container_type_id, quantity, dispatch_date, destination, delivery_status, created_at
		FROM dispatch_entries
		WHERE dispatch_date >= ? AND dispatch_date <= ?
		ORDER BY dispatch_date ASC, id ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("store.sqlite.DispatchesInRange: %w", err)
	}
	defer rows.Close()

	entries := []ledger.DispatchEntry{}
	for rows.Next() {
		var (
			d      ledger.DispatchEntry
			status string
		)
		if err := rows.Scan(&d.ID, &d.ContainerTypeID, &d.Quantity, &d.DispatchDate,
			&d.Destination, &status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		d.DeliveryStatus = ledger.DeliveryStatus(status)
		entries = append(entries, d)
	}
	return entries, rows.Err()
}

func (s *Store) UpdateDispatchStatus(ctx context.Context, id ledger.DispatchID, status ledger.DeliveryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateDispatchStatus(ctx, s.db, id, status)
}

func updateDispatchStatus(ctx context.Context, db execer, id ledger.DispatchID, status ledger.DeliveryStatus) error {
	res, err := db.ExecContext(ctx,
		"UPDATE dispatch_entries SET delivery_status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("store.sqlite.UpdateDispatchStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "dispatch", Key: id}
	}
	return nil
}

// =============================================================================
// PRODUCTION ENTRIES
// =============================================================================

const entryColumns = `id, container_type_id, shift_id, shift_name, shift_container_qty,
	status, total_qty, status_time, created_at, modified_at`

func (s *Store) InsertProductionEntry(ctx context.Context, e ledger.ProductionEntry) (ledger.ProductionEntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertEntry(ctx, s.db, e)
}

func insertEntry(ctx context.Context, db execer, e ledger.ProductionEntry) (ledger.ProductionEntryID, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO production_entries
		(container_type_id, shift_id, shift_name, shift_container_qty,
		 status, total_qty, status_time, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ContainerTypeID, e.Shift.ID, e.Shift.Name, e.Shift.ContainerQty,
		e.Status, e.TotalQty, e.StatusTime, e.CreatedAt, e.ModifiedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("store.sqlite.InsertProductionEntry: %w", err)
	}
	id, err := res.LastInsertId()
	return ledger.ProductionEntryID(id), err
}

func (s *Store) GetProductionEntry(ctx context.Context, id ledger.ProductionEntryID) (ledger.ProductionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEntry(ctx, s.db, id)
}

func getEntry(ctx context.Context, db execer, id ledger.ProductionEntryID) (ledger.ProductionEntry, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+entryColumns+" FROM production_entries WHERE id = ?", id)
	if err != nil {
		return ledger.ProductionEntry{}, fmt.Errorf("store.sqlite.GetProductionEntry: %w", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return ledger.ProductionEntry{}, err
	}
	if len(entries) == 0 {
		return ledger.ProductionEntry{}, &ledger.NotFoundError{Kind: "production entry", Key: id}
	}
	return entries[0], nil
}

func (s *Store) UpdateProductionEntry(ctx context.Context, e ledger.ProductionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateEntry(ctx, s.db, e)
}

func updateEntry(ctx context.Context, db execer, e ledger.ProductionEntry) error {
	res, err := db.ExecContext(ctx, `
		UPDATE production_entries
		SET status = ?, status_time = ?, modified_at = ?
		WHERE id = ?`, e.Status, e.StatusTime, e.ModifiedAt, e.ID)
	if err != nil {
		return fmt.Errorf("store.sqlite.UpdateProductionEntry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &ledger.NotFoundError{Kind: "production entry", Key: e.ID}
	}
	return nil
}

func (s *Store) ProductionEntries(ctx context.Context, filter ledger.ProductionEntryFilter) ([]ledger.ProductionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return productionEntries(ctx, s.db, filter)
}

func productionEntries(ctx context.Context, db execer, filter ledger.ProductionEntryFilter) ([]ledger.ProductionEntry, error) {
	query := "SELECT " + entryColumns + " FROM production_entries WHERE 1 = 1"
	var args []any
	if filter.ContainerTypeID != nil {
		query += " AND container_type_id = ?"
		args = append(args, *filter.ContainerTypeID)
	}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, *filter.Status)
	}
	query += " ORDER BY id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store.sqlite.ProductionEntries: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]ledger.ProductionEntry, error) {
	defer rows.Close()

	entries := []ledger.ProductionEntry{}
	for rows.Next() {
		var (
			e      ledger.ProductionEntry
			status string
		)
		if err := rows.Scan(&e.ID, &e.ContainerTypeID, &e.Shift.ID, &e.Shift.Name, &e.Shift.ContainerQty,
			&status, &e.TotalQty, &e.StatusTime, &e.CreatedAt, &e.ModifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan production entry: %w", err)
		}
		e.Status = ledger.ContainerStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes every call through the open transaction.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) InsertReport(ctx context.Context, r ledger.DailyProductionReport) (ledger.ReportID, error) {
	return insertReport(ctx, ts.tx, r)
}

func (ts *txStore) UpsertReport(ctx context.Context, r ledger.DailyProductionReport) (ledger.ReportID, error) {
	return upsertReport(ctx, ts.tx, r)
}

func (ts *txStore) UpdateReport(ctx context.Context, r ledger.DailyProductionReport) error {
	return updateReport(ctx, ts.tx, r)
}

func (ts *txStore) GetReport(ctx context.Context, id ledger.ReportID) (ledger.DailyProductionReport, error) {
	return getReport(ctx, ts.tx, id)
}

func (ts *txStore) FindReport(ctx context.Context, key ledger.NaturalKey) (ledger.DailyProductionReport, bool, error) {
	return findReport(ctx, ts.tx, key)
}

func (ts *txStore) ReportsInRange(ctx context.Context, start, end string, filter ledger.DimensionFilter) ([]ledger.DailyProductionReport, error) {
	return reportsInRange(ctx, ts.tx, start, end, filter)
}

func (ts *txStore) ReportsByOperation(ctx context.Context, operation string) ([]ledger.DailyProductionReport, error) {
	rows, err := ts.tx.QueryContext(ctx, "SELECT "+reportColumns+
		" FROM daily_production_reports WHERE operation_name = ? ORDER BY date ASC, id ASC", operation)
	if err != nil {
		return nil, err
	}
	return scanReports(rows)
}

func (ts *txStore) ContainerTypes(ctx context.Context) ([]ledger.ContainerType, error) {
	return containerTypes(ctx, ts.tx)
}

func (ts *txStore) ContainerSizes(ctx context.Context) ([]ledger.ContainerSize, error) {
	return containerSizes(ctx, ts.tx)
}

func (ts *txStore) SaveContainerType(ctx context.Context, t ledger.ContainerType) error {
	return saveContainerType(ctx, ts.tx, t)
}

func (ts *txStore) SaveContainerSize(ctx context.Context, sz ledger.ContainerSize) error {
	return saveContainerSize(ctx, ts.tx, sz)
}

func (ts *txStore) GetMasterOrder(ctx context.Context) (ledger.MasterOrderStatus, error) {
	return getMasterOrder(ctx, ts.tx)
}

func (ts *txStore) SaveMasterOrder(ctx context.Context, m ledger.MasterOrderStatus) error {
	return saveMasterOrder(ctx, ts.tx, m)
}

func (ts *txStore) GetOpeningBalance(ctx context.Context) (ledger.HistoricalOpeningBalance, error) {
	return getOpeningBalance(ctx, ts.tx)
}

func (ts *txStore) InsertOpeningBalance(ctx context.Context, b ledger.HistoricalOpeningBalance) error {
	return insertOpeningBalance(ctx, ts.tx, b)
}

func (ts *txStore) InsertDispatch(ctx context.Context, d ledger.DispatchEntry) (ledger.DispatchID, error) {
	return insertDispatch(ctx, ts.tx, d)
}

func (ts *txStore) DispatchesInRange(ctx context.Context, from, to int64) ([]ledger.DispatchEntry, error) {
	return dispatchesInRange(ctx, ts.tx, from, to)
}

func (ts *txStore) UpdateDispatchStatus(ctx context.Context, id ledger.DispatchID, status ledger.DeliveryStatus) error {
	return updateDispatchStatus(ctx, ts.tx, id, status)
}

func (ts *txStore) InsertProductionEntry(ctx context.Context, e ledger.ProductionEntry) (ledger.ProductionEntryID, error) {
	return insertEntry(ctx, ts.tx, e)
}

func (ts *txStore) GetProductionEntry(ctx context.Context, id ledger.ProductionEntryID) (ledger.ProductionEntry, error) {
	return getEntry(ctx, ts.tx, id)
}

func (ts *txStore) UpdateProductionEntry(ctx context.Context, e ledger.ProductionEntry) error {
	return updateEntry(ctx, ts.tx, e)
}

func (ts *txStore) ProductionEntries(ctx context.Context, filter ledger.ProductionEntryFilter) ([]ledger.ProductionEntry, error) {
	return productionEntries(ctx, ts.tx, filter)
}

// =============================================================================
// ADMIN OPERATIONS
// =============================================================================

// Reset clears reports, dispatches and production entries. Dimension tables,
// the master order and the opening balance are kept. AUTOINCREMENT keeps
// ids from being reused.
// WARNING: This is for development/testing only!
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"daily_production_reports", "dispatch_entries", "production_entries"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// sortCanonical orders reports by date, then canonical operation order.
// SQL can only order by date; the operation order lives in the ledger.
func sortCanonical(reports []ledger.DailyProductionReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if ai, bi := ledger.OperationIndex(a.OperationName), ledger.OperationIndex(b.OperationName); ai != bi {
			return ai < bi
		}
		return a.ID < b.ID
	})
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}
