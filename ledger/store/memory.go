// Package store provides in-memory ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/production-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	st state
}

type state struct {
	reports      map[ledger.ReportID]ledger.DailyProductionReport
	keys         map[ledger.NaturalKey]ledger.ReportID
	nextReportID ledger.ReportID

	types map[ledger.ContainerTypeID]ledger.ContainerType
	sizes map[ledger.ContainerSizeID]ledger.ContainerSize

	master  *ledger.MasterOrderStatus
	opening *ledger.HistoricalOpeningBalance

	dispatches     map[ledger.DispatchID]ledger.DispatchEntry
	nextDispatchID ledger.DispatchID

	entries     map[ledger.ProductionEntryID]ledger.ProductionEntry
	nextEntryID ledger.ProductionEntryID
}

func NewMemory() *Memory {
	return &Memory{st: newState()}
}

func newState() state {
	return state{
		reports:    make(map[ledger.ReportID]ledger.DailyProductionReport),
		keys:       make(map[ledger.NaturalKey]ledger.ReportID),
		types:      make(map[ledger.ContainerTypeID]ledger.ContainerType),
		sizes:      make(map[ledger.ContainerSizeID]ledger.ContainerSize),
		dispatches: make(map[ledger.DispatchID]ledger.DispatchEntry),
		entries:    make(map[ledger.ProductionEntryID]ledger.ProductionEntry),
	}
}

func (m *Memory) InsertReport(_ context.Context, r ledger.DailyProductionReport) (ledger.ReportID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertReport(r)
}

func (m *Memory) UpsertReport(_ context.Context, r ledger.DailyProductionReport) (ledger.ReportID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.upsertReport(r)
}

func (m *Memory) UpdateReport(_ context.Context, r ledger.DailyProductionReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.updateReport(r)
}

func (m *Memory) GetReport(_ context.Context, id ledger.ReportID) (ledger.DailyProductionReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getReport(id)
}

func (m *Memory) FindReport(_ context.Context, key ledger.NaturalKey) (ledger.DailyProductionReport, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.st.findReport(key)
	return r, ok, nil
}

func (m *Memory) ReportsInRange(_ context.Context, start, end string, filter ledger.DimensionFilter) ([]ledger.DailyProductionReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.reportsWhere(func(r ledger.DailyProductionReport) bool {
		return start <= r.Date && r.Date <= end && filter.Matches(r)
	}), nil
}

func (m *Memory) ReportsByOperation(_ context.Context, operation string) ([]ledger.DailyProductionReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.reportsWhere(func(r ledger.DailyProductionReport) bool {
		return r.OperationName == operation
	}), nil
}

func (m *Memory) ContainerTypes(_ context.Context) ([]ledger.ContainerType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.containerTypes(), nil
}

func (m *Memory) ContainerSizes(_ context.Context) ([]ledger.ContainerSize, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.containerSizes(), nil
}

func (m *Memory) SaveContainerType(_ context.Context, t ledger.ContainerType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.types[t.ID] = t
	return nil
}

func (m *Memory) SaveContainerSize(_ context.Context, s ledger.ContainerSize) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.sizes[s.ID] = s
	return nil
}

func (m *Memory) GetMasterOrder(_ context.Context) (ledger.MasterOrderStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getMasterOrder()
}

func (m *Memory) SaveMasterOrder(_ context.Context, mo ledger.MasterOrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.saveMasterOrder(mo)
	return nil
}

func (m *Memory) GetOpeningBalance(_ context.Context) (ledger.HistoricalOpeningBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getOpeningBalance()
}

func (m *Memory) InsertOpeningBalance(_ context.Context, b ledger.HistoricalOpeningBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertOpeningBalance(b)
}

func (m *Memory) InsertDispatch(_ context.Context, d ledger.DispatchEntry) (ledger.DispatchID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertDispatch(d), nil
}

func (m *Memory) DispatchesInRange(_ context.Context, from, to int64) ([]ledger.DispatchEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.dispatchesInRange(from, to), nil
}

func (m *Memory) UpdateDispatchStatus(_ context.Context, id ledger.DispatchID, status ledger.DeliveryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.updateDispatchStatus(id, status)
}

func (m *Memory) InsertProductionEntry(_ context.Context, e ledger.ProductionEntry) (ledger.ProductionEntryID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.insertEntry(e), nil
}

func (m *Memory) GetProductionEntry(_ context.Context, id ledger.ProductionEntryID) (ledger.ProductionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getEntry(id)
}

func (m *Memory) UpdateProductionEntry(_ context.Context, e ledger.ProductionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.updateEntry(e)
}

func (m *Memory) ProductionEntries(_ context.Context, filter ledger.ProductionEntryFilter) ([]ledger.ProductionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.entriesWhere(filter), nil
}

// =============================================================================
// STATE - Unlocked operations shared by Memory and the transactional view
// =============================================================================

func (s *state) insertReport(r ledger.DailyProductionReport) (ledger.ReportID, error) {
	if _, exists := s.keys[r.Key()]; exists {
		return 0, ledger.ErrDuplicateKey
	}
	s.nextReportID++
	r.ID = s.nextReportID
	s.reports[r.ID] = r
	s.keys[r.Key()] = r.ID
	return r.ID, nil
}

func (s *state) upsertReport(r ledger.DailyProductionReport) (ledger.ReportID, error) {
	id, exists := s.keys[r.Key()]
	if !exists {
		return s.insertReport(r)
	}
	r.ID = id
	s.reports[id] = r
	return id, nil
}

func (s *state) updateReport(r ledger.DailyProductionReport) error {
	old, ok := s.reports[r.ID]
	if !ok {
		return &ledger.NotFoundError{Kind: "report", Key: r.ID}
	}
	old.TodayProduction = r.TodayProduction
	old.TotalCompleted = r.TotalCompleted
	old.Dispatched = r.Dispatched
	old.InHand = r.InHand
	s.reports[r.ID] = old
	return nil
}

func (s *state) getReport(id ledger.ReportID) (ledger.DailyProductionReport, error) {
	r, ok := s.reports[id]
	if !ok {
		return ledger.DailyProductionReport{}, &ledger.NotFoundError{Kind: "report", Key: id}
	}
	return r, nil
}

func (s *state) findReport(key ledger.NaturalKey) (ledger.DailyProductionReport, bool) {
	id, ok := s.keys[key]
	if !ok {
		return ledger.DailyProductionReport{}, false
	}
	return s.reports[id], true
}

func (s *state) reportsWhere(keep func(ledger.DailyProductionReport) bool) []ledger.DailyProductionReport {
	out := []ledger.DailyProductionReport{}
	for _, r := range s.reports {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if ai, bi := ledger.OperationIndex(a.OperationName), ledger.OperationIndex(b.OperationName); ai != bi {
			return ai < bi
		}
		return a.ID < b.ID
	})
	return out
}

func (s *state) containerTypes() []ledger.ContainerType {
	out := make([]ledger.ContainerType, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) containerSizes() []ledger.ContainerSize {
	out := make([]ledger.ContainerSize, 0, len(s.sizes))
	for _, sz := range s.sizes {
		out = append(out, sz)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) getMasterOrder() (ledger.MasterOrderStatus, error) {
	if s.master == nil {
		return ledger.MasterOrderStatus{}, &ledger.NotFoundError{Kind: "master order", Key: ledger.MasterOrderID}
	}
	return *s.master, nil
}

func (s *state) saveMasterOrder(mo ledger.MasterOrderStatus) {
	mo.ID = ledger.MasterOrderID
	s.master = &mo
}

func (s *state) getOpeningBalance() (ledger.HistoricalOpeningBalance, error) {
	if s.opening == nil {
		return ledger.HistoricalOpeningBalance{}, ledger.ErrNoOpeningBalance
	}
	return *s.opening, nil
}

func (s *state) insertOpeningBalance(b ledger.HistoricalOpeningBalance) error {
	if s.opening != nil {
		return &ledger.AlreadyExistsError{Kind: "historical opening balance"}
	}
	b.ID = ledger.OpeningBalanceID
	s.opening = &b
	return nil
}

func (s *state) insertDispatch(d ledger.DispatchEntry) ledger.DispatchID {
	s.nextDispatchID++
	d.ID = s.nextDispatchID
	s.dispatches[d.ID] = d
	return d.ID
}

func (s *state) dispatchesInRange(from, to int64) []ledger.DispatchEntry {
	out := []ledger.DispatchEntry{}
	for _, d := range s.dispatches {
		if from <= d.DispatchDate && d.DispatchDate <= to {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DispatchDate != out[j].DispatchDate {
			return out[i].DispatchDate < out[j].DispatchDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *state) updateDispatchStatus(id ledger.DispatchID, status ledger.DeliveryStatus) error {
	d, ok := s.dispatches[id]
	if !ok {
		return &ledger.NotFoundError{Kind: "dispatch", Key: id}
	}
	d.DeliveryStatus = status
	s.dispatches[id] = d
	return nil
}

func (s *state) insertEntry(e ledger.ProductionEntry) ledger.ProductionEntryID {
	s.nextEntryID++
	e.ID = s.nextEntryID
	s.entries[e.ID] = e
	return e.ID
}

func (s *state) getEntry(id ledger.ProductionEntryID) (ledger.ProductionEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return ledger.ProductionEntry{}, &ledger.NotFoundError{Kind: "production entry", Key: id}
	}
	return e, nil
}

func (s *state) updateEntry(e ledger.ProductionEntry) error {
	old, ok := s.entries[e.ID]
	if !ok {
		return &ledger.NotFoundError{Kind: "production entry", Key: e.ID}
	}
	old.Status = e.Status
	old.StatusTime = e.StatusTime
	old.ModifiedAt = e.ModifiedAt
	s.entries[e.ID] = old
	return nil
}

func (s *state) entriesWhere(filter ledger.ProductionEntryFilter) []ledger.ProductionEntry {
	out := []ledger.ProductionEntry{}
	for _, e := range s.entries {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) clone() state {
	c := newState()
	for k, v := range s.reports {
		c.reports[k] = v
	}
	for k, v := range s.keys {
		c.keys[k] = v
	}
	for k, v := range s.types {
		c.types[k] = v
	}
	for k, v := range s.sizes {
		c.sizes[k] = v
	}
	for k, v := range s.dispatches {
		c.dispatches[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	c.nextReportID = s.nextReportID
	c.nextDispatchID = s.nextDispatchID
	c.nextEntryID = s.nextEntryID
	if s.master != nil {
		mo := *s.master
		c.master = &mo
	}
	if s.opening != nil {
		b := *s.opening
		c.opening = &b
	}
	return c
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// Reset clears reports, dispatches and production entries. Dimensions, the
// master order and the opening balance survive, and ids are never reused.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fresh := newState()
	fresh.types = m.st.types
	fresh.sizes = m.st.sizes
	fresh.master = m.st.master
	fresh.opening = m.st.opening
	fresh.nextReportID = m.st.nextReportID
	fresh.nextDispatchID = m.st.nextDispatchID
	fresh.nextEntryID = m.st.nextEntryID
	m.st = fresh
	return nil
}

// WithTx executes fn while holding the write lock.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.st.clone()

	if err := fn(&txMemoryView{st: &tm.st}); err != nil {
		tm.st = snapshot
		return err
	}
	return nil
}

type txMemoryView struct {
	st *state
}

func (tv *txMemoryView) InsertReport(_ context.Context, r ledger.DailyProductionReport) (ledger.ReportID, error) {
	return tv.st.insertReport(r)
}

func (tv *txMemoryView) UpsertReport(_ context.Context, r ledger.DailyProductionReport) (ledger.ReportID, error) {
	return tv.st.upsertReport(r)
}

func (tv *txMemoryView) UpdateReport(_ context.Context, r ledger.DailyProductionReport) error {
	return tv.st.updateReport(r)
}

func (tv *txMemoryView) GetReport(_ context.Context, id ledger.ReportID) (ledger.DailyProductionReport, error) {
	return tv.st.getReport(id)
}

func (tv *txMemoryView) FindReport(_ context.Context, key ledger.NaturalKey) (ledger.DailyProductionReport, bool, error) {
	r, ok := tv.st.findReport(key)
	return r, ok, nil
}

func (tv *txMemoryView) ReportsInRange(_ context.Context, start, end string, filter ledger.DimensionFilter) ([]ledger.DailyProductionReport, error) {
	return tv.st.reportsWhere(func(r ledger.DailyProductionReport) bool {
		return start <= r.Date && r.Date <= end && filter.Matches(r)
	}), nil
}

func (tv *txMemoryView) ReportsByOperation(_ context.Context, operation string) ([]ledger.DailyProductionReport, error) {
	return tv.st.reportsWhere(func(r ledger.DailyProductionReport) bool {
		return r.OperationName == operation
	}), nil
}

func (tv *txMemoryView) ContainerTypes(_ context.Context) ([]ledger.ContainerType, error) {
	return tv.st.containerTypes(), nil
}

func (tv *txMemoryView) ContainerSizes(_ context.Context) ([]ledger.ContainerSize, error) {
	return tv.st.containerSizes(), nil
}

func (tv *txMemoryView) SaveContainerType(_ context.Context, t ledger.ContainerType) error {
	tv.st.types[t.ID] = t
	return nil
}

func (tv *txMemoryView) SaveContainerSize(_ context.Context, s ledger.ContainerSize) error {
	tv.st.sizes[s.ID] = s
	return nil
}

func (tv *txMemoryView) GetMasterOrder(_ context.Context) (ledger.MasterOrderStatus, error) {
	return tv.st.getMasterOrder()
}

func (tv *txMemoryView) SaveMasterOrder(_ context.Context, mo ledger.MasterOrderStatus) error {
	tv.st.saveMasterOrder(mo)
	return nil
}

func (tv *txMemoryView) GetOpeningBalance(_ context.Context) (ledger.HistoricalOpeningBalance, error) {
	return tv.st.getOpeningBalance()
}

func (tv *txMemoryView) InsertOpeningBalance(_ context.Context, b ledger.HistoricalOpeningBalance) error {
	return tv.st.insertOpeningBalance(b)
}

func (tv *txMemoryView) InsertDispatch(_ context.Context, d ledger.DispatchEntry) (ledger.DispatchID, error) {
	return tv.st.insertDispatch(d), nil
}

func (tv *txMemoryView) DispatchesInRange(_ context.Context, from, to int64) ([]ledger.DispatchEntry, error) {
	return tv.st.dispatchesInRange(from, to), nil
}

func (tv *txMemoryView) UpdateDispatchStatus(_ context.Context, id ledger.DispatchID, status ledger.DeliveryStatus) error {
	return tv.st.updateDispatchStatus(id, status)
}

func (tv *txMemoryView) InsertProductionEntry(_ context.Context, e ledger.ProductionEntry) (ledger.ProductionEntryID, error) {
	return tv.st.insertEntry(e), nil
}

func (tv *txMemoryView) GetProductionEntry(_ context.Context, id ledger.ProductionEntryID) (ledger.ProductionEntry, error) {
	return tv.st.getEntry(id)
}

func (tv *txMemoryView) UpdateProductionEntry(_ context.Context, e ledger.ProductionEntry) error {
	return tv.st.updateEntry(e)
}

func (tv *txMemoryView) ProductionEntries(_ context.Context, filter ledger.ProductionEntryFilter) ([]ledger.ProductionEntry, error) {
	return tv.st.entriesWhere(filter), nil
}
