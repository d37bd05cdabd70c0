package ordersync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
)

// fakeAdapter returns canned orders and records the since argument
type fakeAdapter struct {
	platform   marketplace.Platform
	configured bool
	orders     []marketplace.Order
	listErr    error
	sinceCalls []time.Time
}

func (a *fakeAdapter) Platform() marketplace.Platform { return a.platform }
func (a *fakeAdapter) IsConfigured() bool             { return a.configured }
func (a *fakeAdapter) ListNewOrders(_ context.Context, since time.Time) ([]marketplace.Order, error) {
	a.sinceCalls = append(a.sinceCalls, since)
	if !a.configured {
		return nil, marketplace.ErrNotConfigured
	}
	if a.listErr != nil {
		return nil, a.listErr
	}
	return a.orders, nil
}
func (a *fakeAdapter) PushStock(context.Context, []marketplace.StockUpdate) (*marketplace.PushOutcome, error) {
	return &marketplace.PushOutcome{}, nil
}
func (a *fakeAdapter) RegisterWebhook(context.Context, string) error { return nil }
func (a *fakeAdapter) ListWarehouses(context.Context) ([]marketplace.Warehouse, error) {
	return nil, nil
}
func (a *fakeAdapter) ListCatalog(context.Context) ([]marketplace.CatalogEntry, error) {
	return nil, nil
}

// fakeItems resolves aliases from an in-memory item list
type fakeItems struct {
	items []*inventory.Item
	err   error
}

func (f *fakeItems) FindByID(_ context.Context, id string) (*inventory.Item, error) {
	for _, it := range f.items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, inventory.ErrItemNotFound
}
func (f *fakeItems) FindByIDs(_ context.Context, ids []string) ([]inventory.Item, error) {
	var out []inventory.Item
	for _, id := range ids {
		if it, err := f.FindByID(context.Background(), id); err == nil {
			out = append(out, *it)
		}
	}
	return out, nil
}
func (f *fakeItems) FindByAlias(_ context.Context, p marketplace.Platform, sku string) (*inventory.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, it := range f.items {
		if alias, ok := it.Alias(p); ok && alias == sku {
			return it, nil
		}
	}
	return nil, inventory.ErrAliasNotFound
}
func (f *fakeItems) ListAliased(context.Context) ([]inventory.Item, error) { return nil, nil }
func (f *fakeItems) ListMissingAlias(context.Context, marketplace.Platform) ([]inventory.Item, error) {
	return nil, nil
}
func (f *fakeItems) SetAlias(context.Context, string, marketplace.Platform, string) error {
	return nil
}
func (f *fakeItems) Save(context.Context, *inventory.Item) error { return nil }

func newItem(id string, aliases map[marketplace.Platform]string) *inventory.Item {
	item, _ := inventory.NewItem(id, id)
	for p, sku := range aliases {
		_ = item.SetAlias(p, sku)
	}
	return item
}

// memLedger is an in-memory inventory.LedgerRepository
type memLedger struct {
	mu       sync.Mutex
	entries  map[[2]string]int
	failSave map[string]bool
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[[2]string]int), failSave: make(map[string]bool)}
}

func (m *memLedger) set(item, cell string, qty int) {
	m.entries[[2]string{item, cell}] = qty
}

func (m *memLedger) Find(_ context.Context, itemID, cell string) (*inventory.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.entries[[2]string{itemID, cell}]
	if !ok {
		return nil, inventory.ErrEntryNotFound
	}
	return &inventory.LedgerEntry{ItemID: itemID, Cell: cell, Quantity: q}, nil
}
func (m *memLedger) Save(_ context.Context, e *inventory.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave[e.ItemID] {
		return errors.New("disk full")
	}
	m.entries[[2]string{e.ItemID, e.Cell}] = e.Quantity
	return nil
}
func (m *memLedger) Delete(_ context.Context, itemID, cell string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave[itemID] {
		return errors.New("disk full")
	}
	key := [2]string{itemID, cell}
	if _, ok := m.entries[key]; !ok {
		return inventory.ErrEntryNotFound
	}
	delete(m.entries, key)
	return nil
}
func (m *memLedger) ListByItem(_ context.Context, itemID string) ([]inventory.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []inventory.LedgerEntry
	for k, q := range m.entries {
		if k[0] == itemID {
			out = append(out, inventory.LedgerEntry{ItemID: k[0], Cell: k[1], Quantity: q})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cell < out[j].Cell })
	return out, nil
}
func (m *memLedger) SumByItem(ctx context.Context, itemID string) (int, error) {
	entries, _ := m.ListByItem(ctx, itemID)
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total, nil
}
func (m *memLedger) SumByItems(ctx context.Context, ids []string) (map[string]int, error) {
	out := make(map[string]int, len(ids))
	for _, id := range ids {
		out[id], _ = m.SumByItem(ctx, id)
	}
	return out, nil
}

// memProcessed is an in-memory dedup store. onExists runs after each
// lookup so tests can interleave a second delivery.
type memProcessed struct {
	mu        sync.Mutex
	orders    map[string]ordersync.ProcessedOrder
	existsErr error
	createErr error
	onExists  func()
}

func newMemProcessed() *memProcessed {
	return &memProcessed{orders: make(map[string]ordersync.ProcessedOrder)}
}

func (m *memProcessed) key(p marketplace.Platform, id string) string { return string(p) + "/" + id }

func (m *memProcessed) Exists(_ context.Context, p marketplace.Platform, id string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	m.mu.Lock()
	_, ok := m.orders[m.key(p, id)]
	m.mu.Unlock()
	if m.onExists != nil {
		m.onExists()
	}
	return ok, nil
}
func (m *memProcessed) Create(_ context.Context, o *ordersync.ProcessedOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	k := m.key(o.Platform, o.OrderID)
	if _, ok := m.orders[k]; ok {
		return ordersync.ErrOrderAlreadyApplied
	}
	m.orders[k] = *o
	return nil
}
func (m *memProcessed) ListSince(context.Context, marketplace.Platform, time.Time, int) ([]ordersync.ProcessedOrder, error) {
	return nil, nil
}

// memCursors is an in-memory cursor store
type memCursors struct {
	at     map[marketplace.Platform]time.Time
	getErr error
	setErr error
}

func newMemCursors() *memCursors {
	return &memCursors{at: make(map[marketplace.Platform]time.Time)}
}

func (m *memCursors) Get(_ context.Context, p marketplace.Platform) (time.Time, bool, error) {
	if m.getErr != nil {
		return time.Time{}, false, m.getErr
	}
	t, ok := m.at[p]
	return t, ok, nil
}
func (m *memCursors) Set(_ context.Context, p marketplace.Platform, at time.Time) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.at[p] = at
	return nil
}

// memTallies is an in-memory tally store
type memTallies struct {
	rows map[string]int
}

func (m *memTallies) Add(_ context.Context, date string, p marketplace.Platform, itemID string, qty int) error {
	if m.rows == nil {
		m.rows = make(map[string]int)
	}
	m.rows[date+"/"+string(p)+"/"+itemID] += qty
	return nil
}
func (m *memTallies) ListByDate(context.Context, string) ([]ordersync.ShipmentTally, error) {
	return nil, nil
}

// memLock is a single-process ordersync.RunLock
type memLock struct {
	mu      sync.Mutex
	held    map[string]string
	seq     int
	acqErr  error
	history []string
}

func newMemLock() *memLock {
	return &memLock{held: make(map[string]string)}
}

func (l *memLock) Acquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acqErr != nil {
		return "", false, l.acqErr
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.seq++
	token := fmt.Sprintf("t%d", l.seq)
	l.held[key] = token
	l.history = append(l.history, key)
	return token, true, nil
}

func (l *memLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

func (l *memLock) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// recordingNotifier captures low-stock alarms
type recordingNotifier struct {
	alarms map[string]int
	err    error
}

func (r *recordingNotifier) LowStock(_ context.Context, item *inventory.Item, total int) error {
	if r.alarms == nil {
		r.alarms = make(map[string]int)
	}
	r.alarms[item.ID] = total
	return r.err
}
