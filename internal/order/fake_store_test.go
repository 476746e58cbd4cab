package order

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"catering-be/internal/product"
)

// memStore is an in-memory Transactor with per-product row locks that are
// held until the transaction ends. Writes are buffered and applied on commit.
type memStore struct {
	mu      sync.Mutex
	stock   map[int64]int
	locks   map[int64]chan struct{}
	orders  map[int64]Order
	items   []OrderItem
	carts   map[uint][]int64
	lockLog [][]int64

	nextID    atomic.Int64
	lockDelay time.Duration
	blockLock bool
}

func newMemStore(stock map[int64]int) *memStore {
	m := &memStore{
		stock:  map[int64]int{},
		locks:  map[int64]chan struct{}{},
		orders: map[int64]Order{},
		carts:  map[uint][]int64{},
	}
	for id, s := range stock {
		m.stock[id] = s
		m.locks[id] = make(chan struct{}, 1)
	}
	return m
}

func (m *memStore) stockOf(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[id]
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) itemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *memStore) cartOf(userID uint) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[userID]
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, s TxStores) error) error {
	tx := &memTx{store: m, delta: map[int64]int{}}
	defer tx.release()

	if err := fn(ctx, TxStores{Stock: tx, Orders: tx, Carts: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx.commit()
	return nil
}

type memTx struct {
	store     *memStore
	held      []int64
	delta     map[int64]int
	orders    []Order
	items     []OrderItem
	clearUser *uint
}

func (tx *memTx) holds(id int64) bool {
	for _, h := range tx.held {
		if h == id {
			return true
		}
	}
	return false
}

func (tx *memTx) LockStock(ctx context.Context, productID int64) (int, error) {
	tx.store.mu.Lock()
	lock, ok := tx.store.locks[productID]
	tx.store.mu.Unlock()
	if !ok {
		return 0, product.ErrProductNotFound
	}

	if tx.store.blockLock {
		<-ctx.Done()
		return 0, ctx.Err()
	}

	if !tx.holds(productID) {
		select {
		case lock <- struct{}{}:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
		tx.held = append(tx.held, productID)
		if tx.store.lockDelay > 0 {
			time.Sleep(tx.store.lockDelay)
		}
	}

	return tx.store.stockOf(productID) + tx.delta[productID], nil
}

func (tx *memTx) DecrementStock(ctx context.Context, productID int64, qty int) error {
	if !tx.holds(productID) {
		return errors.New("stock written without lock")
	}
	if tx.store.stockOf(productID)+tx.delta[productID] < qty {
		return product.ErrInsufficientStock
	}
	tx.delta[productID] -= qty
	return nil
}

func (tx *memTx) InsertOrder(ctx context.Context, o *Order) error {
	o.ID = tx.store.nextID.Add(1)
	o.CreatedAt = time.Now()
	tx.orders = append(tx.orders, *o)
	return nil
}

func (tx *memTx) InsertOrderItem(ctx context.Context, item *OrderItem) error {
	item.ID = int64(len(tx.items) + 1)
	tx.items = append(tx.items, *item)
	return nil
}

func (tx *memTx) ClearCart(ctx context.Context, userID uint) (int64, error) {
	tx.clearUser = &userID
	return 0, nil
}

func (tx *memTx) commit() {
	m := tx.store
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, d := range tx.delta {
		m.stock[id] += d
	}
	for _, o := range tx.orders {
		m.orders[o.ID] = o
	}
	m.items = append(m.items, tx.items...)
	if tx.clearUser != nil {
		delete(m.carts, *tx.clearUser)
	}
}

func (tx *memTx) release() {
	m := tx.store
	m.mu.Lock()
	if len(tx.held) > 0 {
		m.lockLog = append(m.lockLog, append([]int64(nil), tx.held...))
	}
	m.mu.Unlock()

	for _, id := range tx.held {
		<-m.locks[id]
	}
	tx.held = nil
}

type recordedPublisher struct {
	mu     sync.Mutex
	orders []Order
	err    error
}

func (p *recordedPublisher) PublishOrderPlaced(ctx context.Context, o Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, o)
	return p.err
}

type recordedResults struct {
	mu      sync.Mutex
	results []string
}

func (r *recordedResults) ObserveCheckout(result string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}
