package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SivanLevi100/storefront/internal/application"
	"github.com/SivanLevi100/storefront/internal/domain/catalog"
	domain "github.com/SivanLevi100/storefront/internal/domain/order"
	domoutbox "github.com/SivanLevi100/storefront/internal/domain/outbox"
	"github.com/SivanLevi100/storefront/internal/infrastructure/memory"
	"github.com/SivanLevi100/storefront/internal/observability"
)

type sequenceNumbers struct {
	mu   sync.Mutex
	seq  []string
	next int
}

func (g *sequenceNumbers) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next < len(g.seq) {
		n := g.seq[g.next]
		g.next++
		return n
	}
	g.next++
	return fmt.Sprintf("ORD-TEST-%04d", g.next)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type failingUoW struct{ err error }

func (f failingUoW) WithinTx(context.Context, func(context.Context, application.Stores) error) error {
	return f.err
}

type fixture struct {
	store     *memory.Store
	numbers   *sequenceNumbers
	publisher *recordingPublisher
	create    *CreateOrderFromCartUseCase
	delete    *DeleteOrderUseCase
	recompute *RecomputeOrderTotalsUseCase
	status    *UpdateOrderStatusUseCase
}

func newFixture(t *testing.T, opts ...CreateOption) *fixture {
	t.Helper()
	store := memory.NewStore()
	numbers := &sequenceNumbers{}
	pub := &recordingPublisher{}
	return &fixture{
		store:     store,
		numbers:   numbers,
		publisher: pub,
		create:    NewCreateOrderFromCartUseCase(store, numbers, pub, nil, opts...),
		delete:    NewDeleteOrderUseCase(store, pub, nil),
		recompute: NewRecomputeOrderTotalsUseCase(store, nil),
		status:    NewUpdateOrderStatusUseCase(store, nil),
	}
}

// productWithID creates filler products until the requested id is reached.
func (f *fixture) productWithID(t *testing.T, id int64, price string, stock int) {
	t.Helper()
	ctx := context.Background()
	for {
		p := &catalog.Product{Name: fmt.Sprintf("p%d", id), Price: decimal.RequireFromString(price), StockQuantity: stock}
		require.NoError(t, f.store.Catalog().Create(ctx, p))
		if p.ID == id {
			return
		}
		require.Less(t, p.ID, id)
	}
}

func (f *fixture) product(t *testing.T, price string, stock int) int64 {
	t.Helper()
	p := &catalog.Product{Name: "p", Price: decimal.RequireFromString(price), StockQuantity: stock}
	require.NoError(t, f.store.Catalog().Create(context.Background(), p))
	return p.ID
}

func (f *fixture) addToCart(t *testing.T, userID, productID int64, qty int) {
	t.Helper()
	_, err := f.store.Carts().Add(context.Background(), userID, productID, qty)
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.store.Catalog().Get(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}

func (f *fixture) orders(t *testing.T) []domain.Order {
	t.Helper()
	list, err := f.store.Orders().List(context.Background(), domain.Filter{})
	require.NoError(t, err)
	return list
}

func TestCreateOrderFromCart_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const userID = int64(11)
	f.productWithID(t, 7, "10.00", 5)
	f.addToCart(t, userID, 7, 2)

	res, err := f.create.Execute(ctx, CreateOrderFromCartInput{UserID: userID})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("20.00").Equal(res.TotalAmount), res.TotalAmount.String())
	assert.Equal(t, 2, res.TotalItems)
	assert.NotEmpty(t, res.OrderNumber)
	assert.Equal(t, 3, f.stock(t, 7))

	o, err := f.store.Orders().Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, userID, o.UserID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(7), o.Items[0].ProductID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("10.00").Equal(o.Items[0].UnitPrice))
	assert.Len(t, f.orders(t), 1)

	lines, err := f.store.Carts().Lines(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = f.create.Execute(ctx, CreateOrderFromCartInput{UserID: userID})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Len(t, f.orders(t), 1)
	assert.Equal(t, 3, f.stock(t, 7))
}

func TestCreateOrderFromCart_TotalIsSumOfLines(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "3.10", 10)
	b := f.product(t, "0.45", 10)
	c := f.product(t, "100.00", 1)
	f.addToCart(t, 1, a, 3)
	f.addToCart(t, 1, b, 7)
	f.addToCart(t, 1, c, 1)

	res, err := f.create.Execute(context.Background(), CreateOrderFromCartInput{UserID: 1})
	require.NoError(t, err)

	// 3*3.10 + 7*0.45 + 1*100.00
	assert.Equal(t, "112.45", res.TotalAmount.StringFixed(2))
	assert.Equal(t, 11, res.TotalItems)
}

func TestCreateOrderFromCart_InsufficientStockChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plenty := f.product(t, "1.00", 100)
	scarce := f.product(t, "2.00", 1)
	f.addToCart(t, 5, plenty, 10)
	f.addToCart(t, 5, scarce, 2)

	_, err := f.create.Execute(ctx, CreateOrderFromCartInput{UserID: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce, stockErr.ProductID)

	assert.Empty(t, f.orders(t))
	assert.Equal(t, 100, f.stock(t, plenty))
	assert.Equal(t, 1, f.stock(t, scarce))
	lines, err := f.store.Carts().Lines(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Empty(t, f.publisher.events)
}

func TestCreateOrderFromCart_PriceSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.product(t, "10.00", 5)
	f.addToCart(t, 1, id, 1)

	res, err := f.create.Execute(ctx, CreateOrderFromCartInput{UserID: 1})
	require.NoError(t, err)

	p, err := f.store.Catalog().Get(ctx, id)
	require.NoError(t, err)
	p.Price = decimal.RequireFromString("99.99")
	require.NoError(t, f.store.Catalog().Update(ctx, p))

	o, err := f.store.Orders().Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", o.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "10.00", o.TotalAmount.StringFixed(2))

	recomputed, err := f.recompute.Execute(ctx, RecomputeOrderTotalsInput{OrderID: res.OrderID})
	require.NoError(t, err)
	assert.Equal(t, "10.00", recomputed.TotalAmount.StringFixed(2))
	assert.False(t, recomputed.Changed)
}

func TestCreateOrderFromCart_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	const stock, buyers = 5, 12
	id := f.product(t, "1.00", stock)
	for u := int64(1); u <= buyers; u++ {
		f.addToCart(t, u, id, 1)
	}

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for u := int64(1); u <= buyers; u++ {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			_, errs[u-1] = f.create.Execute(context.Background(), CreateOrderFromCartInput{UserID: u})
		}(u)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, stock, ok)
	assert.Equal(t, buyers-stock, rejected)
	assert.Equal(t, 0, f.stock(t, id))
	assert.Len(t, f.orders(t), stock)
}

func TestCreateOrderFromCart_RetriesOnNumberCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Orders().Insert(ctx, &domain.Order{Number: "ORD-DUP", Status: domain.StatusPending}))
	f.numbers.seq = []string{"ORD-DUP", "ORD-DUP", "ORD-FRESH"}
	id := f.product(t, "4.00", 5)
	f.addToCart(t, 1, id, 1)

	res, err := f.create.Execute(ctx, CreateOrderFromCartInput{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "ORD-FRESH", res.OrderNumber)
	assert.Equal(t, 4, f.stock(t, id))
}

func TestCreateOrderFromCart_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t, WithNumberAttempts(2))
	ctx := context.Background()
	require.NoError(t, f.store.Orders().Insert(ctx, &domain.Order{Number: "ORD-DUP", Status: domain.StatusPending}))
	f.numbers.seq = []string{"ORD-DUP", "ORD-DUP", "ORD-FRESH"}
	id := f.product(t, "4.00", 5)
	f.addToCart(t, 1, id, 1)

	_, err := f.create.Execute(ctx, CreateOrderFromCartInput{UserID: 1})
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, domain.ErrDuplicateNumber)
	assert.Equal(t, 5, f.stock(t, id))
	assert.Len(t, f.orders(t), 1)
}

func TestCreateOrderFromCart_StorageFailure(t *testing.T) {
	uc := NewCreateOrderFromCartUseCase(failingUoW{err: errors.New("connection reset")}, &sequenceNumbers{}, nil, nil)

	_, err := uc.Execute(context.Background(), CreateOrderFromCartInput{UserID: 1})
	assert.ErrorIs(t, err, ErrStorage)
	assert.NotErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrderFromCart_Timeout(t *testing.T) {
	uc := NewCreateOrderFromCartUseCase(failingUoW{err: context.DeadlineExceeded}, &sequenceNumbers{}, nil, nil)

	_, err := uc.Execute(context.Background(), CreateOrderFromCartInput{UserID: 1})
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCreateOrderFromCart_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.create.Execute(context.Background(), CreateOrderFromCartInput{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderFromCart_PublishesPlacedEvent(t *testing.T) {
	f := newFixture(t)
	id := f.product(t, "1.00", 5)
	f.addToCart(t, 3, id, 1)

	res, err := f.create.Execute(context.Background(), CreateOrderFromCartInput{UserID: 3})
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 1)
	evt, ok := f.publisher.events[0].(domain.PlacedEvent)
	require.True(t, ok)
	assert.Equal(t, res.OrderID, evt.OrderID)
	assert.Equal(t, []int64{id}, evt.ProductIDs)
}

func TestCreateOrderFromCart_PublishFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("bus closed")
	id := f.product(t, "1.00", 5)
	f.addToCart(t, 3, id, 1)

	res, err := f.create.Execute(context.Background(), CreateOrderFromCartInput{UserID: 3})
	require.NoError(t, err)
	assert.NotZero(t, res.OrderID)
	assert.Equal(t, 4, f.stock(t, id))
}

func TestDeleteOrder_RestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.product(t, "1.00", 10)
	p2 := f.product(t, "2.00", 10)
	f.addToCart(t, 1, p1, 3)
	f.addToCart(t, 1, p2, 4)
	res, err := f.create.Execute(ctx, CreateOrderFromCartInput{UserID: 1})
	require.NoError(t, err)
	require.Equal(t, 7, f.stock(t, p1))
	require.Equal(t, 6, f.stock(t, p2))

	deleted, err := f.delete.Execute(ctx, DeleteOrderInput{OrderID: res.OrderID})
	require.NoError(t, err)
	assert.Equal(t, 7, deleted.RestoredUnits)
	assert.Equal(t, 10, f.stock(t, p1))
	assert.Equal(t, 10, f.stock(t, p2))

	_, err = f.store.Orders().Get(ctx, res.OrderID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	items, err := f.store.Orders().Items(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, "order.deleted", f.publisher.events[1].EventName())
}

func TestDeleteOrder_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.delete.Execute(context.Background(), DeleteOrderInput{OrderID: 404})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.delete.Execute(context.Background(), DeleteOrderInput{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecomputeOrderTotals_FixesDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.product(t, "2.50", 10)
	f.addToCart(t, 1, id, 4)
	res, err := f.create.Execute(ctx, CreateOrderFromCartInput{UserID: 1})
	require.NoError(t, err)

	require.NoError(t, f.store.Orders().UpdateTotals(ctx, res.OrderID, domain.Totals{Items: 1, Amount: decimal.NewFromInt(1)}))

	got, err := f.recompute.Execute(ctx, RecomputeOrderTotalsInput{OrderID: res.OrderID})
	require.NoError(t, err)
	assert.True(t, got.Changed)
	assert.Equal(t, 4, got.TotalItems)
	assert.Equal(t, "10.00", got.TotalAmount.StringFixed(2))

	o, err := f.store.Orders().Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 4, o.TotalItems)
	assert.Equal(t, "10.00", o.TotalAmount.StringFixed(2))

	_, err = f.recompute.Execute(ctx, RecomputeOrderTotalsInput{OrderID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.product(t, "1.00", 10)
	f.addToCart(t, 1, id, 1)
	res, err := f.create.Execute(ctx, CreateOrderFromCartInput{UserID: 1})
	require.NoError(t, err)

	o, err := f.status.Execute(ctx, UpdateOrderStatusInput{OrderID: res.OrderID, Status: domain.StatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, o.Status)

	o, err = f.status.Execute(ctx, UpdateOrderStatusInput{OrderID: res.OrderID, Status: domain.StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, o.Status)

	_, err = f.status.Execute(ctx, UpdateOrderStatusInput{OrderID: res.OrderID, Status: domain.StatusCancelled})
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	stored, err := f.store.Orders().Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, stored.Status)

	_, err = f.status.Execute(ctx, UpdateOrderStatusInput{OrderID: 999, Status: domain.StatusConfirmed})
	assert.ErrorIs(t, err, ErrNotFound)
}

type recordingCounter struct {
	mu     sync.Mutex
	labels [][]observability.Label
}

func (c *recordingCounter) Add(_ float64, labels ...observability.Label) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = append(c.labels, labels)
}

func (c *recordingCounter) Bind(...observability.Label) observability.BoundCounter {
	return observability.NopCounter().Bind()
}

type recordingMetrics struct{ requests *recordingCounter }

func (m recordingMetrics) Counter(name observability.MetricKey) observability.Counter {
	if name == observability.MUsecaseRequests {
		return m.requests
	}
	return observability.NopCounter()
}

func (recordingMetrics) Histogram(observability.MetricKey) observability.Histogram {
	return observability.NopHistogram()
}

type testObservability struct{ metrics recordingMetrics }

func (testObservability) Tracer() observability.Tracer     { return observability.NopTracer() }
func (testObservability) Logger() observability.Logger     { return observability.NopLogger() }
func (o testObservability) Metrics() observability.Metrics { return o.metrics }

func TestCreateOrderFromCart_RecordsOutcome(t *testing.T) {
	requests := &recordingCounter{}
	tel := testObservability{metrics: recordingMetrics{requests: requests}}
	store := memory.NewStore()
	uc := NewCreateOrderFromCartUseCase(store, &sequenceNumbers{}, nil, tel)

	_, err := uc.Execute(context.Background(), CreateOrderFromCartInput{UserID: 1})
	require.ErrorIs(t, err, ErrEmptyCart)

	require.Len(t, requests.labels, 1)
	assert.Equal(t, []observability.Label{
		observability.L("use_case", useCaseOrderCreate),
		observability.L("outcome", "error"),
	}, requests.labels[0])
}
