package placement

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lumierecia/restaurant-pos/internal/ledger"
	"github.com/lumierecia/restaurant-pos/internal/orders"
	"github.com/lumierecia/restaurant-pos/internal/recipes"
	"github.com/lumierecia/restaurant-pos/internal/reservation"
	"github.com/lumierecia/restaurant-pos/pkg/db"
	"github.com/lumierecia/restaurant-pos/pkg/db/dbtest"
	"github.com/lumierecia/restaurant-pos/pkg/db/models"
	"github.com/lumierecia/restaurant-pos/pkg/enums"
	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
	"github.com/lumierecia/restaurant-pos/pkg/metrics"
	"github.com/lumierecia/restaurant-pos/pkg/outbox"
	"github.com/lumierecia/restaurant-pos/pkg/outbox/payloads"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type fixture struct {
	conn *gorm.DB
	svc  *Service
	reg  *prometheus.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)

	resolver, err := recipes.NewResolver(recipes.NewRepository(conn))
	require.NoError(t, err)
	engine, err := reservation.NewEngine(ledger.NewRepository(conn))
	require.NoError(t, err)
	writer, err := orders.NewWriter(orders.NewRepository(conn))
	require.NoError(t, err)
	publisher := outbox.NewService(outbox.NewRepository(conn), nil)

	reg := prometheus.NewRegistry()
	svc, err := NewService(db.FromGorm(conn), resolver, engine, writer, publisher, WithMetrics(metrics.NewPlacementMetrics(reg)))
	require.NoError(t, err)
	return fixture{conn: conn, svc: svc, reg: reg}
}

func dineIn() Candidate {
	return Candidate{CustomerID: 21, OrderType: enums.OrderTypeDineIn}
}

func TestPlaceOrderCommitsAggregate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dough := dbtest.Ingredient(t, f.conn, "Dough", "10", "2")
	sauce := dbtest.Ingredient(t, f.conn, "Sauce", "5", "1")
	pizza := dbtest.Dish(t, f.conn, "Margherita", "11.00", map[int64]string{dough: "1", sauce: "0.5"})

	orderID, err := f.svc.PlaceOrder(ctx, dineIn(), []Item{{DishID: pizza, Quantity: 2, UnitPrice: dec("11.00")}}, []int64{4, 4, 9}, 4)
	require.NoError(t, err)
	require.Positive(t, orderID)

	var order models.Order
	require.NoError(t, f.conn.First(&order, "order_id = ?", orderID).Error)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.True(t, order.TotalAmount.Equal(dec("22")))

	assert.True(t, dbtest.Stock(t, f.conn, dough).Equal(dec("8")))
	assert.True(t, dbtest.Stock(t, f.conn, sauce).Equal(dec("4")))

	var movements []models.IngredientMovement
	require.NoError(t, f.conn.Order("ingredient_id").Find(&movements).Error)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, enums.MovementUsage, m.Kind)
		require.NotNil(t, m.OrderID)
		assert.Equal(t, orderID, *m.OrderID)
		assert.Equal(t, int64(4), m.EmployeeID)
	}

	assert.Equal(t, int64(1), dbtest.Count(t, f.conn, &models.OrderItem{}))
	// duplicate employee ids collapse to one assignment each
	assert.Equal(t, int64(2), dbtest.Count(t, f.conn, &models.OrderEmployeeAssignment{}))

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventOrderPlaced).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, orderID, events[0].AggregateID)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var placed payloads.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &placed))
	assert.Equal(t, []int64{4, 9}, placed.EmployeeIDs)
	require.Len(t, placed.Usage, 2)
	assert.True(t, placed.Usage[0].Quantity.Equal(dec("2")))

	assert.Equal(t, float64(1), counterValue(t, f.reg, "pos_orders_placements_total", "outcome", metrics.OutcomePlaced))
}

// Two dishes sharing an ingredient deduct the summed requirement.
func TestPlaceOrderSumsSharedIngredient(t *testing.T) {
	f := newFixture(t)
	cheese := dbtest.Ingredient(t, f.conn, "Cheese", "20", "1")
	x := dbtest.Dish(t, f.conn, "Dish X", "5", map[int64]string{cheese: "2"})
	y := dbtest.Dish(t, f.conn, "Dish Y", "6", map[int64]string{cheese: "3"})

	_, err := f.svc.PlaceOrder(context.Background(), dineIn(), []Item{
		{DishID: x, Quantity: 1, UnitPrice: dec("5")},
		{DishID: y, Quantity: 1, UnitPrice: dec("6")},
	}, []int64{1}, 1)
	require.NoError(t, err)

	assert.True(t, dbtest.Stock(t, f.conn, cheese).Equal(dec("15")))
	var movement models.IngredientMovement
	require.NoError(t, f.conn.First(&movement, "ingredient_id = ?", cheese).Error)
	assert.True(t, movement.QuantityChange.Equal(dec("-5")))
	assert.Equal(t, int64(1), dbtest.Count(t, f.conn, &models.IngredientMovement{}))
}

func TestPlaceOrderValidationOpensNoTransaction(t *testing.T) {
	tx := &countingTx{}
	svc, err := NewService(tx, stubResolver{}, stubReserver{}, stubWriter{}, stubPublisher{})
	require.NoError(t, err)

	item := []Item{{DishID: 1, Quantity: 1, UnitPrice: dec("3")}}
	cases := map[string]struct {
		candidate Candidate
		items     []Item
		employees []int64
		actor     int64
	}{
		"empty items":        {dineIn(), nil, []int64{1}, 1},
		"empty employees":    {dineIn(), item, nil, 1},
		"missing customer":   {Candidate{OrderType: enums.OrderTypeTakeOut}, item, []int64{1}, 1},
		"bad order type":     {Candidate{CustomerID: 1, OrderType: "drive_thru"}, item, []int64{1}, 1},
		"bad status":         {Candidate{CustomerID: 1, OrderType: enums.OrderTypeDelivery, Status: "lost"}, item, []int64{1}, 1},
		"bad payment status": {Candidate{CustomerID: 1, OrderType: enums.OrderTypeDelivery, PaymentStatus: "refunded"}, item, []int64{1}, 1},
		"zero quantity":      {dineIn(), []Item{{DishID: 1, Quantity: 0, UnitPrice: dec("3")}}, []int64{1}, 1},
		"negative price":     {dineIn(), []Item{{DishID: 1, Quantity: 1, UnitPrice: dec("-1")}}, []int64{1}, 1},
		"sub-cent price":     {dineIn(), []Item{{DishID: 1, Quantity: 3, UnitPrice: dec("0.333")}}, []int64{1}, 1},
		"missing dish":       {dineIn(), []Item{{Quantity: 1, UnitPrice: dec("1")}}, []int64{1}, 1},
		"duplicate dish":     {dineIn(), []Item{{DishID: 1, Quantity: 1}, {DishID: 1, Quantity: 2}}, []int64{1}, 1},
		"bad employee":       {dineIn(), item, []int64{0}, 1},
		"missing actor":      {dineIn(), item, []int64{1}, 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), tc.candidate, tc.items, tc.employees, tc.actor)
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
		})
	}
	assert.Zero(t, tx.calls)
}

func TestPlaceOrderEmptyItemsWritesNothing(t *testing.T) {
	f := newFixture(t)
	flour := dbtest.Ingredient(t, f.conn, "Flour", "10", "1")

	_, err := f.svc.PlaceOrder(context.Background(), dineIn(), []Item{}, []int64{1}, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	assert.True(t, dbtest.Stock(t, f.conn, flour).Equal(dec("10")))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.Order{}))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.IngredientMovement{}))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.OutboxEvent{}))
}

func TestPlaceOrderShortfallLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	rice := dbtest.Ingredient(t, f.conn, "Rice", "10", "1")
	saffron := dbtest.Ingredient(t, f.conn, "Saffron", "0.1", "0.05")
	paella := dbtest.Dish(t, f.conn, "Paella", "18", map[int64]string{rice: "2", saffron: "0.2"})

	_, err := f.svc.PlaceOrder(context.Background(), dineIn(), []Item{{DishID: paella, Quantity: 1, UnitPrice: dec("18")}}, []int64{1}, 1)
	require.Error(t, err)
	details, ok := pkgerrors.AsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, saffron, details.IngredientID)
	assert.True(t, details.Required.Equal(dec("0.2")))
	assert.True(t, details.Available.Equal(dec("0.1")))

	assert.True(t, dbtest.Stock(t, f.conn, rice).Equal(dec("10")))
	assert.True(t, dbtest.Stock(t, f.conn, saffron).Equal(dec("0.1")))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.Order{}))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.OrderItem{}))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.OrderEmployeeAssignment{}))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.IngredientMovement{}))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.OutboxEvent{}))

	assert.Equal(t, float64(1), counterValue(t, f.reg, "pos_inventory_insufficient_stock_total", "ingredient_id", formatID(saffron)))
}

func TestPlaceOrderUnknownDish(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), dineIn(), []Item{{DishID: 404, Quantity: 1, UnitPrice: dec("1")}}, []int64{1}, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.Order{}))
}

// A failing assignment insert after stock was reserved rolls the stock back.
func TestPlaceOrderAssignmentFailureRestoresStock(t *testing.T) {
	f := newFixture(t)
	beans := dbtest.Ingredient(t, f.conn, "Beans", "7", "1")
	chili := dbtest.Dish(t, f.conn, "Chili", "9", map[int64]string{beans: "3"})
	require.NoError(t, f.conn.Exec(`CREATE TRIGGER fail_assignments BEFORE INSERT ON assigned_employees_to_orders
BEGIN
	SELECT RAISE(ABORT, 'simulated failure');
END;`).Error)

	_, err := f.svc.PlaceOrder(context.Background(), dineIn(), []Item{{DishID: chili, Quantity: 2, UnitPrice: dec("9")}}, []int64{3}, 3)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeWriteFailed), "got %v", err)
	assert.Contains(t, err.Error(), "simulated failure")

	assert.True(t, dbtest.Stock(t, f.conn, beans).Equal(dec("7")))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.Order{}))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.OrderItem{}))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.IngredientMovement{}))
	assert.Zero(t, dbtest.Count(t, f.conn, &models.OutboxEvent{}))
}

func TestConcurrentPlacementsCannotOversell(t *testing.T) {
	f := newFixture(t)
	flour := dbtest.Ingredient(t, f.conn, "Flour", "10", "1")
	loaf := dbtest.Dish(t, f.conn, "Loaf", "4", map[int64]string{flour: "6"})

	type outcome struct {
		id  int64
		err error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := f.svc.PlaceOrder(context.Background(), dineIn(), []Item{{DishID: loaf, Quantity: 1, UnitPrice: dec("4")}}, []int64{1}, 1)
			results <- outcome{id: id, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var placed, rejected int
	for res := range results {
		if res.err == nil {
			placed++
			continue
		}
		details, ok := pkgerrors.AsInsufficientStock(res.err)
		require.True(t, ok, "unexpected error: %v", res.err)
		assert.True(t, details.Required.Equal(dec("6")))
		assert.True(t, details.Available.LessThanOrEqual(dec("4")))
		rejected++
	}
	assert.Equal(t, 1, placed)
	assert.Equal(t, 1, rejected)
	assert.True(t, dbtest.Stock(t, f.conn, flour).Equal(dec("4")))
}

func TestManyConcurrentPlacementsExhaustStock(t *testing.T) {
	f := newFixture(t)
	eggs := dbtest.Ingredient(t, f.conn, "Eggs", "10", "2")
	omelette := dbtest.Dish(t, f.conn, "Omelette", "7", map[int64]string{eggs: "3"})

	const attempts = 6
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.PlaceOrder(context.Background(), dineIn(), []Item{{DishID: omelette, Quantity: 1, UnitPrice: dec("7")}}, []int64{1}, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var placed int
	for err := range errs {
		if err == nil {
			placed++
			continue
		}
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))
	}
	assert.Equal(t, 3, placed)
	stock := dbtest.Stock(t, f.conn, eggs)
	assert.False(t, stock.IsNegative())
	assert.True(t, stock.Equal(dec("1")))
}

func TestOverlappingOrdersInOppositeOrderBothComplete(t *testing.T) {
	f := newFixture(t)
	a := dbtest.Ingredient(t, f.conn, "Onion", "10", "1")
	b := dbtest.Ingredient(t, f.conn, "Garlic", "10", "1")
	ab := dbtest.Dish(t, f.conn, "Soup", "5", map[int64]string{a: "1", b: "1"})
	onlyB := dbtest.Dish(t, f.conn, "Garlic bread", "3", map[int64]string{b: "2"})
	onlyA := dbtest.Dish(t, f.conn, "Onion rings", "4", map[int64]string{a: "2"})

	first := []Item{{DishID: onlyB, Quantity: 1, UnitPrice: dec("3")}, {DishID: ab, Quantity: 1, UnitPrice: dec("5")}}
	second := []Item{{DishID: onlyA, Quantity: 1, UnitPrice: dec("4")}, {DishID: ab, Quantity: 1, UnitPrice: dec("5")}}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, items := range [][]Item{first, second} {
		wg.Add(1)
		go func(items []Item) {
			defer wg.Done()
			_, err := f.svc.PlaceOrder(context.Background(), dineIn(), items, []int64{1}, 1)
			errs <- err
		}(items)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.True(t, dbtest.Stock(t, f.conn, a).Equal(dec("6")))
	assert.True(t, dbtest.Stock(t, f.conn, b).Equal(dec("6")))
}

func TestMenuPriceChangeDoesNotTouchPlacedOrder(t *testing.T) {
	f := newFixture(t)
	tea := dbtest.Ingredient(t, f.conn, "Tea leaves", "100", "5")
	cup := dbtest.Dish(t, f.conn, "Tea", "2.50", map[int64]string{tea: "1"})

	orderID, err := f.svc.PlaceOrder(context.Background(), dineIn(), []Item{{DishID: cup, Quantity: 3, UnitPrice: dec("2.50")}}, []int64{1}, 1)
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Dish{}).Where("dish_id = ?", cup).Update("price", dec("4.00")).Error)

	var item models.OrderItem
	require.NoError(t, f.conn.First(&item, "order_id = ? AND dish_id = ?", orderID, cup).Error)
	assert.True(t, item.PriceAtTime.Equal(dec("2.5")))
	var order models.Order
	require.NoError(t, f.conn.First(&order, "order_id = ?", orderID).Error)
	assert.True(t, order.TotalAmount.Equal(dec("7.5")))
}

func TestLedgerStaysConsistentWithStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	milk := dbtest.Ingredient(t, f.conn, "Milk", "12", "2")
	latte := dbtest.Dish(t, f.conn, "Latte", "4", map[int64]string{milk: "0.3"})

	for i := 0; i < 4; i++ {
		_, err := f.svc.PlaceOrder(ctx, dineIn(), []Item{{DishID: latte, Quantity: i + 1, UnitPrice: dec("4")}}, []int64{1}, 1)
		require.NoError(t, err)
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(f.conn), db.FromGorm(f.conn))
	require.NoError(t, err)
	_, err = ledgerSvc.Restock(ctx, ledger.RestockInput{IngredientID: milk, Quantity: dec("5"), ActorEmployeeID: 2})
	require.NoError(t, err)

	rec, err := ledgerSvc.Reconcile(ctx, milk, dec("12"))
	require.NoError(t, err)
	assert.True(t, rec.Balanced, "expected %s, actual %s", rec.Expected, rec.Actual)
	assert.True(t, rec.Actual.Equal(dec("14")))
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil, nil)
	require.Error(t, err)
	_, err = NewService(&countingTx{}, stubResolver{}, nil, stubWriter{}, stubPublisher{})
	require.Error(t, err)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m, label, value) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
