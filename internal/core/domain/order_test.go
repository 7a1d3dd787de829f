package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoSellerOrder() Order {
	checkout := []CheckoutItem{
		{ItemID: "i1", Price: decimal.NewFromInt(10)},
		{ItemID: "i2", Price: decimal.NewFromInt(20)},
	}
	lines := []LineItem{
		{ItemID: "i1", SellerID: "s1", Status: LineItemPending, OTP: "012345"},
		{ItemID: "i2", SellerID: "s2", Status: LineItemPending, OTP: "543210"},
	}
	return NewOrder("o1", "b1", checkout, lines, time.Now())
}

func TestNewOrder_TotalIsSumOfCheckoutPrices(t *testing.T) {
	o := twoSellerOrder()

	assert.True(t, o.Total.Equal(decimal.NewFromInt(30)), "total %s", o.Total)
	assert.Equal(t, "b1", o.BuyerID)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, time.UTC, o.CreatedAt.Location())
}

func TestOrderStatus(t *testing.T) {
	o := twoSellerOrder()
	assert.Equal(t, OrderStatusPending, o.Status())

	o.Items[0].Status = LineItemCompleted
	assert.Equal(t, OrderStatusPending, o.Status())

	o.Items[1].Status = LineItemCompleted
	assert.Equal(t, OrderStatusCompleted, o.Status())

	assert.Equal(t, OrderStatusPending, Order{}.Status())
}

func TestFilterLines_DoesNotMutateReceiver(t *testing.T) {
	o := twoSellerOrder()

	mine := o.FilterLines(LineSoldBy("s1"))

	require.Len(t, mine.Items, 1)
	assert.Equal(t, "i1", mine.Items[0].ItemID)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, o.ID, mine.ID)
	assert.True(t, mine.Total.Equal(o.Total))
}

func TestLinePredicates(t *testing.T) {
	o := twoSellerOrder()
	o.Items[1].Status = LineItemCompleted

	assert.True(t, o.HasLine(LineWithStatus(LineItemPending)))
	assert.True(t, o.HasLine(LineSoldByWithStatus("s2", LineItemCompleted)))
	assert.False(t, o.HasLine(LineSoldByWithStatus("s1", LineItemCompleted)))
	assert.False(t, o.HasLine(LineSoldBy("s3")))
	assert.Equal(t, []string{"i1", "i2"}, o.ItemIDs())
}

func TestCategoryValid(t *testing.T) {
	for _, c := range []Category{CategoryClothing, CategoryGrocery, CategoryElectronics, CategoryOther} {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("furniture").Valid())
}

func TestNewOrderPlaced_OmitsCodes(t *testing.T) {
	ev := NewOrderPlaced(twoSellerOrder())

	assert.Equal(t, EventOrderPlaced, ev.EventType())
	assert.Equal(t, "o1", ev.Key())
	assert.Equal(t, []PlacedLine{{ItemID: "i1", SellerID: "s1"}, {ItemID: "i2", SellerID: "s2"}}, ev.Lines)
}
