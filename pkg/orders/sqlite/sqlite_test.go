package sqlite_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anycompanyretail/shopbot/pkg/logger"
	"github.com/anycompanyretail/shopbot/pkg/orders"
	"github.com/anycompanyretail/shopbot/pkg/orders/sqlite"
)

func TestSQLiteOrders(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Orders SQLite Suite")
}

var _ = Describe("Store", func() {
	var store *sqlite.Store

	seed := []orders.Order{
		{ID: "OT1002", Items: []orders.Item{{Name: "Knitted Cap", Price: "100", Quantity: "2"}}},
		{ID: "OT1003", Items: []orders.Item{{Name: "Blue Shirt", Price: "300", Quantity: "1"}}},
	}

	BeforeEach(func() {
		var err error
		store, err = sqlite.NewStore(sqlite.Config{DBPath: ":memory:"}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Seed(context.Background(), seed)).To(Succeed())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("requires a database path", func() {
		_, err := sqlite.NewStore(sqlite.Config{}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("lists seeded orders as returnable", func() {
		got, err := store.ReturnableOrders(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))
		Expect(got[0].ID).To(Equal("OT1002"))
		Expect(got[0].Items[0].Name).To(Equal("Knitted Cap"))
	})

	It("finds an order by id", func() {
		order, err := store.ItemsForOrder(context.Background(), "OT1003")
		Expect(err).NotTo(HaveOccurred())
		Expect(order.Items[0]).To(Equal(orders.Item{Name: "Blue Shirt", Price: "300", Quantity: "1"}))
	})

	It("returns ErrOrderNotFound for unknown ids", func() {
		_, err := store.ItemsForOrder(context.Background(), "OT9999")
		Expect(err).To(MatchError(orders.ErrOrderNotFound))
	})

	It("reseeding replaces an order's items", func() {
		updated := []orders.Order{
			{ID: "OT1002", Items: []orders.Item{{Name: "Wool Cap", Price: "120", Quantity: "1"}}},
		}
		Expect(store.Seed(context.Background(), updated)).To(Succeed())

		order, err := store.ItemsForOrder(context.Background(), "OT1002")
		Expect(err).NotTo(HaveOccurred())
		Expect(order.Items).To(HaveLen(1))
		Expect(order.Items[0].Name).To(Equal("Wool Cap"))
	})
})
