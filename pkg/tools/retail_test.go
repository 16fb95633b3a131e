package tools_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anycompanyretail/shopbot/pkg/logger"
	"github.com/anycompanyretail/shopbot/pkg/orders"
	"github.com/anycompanyretail/shopbot/pkg/orders/fixture"
	"github.com/anycompanyretail/shopbot/pkg/retriever"
	"github.com/anycompanyretail/shopbot/pkg/tools"
	testutils "github.com/anycompanyretail/shopbot/pkg/utils/test"
	"github.com/anycompanyretail/shopbot/pkg/vector"
)

var _ = Describe("Retail tools", func() {
	var (
		driver   *testutils.MockVectorDriver
		registry *tools.Registry
	)

	BeforeEach(func() {
		driver = testutils.NewMockVectorDriver()

		ret, err := retriever.New(testutils.NewMockEmbedder(), driver, retriever.Config{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		registry, err = tools.NewRetailRegistry(ret, fixture.NewStore(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	It("registers the full retail tool set", func() {
		Expect(registry.Names()).To(Equal([]string{
			tools.ToolRetrieveProducts,
			tools.ToolAddProductToCart,
			tools.ToolGetOrdersForReturn,
			tools.ToolGetReturnItems,
			tools.ToolGetReturnReasons,
			tools.ToolGetEmailForReturn,
			tools.ToolGenerateReturnLabel,
		}))
	})

	Describe("retrieve_products", func() {
		It("joins retrieved document text", func() {
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "1", Text: "Knitted Cap, a warm hat"}, Score: 0.9},
				{Document: vector.Document{ID: "2", Text: "Blue Shirt, a cotton shirt"}, Score: 0.8},
			}

			res, err := registry.Dispatch(context.Background(), tools.ToolRetrieveProducts,
				map[string]string{"query": "warm hats"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.DirectReturn).To(BeFalse())
			Expect(res.Observation).To(Equal("Knitted Cap, a warm hat\nBlue Shirt, a cotton shirt\n"))
		})
	})

	Describe("add_product_to_cart", func() {
		It("confirms the addition and returns directly", func() {
			res, err := registry.Dispatch(context.Background(), tools.ToolAddProductToCart,
				map[string]string{"product": "Knitted Cap"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.DirectReturn).To(BeTrue())
			Expect(res.Observation).To(Equal("Added 'Knitted Cap' to cart."))
		})
	})

	Describe("get_orders_for_return", func() {
		It("lists returnable orders with items and reasons", func() {
			res, err := registry.Dispatch(context.Background(), tools.ToolGetOrdersForReturn,
				map[string]string{"query": "I want to return something"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Observation).To(ContainSubstring("OrderId: OT1002"))
			Expect(res.Observation).To(ContainSubstring("- Knitted Cap, Price: 100,  Qty: 2"))
			Expect(res.Observation).To(ContainSubstring("OrderId: OT1003"))
			Expect(res.Observation).To(ContainSubstring("- Blue Shirt, Price: 300,  Qty: 1"))
			Expect(res.Observation).To(ContainSubstring("Return Reasons:"))
			Expect(res.Observation).To(ContainSubstring("- Low Quality"))
			Expect(res.Observation).To(ContainSubstring("- Other - Please specify"))
		})
	})

	Describe("get_return_items", func() {
		It("lists the items for a known order", func() {
			res, err := registry.Dispatch(context.Background(), tools.ToolGetReturnItems,
				map[string]string{"order_no": "OT1002"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Observation).To(ContainSubstring("OrderId: OT1002"))
			Expect(res.Observation).To(ContainSubstring("- Knitted Cap, Price: 100,  Qty: 2"))
			Expect(res.Observation).To(ContainSubstring("also mention Return Reason:"))
		})

		It("fails with an execution error for unknown orders", func() {
			_, err := registry.Dispatch(context.Background(), tools.ToolGetReturnItems,
				map[string]string{"order_no": "OT9999"})

			var execErr *tools.ExecutionError
			Expect(err).To(BeAssignableToTypeOf(execErr))
			Expect(err).To(MatchError(orders.ErrOrderNotFound))
		})
	})

	Describe("get_return_reasons", func() {
		It("acknowledges the product and lists reasons", func() {
			res, err := registry.Dispatch(context.Background(), tools.ToolGetReturnReasons,
				map[string]string{"product": "Knitted Cap"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.DirectReturn).To(BeTrue())
			Expect(res.Observation).To(ContainSubstring("Added Knitted Cap for return."))
			Expect(res.Observation).To(ContainSubstring("- Small Size"))
		})
	})

	Describe("get_email_for_return", func() {
		It("asks for an email address", func() {
			res, err := registry.Dispatch(context.Background(), tools.ToolGetEmailForReturn,
				map[string]string{"reason": "Low Quality"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.DirectReturn).To(BeTrue())
			Expect(res.Observation).To(Equal("Please provide email address for sending return label."))
		})
	})

	Describe("generate_return_label", func() {
		It("summarizes the request as an observation for the model", func() {
			res, err := registry.Dispatch(context.Background(), tools.ToolGenerateReturnLabel,
				map[string]string{
					"order_no": "OT1002",
					"email":    "shopper@example.com",
					"product":  "Knitted Cap",
					"quantity": "1",
					"reason":   "Small Size",
				})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.DirectReturn).To(BeFalse())
			Expect(res.Observation).To(ContainSubstring("Order ID: OT1002"))
			Expect(res.Observation).To(ContainSubstring("Product: Knitted Cap"))
			Expect(res.Observation).To(ContainSubstring("Quantity: 1"))
			Expect(res.Observation).To(ContainSubstring("Return Reason: Small Size"))
			Expect(res.Observation).To(ContainSubstring("Sent return label to given email address shopper@example.com for order OT1002."))
			Expect(res.Observation).To(ContainSubstring("Can I assist you with anything else today?"))
		})
	})
})
