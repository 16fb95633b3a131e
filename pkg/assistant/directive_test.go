package assistant_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anycompanyretail/shopbot/pkg/assistant"
)

var _ = Describe("ParseDirective", func() {
	It("parses a tool call with object arguments", func() {
		d := assistant.ParseDirective(`{"action": "retrieve_products", "action_input": {"query": "blue shirts"}}`)

		call, ok := d.(assistant.ToolCall)
		Expect(ok).To(BeTrue())
		Expect(call.Name).To(Equal("retrieve_products"))
		Expect(call.Args).To(Equal(map[string]string{"query": "blue shirts"}))
	})

	It("parses a tool call inside a fenced code block", func() {
		d := assistant.ParseDirective("I should search the catalog.\n```json\n{\"action\": \"retrieve_products\", \"action_input\": {\"query\": \"hats\"}}\n```")

		call, ok := d.(assistant.ToolCall)
		Expect(ok).To(BeTrue())
		Expect(call.Name).To(Equal("retrieve_products"))
		Expect(call.Args).To(HaveKeyWithValue("query", "hats"))
	})

	It("parses a bare-string action input", func() {
		d := assistant.ParseDirective(`{"action": "add_product_to_cart", "action_input": "red hat"}`)

		call, ok := d.(assistant.ToolCall)
		Expect(ok).To(BeTrue())
		Expect(call.Args).To(BeNil())
		Expect(call.Input).To(Equal("red hat"))
	})

	It("stringifies non-string argument values", func() {
		d := assistant.ParseDirective(`{"action": "generate_return_label", "action_input": {"order_no": "OT1002", "quantity": 2}}`)

		call, ok := d.(assistant.ToolCall)
		Expect(ok).To(BeTrue())
		Expect(call.Args).To(HaveKeyWithValue("quantity", "2"))
	})

	It("treats a Final Answer action as the reply", func() {
		d := assistant.ParseDirective(`{"action": "Final Answer", "action_input": "Here are your blue shirts."}`)

		final, ok := d.(assistant.FinalAnswer)
		Expect(ok).To(BeTrue())
		Expect(final.Text).To(Equal("Here are your blue shirts."))
	})

	It("treats plain text as the reply", func() {
		d := assistant.ParseDirective("  I'm ShoppingBot, a shopping assistant.  ")

		final, ok := d.(assistant.FinalAnswer)
		Expect(ok).To(BeTrue())
		Expect(final.Text).To(Equal("I'm ShoppingBot, a shopping assistant."))
	})

	It("treats malformed JSON as the reply", func() {
		d := assistant.ParseDirective(`{"action": "retrieve_products", "action_input":`)

		_, ok := d.(assistant.FinalAnswer)
		Expect(ok).To(BeTrue())
	})
})
