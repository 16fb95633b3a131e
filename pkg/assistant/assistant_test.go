package assistant_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anycompanyretail/shopbot/pkg/assistant"
	"github.com/anycompanyretail/shopbot/pkg/logger"
	"github.com/anycompanyretail/shopbot/pkg/memory"
	"github.com/anycompanyretail/shopbot/pkg/orders/fixture"
	"github.com/anycompanyretail/shopbot/pkg/prompt"
	"github.com/anycompanyretail/shopbot/pkg/retriever"
	"github.com/anycompanyretail/shopbot/pkg/tools"
	testutils "github.com/anycompanyretail/shopbot/pkg/utils/test"
	"github.com/anycompanyretail/shopbot/pkg/vector"
)

func TestAssistant(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Assistant Suite")
}

func newRetriever(driver *testutils.MockVectorDriver) *retriever.Retriever {
	ret, err := retriever.New(testutils.NewMockEmbedder(), driver, retriever.Config{}, logger.Nop())
	Expect(err).NotTo(HaveOccurred())
	return ret
}

var _ = Describe("New", func() {
	It("requires a backend", func() {
		_, err := assistant.New(assistant.Config{Mode: assistant.ModeChat}, logger.Nop())
		Expect(err).To(MatchError(assistant.ErrConfiguration))
	})

	It("rejects unknown modes", func() {
		_, err := assistant.New(assistant.Config{
			Backend: testutils.NewMockBackend(),
			Mode:    assistant.Mode("telepathy"),
		}, logger.Nop())
		Expect(err).To(MatchError(assistant.ErrConfiguration))
	})

	It("fails qa mode without a retriever before any backend call", func() {
		backend := testutils.NewMockBackend("never used")

		_, err := assistant.New(assistant.Config{
			Backend: backend,
			Mode:    assistant.ModeQA,
		}, logger.Nop())
		Expect(err).To(MatchError(assistant.ErrConfiguration))
		Expect(backend.Calls()).To(BeZero())
	})

	It("fails agent mode without tools", func() {
		_, err := assistant.New(assistant.Config{
			Backend: testutils.NewMockBackend(),
			Mode:    assistant.ModeAgent,
		}, logger.Nop())
		Expect(err).To(MatchError(assistant.ErrConfiguration))
	})

	It("rejects templates missing a mode-required slot", func() {
		_, err := assistant.New(assistant.Config{
			Backend:   testutils.NewMockBackend(),
			Mode:      assistant.ModeQA,
			Retriever: newRetriever(testutils.NewMockVectorDriver()),
			Template:  prompt.New("answer {question} with no grounding"),
		}, logger.Nop())
		Expect(err).To(MatchError(assistant.ErrConfiguration))
		Expect(err.Error()).To(ContainSubstring("context"))
	})
})

var _ = Describe("Chat mode", func() {
	It("makes one backend call and appends the exchange to memory", func() {
		backend := testutils.NewMockBackend("Hello there!")

		a, err := assistant.New(assistant.Config{
			Backend: backend,
			Mode:    assistant.ModeChat,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		answer, err := a.Submit(context.Background(), "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("Hello there!"))
		Expect(backend.Calls()).To(Equal(1))

		turns, err := a.Memory().Turns()
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(Equal([]memory.Turn{{Human: "hi", Assistant: "Hello there!"}}))
	})

	It("substitutes history into the prompt", func() {
		backend := testutils.NewMockBackend("first", "second")

		a, err := assistant.New(assistant.Config{
			Backend: backend,
			Mode:    assistant.ModeChat,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = a.Submit(context.Background(), "one")
		Expect(err).NotTo(HaveOccurred())
		_, err = a.Submit(context.Background(), "two")
		Expect(err).NotTo(HaveOccurred())

		Expect(backend.Prompts[1]).To(ContainSubstring("Human: one"))
		Expect(backend.Prompts[1]).To(ContainSubstring("Assistant: first"))
		Expect(backend.Prompts[1]).To(ContainSubstring("Human: two"))
	})

	It("leaves memory unmodified when the backend fails", func() {
		backend := testutils.NewMockBackend()
		backend.Err = errors.New("rate limited")

		a, err := assistant.New(assistant.Config{
			Backend: backend,
			Mode:    assistant.ModeChat,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = a.Submit(context.Background(), "hi")
		Expect(err).To(HaveOccurred())
		Expect(a.Memory().Len()).To(BeZero())
	})
})

var _ = Describe("QA mode", func() {
	var driver *testutils.MockVectorDriver

	BeforeEach(func() {
		driver = testutils.NewMockVectorDriver()
	})

	newQA := func(backend *testutils.MockBackend) *assistant.Assistant {
		a, err := assistant.New(assistant.Config{
			Backend:   backend,
			Mode:      assistant.ModeQA,
			Retriever: newRetriever(driver),
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		return a
	}

	It("assembles retrieved documents into the context in rank order", func() {
		driver.Results = []vector.QueryResult{
			{Document: vector.Document{ID: "a", Text: "Blue Shirt A"}, Score: 0.9},
			{Document: vector.Document{ID: "b", Text: "Blue Shirt B"}, Score: 0.8},
		}
		backend := testutils.NewMockBackend("We have two blue shirts.")

		a := newQA(backend)
		answer, err := a.Submit(context.Background(), "show me blue shirts")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("We have two blue shirts."))

		Expect(backend.Prompts).To(HaveLen(1))
		Expect(backend.Prompts[0]).To(ContainSubstring("Blue Shirt A\nBlue Shirt B"))
		Expect(backend.Prompts[0]).To(ContainSubstring("<question>show me blue shirts</question>"))
	})

	It("completes with an empty context when retrieval finds nothing", func() {
		backend := testutils.NewMockBackend("Sorry, nothing matched.")

		a := newQA(backend)
		answer, err := a.Submit(context.Background(), "show me unicorn hats")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("Sorry, nothing matched."))
		Expect(backend.Calls()).To(Equal(1))
	})

	It("condenses follow-up questions using the history", func() {
		driver.Results = []vector.QueryResult{
			{Document: vector.Document{ID: "a", Text: "Blue Shirt A"}, Score: 0.9},
		}
		backend := testutils.NewMockBackend(
			"We have blue shirts.",
			"What sizes do the blue shirts come in?",
			"They come in S, M and L.",
		)

		a := newQA(backend)
		_, err := a.Submit(context.Background(), "show me blue shirts")
		Expect(err).NotTo(HaveOccurred())

		answer, err := a.Submit(context.Background(), "what sizes do they come in?")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("They come in S, M and L."))

		// Second turn: condensation call then the answer call.
		Expect(backend.Calls()).To(Equal(3))
		Expect(backend.Prompts[1]).To(ContainSubstring("previous conversation"))
		Expect(backend.Prompts[1]).To(ContainSubstring("what sizes do they come in?"))
	})

	It("drops lowest-ranked documents past the token budget", func() {
		big := make([]byte, 6000)
		for i := range big {
			big[i] = 'x'
		}
		driver.Results = []vector.QueryResult{
			{Document: vector.Document{ID: "a", Text: "Blue Shirt A"}, Score: 0.9},
			{Document: vector.Document{ID: "b", Text: string(big)}, Score: 0.8},
		}
		backend := testutils.NewMockBackend("Answer.")

		a, err := assistant.New(assistant.Config{
			Backend:    backend,
			Mode:       assistant.ModeQA,
			Retriever:  newRetriever(driver),
			TokenLimit: 1000,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = a.Submit(context.Background(), "blue shirts")
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.Prompts[0]).To(ContainSubstring("Blue Shirt A"))
		Expect(backend.Prompts[0]).NotTo(ContainSubstring(string(big)))
	})

	It("propagates retrieval failures and leaves memory unmodified", func() {
		driver.FailQuery = true
		backend := testutils.NewMockBackend("never used")

		a := newQA(backend)
		_, err := a.Submit(context.Background(), "blue shirts")
		Expect(err).To(MatchError(retriever.ErrRetrieval))
		Expect(a.Memory().Len()).To(BeZero())
		Expect(backend.Calls()).To(BeZero())
	})
})

var _ = Describe("Agent mode", func() {
	var registry *tools.Registry

	BeforeEach(func() {
		driver := testutils.NewMockVectorDriver()
		driver.Results = []vector.QueryResult{
			{Document: vector.Document{ID: "1", Text: "Red Hat, a warm red hat"}, Score: 0.9},
		}

		var err error
		registry, err = tools.NewRetailRegistry(newRetriever(driver), fixture.NewStore(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	newAgent := func(backend *testutils.MockBackend) *assistant.Assistant {
		a, err := assistant.New(assistant.Config{
			Backend:  backend,
			Mode:     assistant.ModeAgent,
			Tools:    registry,
			Greeting: "How can I help you?",
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		return a
	}

	It("seeds the greeting as the opening assistant message", func() {
		a := newAgent(testutils.NewMockBackend())
		turns, err := a.Memory().Turns()
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(1))
		Expect(turns[0].Assistant).To(Equal("How can I help you?"))
	})

	It("returns a direct-return tool's output verbatim with no further model call", func() {
		backend := testutils.NewMockBackend(
			`{"action": "add_product_to_cart", "action_input": {"product": "red hat"}}`,
		)

		a := newAgent(backend)
		answer, err := a.Submit(context.Background(), "add the red hat to my cart")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("Added 'red hat' to cart."))
		Expect(backend.Calls()).To(Equal(1))
	})

	It("feeds tool observations back through the model", func() {
		backend := testutils.NewMockBackend(
			`{"action": "retrieve_products", "action_input": {"query": "red hats"}}`,
			`{"action": "Final Answer", "action_input": "We carry the Red Hat, a warm red hat."}`,
		)

		a := newAgent(backend)
		answer, err := a.Submit(context.Background(), "do you have red hats?")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("We carry the Red Hat, a warm red hat."))
		Expect(backend.Calls()).To(Equal(2))
		Expect(backend.Prompts[1]).To(ContainSubstring("Observation: Red Hat, a warm red hat"))
	})

	It("treats a plain-text response as the final answer", func() {
		backend := testutils.NewMockBackend("I'm ShoppingBot, a shopping assistant.")

		a := newAgent(backend)
		answer, err := a.Submit(context.Background(), "who are you?")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("I'm ShoppingBot, a shopping assistant."))
	})

	It("never exceeds the iteration cap and returns the best available text", func() {
		backend := testutils.NewMockBackend(
			`{"action": "retrieve_products", "action_input": {"query": "hats"}}`,
			`{"action": "retrieve_products", "action_input": {"query": "more hats"}}`,
		)

		a := newAgent(backend)
		answer, err := a.Submit(context.Background(), "hats?")
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.Calls()).To(Equal(2))
		Expect(answer).To(ContainSubstring("Red Hat"))
	})

	It("fails closed on unknown tool names and leaves memory unmodified", func() {
		backend := testutils.NewMockBackend(
			`{"action": "launch_rockets", "action_input": {"target": "moon"}}`,
		)

		a := newAgent(backend)
		before := a.Memory().Len()

		_, err := a.Submit(context.Background(), "do something weird")
		Expect(err).To(MatchError(tools.ErrUnknownTool))
		Expect(a.Memory().Len()).To(Equal(before))
	})

	It("injects tool failures as observations instead of aborting", func() {
		backend := testutils.NewMockBackend(
			`{"action": "get_return_items", "action_input": {"order_no": "OT9999"}}`,
			`{"action": "Final Answer", "action_input": "I could not find that order, could you check the number?"}`,
		)

		a := newAgent(backend)
		answer, err := a.Submit(context.Background(), "return items for OT9999")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(ContainSubstring("could not find that order"))
		Expect(backend.Prompts[1]).To(ContainSubstring("The tool failed:"))
	})

	It("feeds the return label summary back through the model", func() {
		backend := testutils.NewMockBackend(
			`{"action": "generate_return_label", "action_input": {"order_no": "OT1002", "email": "shopper@example.com", "product": "Knitted Cap", "quantity": "1", "reason": "Small Size"}}`,
			`{"action": "Final Answer", "action_input": "Your return label for OT1002 is on its way to shopper@example.com."}`,
		)

		a := newAgent(backend)
		answer, err := a.Submit(context.Background(), "send my return label to shopper@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.Calls()).To(Equal(2))
		Expect(backend.Prompts[1]).To(ContainSubstring("Sent return label to given email address shopper@example.com for order OT1002."))
		Expect(answer).To(Equal("Your return label for OT1002 is on its way to shopper@example.com."))
	})

	It("surfaces missing tool arguments as recoverable observations", func() {
		backend := testutils.NewMockBackend(
			`{"action": "generate_return_label", "action_input": {"order_no": "OT1002", "product": "Knitted Cap", "quantity": "1", "reason": "Small Size"}}`,
			`{"action": "Final Answer", "action_input": "Could you share the email address for the return label?"}`,
		)

		a := newAgent(backend)
		answer, err := a.Submit(context.Background(), "return my knitted cap from OT1002")
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.Prompts[1]).To(ContainSubstring(`missing argument "email"`))
		Expect(answer).To(ContainSubstring("email address"))
	})

	It("persists only the final answer to memory", func() {
		backend := testutils.NewMockBackend(
			`{"action": "retrieve_products", "action_input": {"query": "red hats"}}`,
			`{"action": "Final Answer", "action_input": "We carry the Red Hat."}`,
		)

		a := newAgent(backend)
		_, err := a.Submit(context.Background(), "do you have red hats?")
		Expect(err).NotTo(HaveOccurred())

		turns, err := a.Memory().Turns()
		Expect(err).NotTo(HaveOccurred())
		// Greeting plus one exchange; no scratchpad steps.
		Expect(turns).To(HaveLen(2))
		Expect(turns[1]).To(Equal(memory.Turn{Human: "do you have red hats?", Assistant: "We carry the Red Hat."}))
	})

	It("includes the persona and tool catalogue in the prompt", func() {
		backend := testutils.NewMockBackend("ok")

		a := newAgent(backend)
		_, err := a.Submit(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.Prompts[0]).To(ContainSubstring("You are ShoppingBot"))
		Expect(backend.Prompts[0]).To(ContainSubstring("retrieve_products(query)"))
		Expect(backend.Prompts[0]).To(ContainSubstring("Human: hello"))
	})
})

var _ = Describe("ClearSession", func() {
	It("empties memory, or seeds exactly one record", func() {
		a, err := assistant.New(assistant.Config{
			Backend: testutils.NewMockBackend("hi"),
			Mode:    assistant.ModeChat,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		_, err = a.Submit(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Memory().Len()).To(Equal(1))

		a.ClearSession("")
		Expect(a.Memory().Len()).To(BeZero())

		a.ClearSession("How can I help you?")
		Expect(a.Memory().Len()).To(Equal(1))
	})
})
