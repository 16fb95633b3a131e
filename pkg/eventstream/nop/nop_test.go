package nop_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anycompanyretail/shopbot/pkg/eventstream"
	"github.com/anycompanyretail/shopbot/pkg/eventstream/nop"
)

func TestNopPublisher(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Eventstream Nop Suite")
}

var _ = Describe("Publisher", func() {
	It("returns ErrNilExchangeEvent for nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishExchange(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilExchangeEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishExchange(context.Background(), &eventstream.ExchangeCompletedEvent{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("closes successfully", func() {
		p := nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
