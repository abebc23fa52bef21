package classify

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PricingTable", func() {
	table := DefaultPricing()

	It("prices exact model names", func() {
		cost := table.CostForTokens("gpt-4o-mini", 1_000_000, 1_000_000)
		Expect(cost).To(BeNumerically("~", 0.75, 1e-9))
	})

	It("strips dated model suffixes", func() {
		withDate := table.CostForTokens("claude-haiku-4-5-20251001", 2_000_000, 0)
		plain := table.CostForTokens("claude-haiku-4.5", 2_000_000, 0)
		Expect(withDate).To(Equal(plain))
		Expect(withDate).To(BeNumerically(">", 0))
	})

	It("maps dashed version segments to dotted ones", func() {
		Expect(table.CostForTokens("claude-sonnet-4-5", 1_000_000, 0)).
			To(Equal(table.CostForTokens("claude-sonnet-4.5", 1_000_000, 0)))
	})

	It("charges zero for unknown models", func() {
		Expect(table.CostForTokens("llama3.2", 5_000_000, 5_000_000)).To(BeZero())
	})

	It("scales linearly with token counts", func() {
		one := table.CostForTokens("gpt-4o", 1_000_000, 0)
		three := table.CostForTokens("gpt-4o", 3_000_000, 0)
		Expect(three).To(BeNumerically("~", 3*one, 1e-9))
	})
})
