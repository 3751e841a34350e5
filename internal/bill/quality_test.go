package bill

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AssessQuality", func() {
	When("every candidate survived normalization", func() {
		It("scores 100", func() {
			ex := extraction(Page{PageNo: 1, Items: []Item{
				item("Livi 300mg Tab", 448.0, 14.0),
				item("Syringe", 20.0, 2.0),
			}})
			report := AssessQuality(ex)
			Expect(report.Score).To(Equal(100.0))
			Expect(report.Issues).To(BeEmpty())
		})
	})

	When("candidates were dropped", func() {
		It("scores the surviving fraction", func() {
			ex := extraction(Page{PageNo: 1, Items: []Item{item("Kept Item", 100.0, 1.0)}})
			ex.DroppedItemCount = 3
			report := AssessQuality(ex)
			Expect(report.TotalItems).To(Equal(4))
			Expect(report.Score).To(Equal(25.0))
			Expect(report.Issues).To(HaveLen(1))
		})
	})

	When("duplicates were flagged", func() {
		It("penalizes the score", func() {
			dup := item("Livi 300mg Tab", 448.0, 14.0)
			dup.IsDuplicate = true
			ex := extraction(Page{PageNo: 1, Items: []Item{
				item("Livi 300mg Tab", 448.0, 14.0),
				dup,
			}})
			report := AssessQuality(ex)
			Expect(report.DuplicateItems).To(Equal(1))
			Expect(report.Score).To(Equal(90.0))
		})
	})

	When("there are no candidates at all", func() {
		It("scores zero without dividing by zero", func() {
			report := AssessQuality(extraction(Page{PageNo: 1}))
			Expect(report.Score).To(Equal(0.0))
			Expect(report.Issues).To(ContainElement("no candidate items in document"))
		})
	})
})
