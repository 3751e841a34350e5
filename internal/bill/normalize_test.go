package bill

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/bill-audit/internal/scanning"
)

var _ = Describe("parseNumber", func() {
	It("accepts plain numbers", func() {
		Expect(parseNumber(448.0)).To(HaveValue(Equal(448.0)))
	})

	It("parses plain numeric strings", func() {
		Expect(parseNumber("448.00")).To(HaveValue(Equal(448.0)))
	})

	It("strips currency symbols", func() {
		Expect(parseNumber("₹448")).To(HaveValue(Equal(448.0)))
		Expect(parseNumber("$25.99")).To(HaveValue(Equal(25.99)))
	})

	It("strips thousands separators", func() {
		Expect(parseNumber("1,245.50")).To(HaveValue(Equal(1245.50)))
	})

	It("handles currency symbols and separators together", func() {
		Expect(parseNumber("₹1,245.50")).To(HaveValue(Equal(1245.50)))
	})

	It("treats unparseable text as missing, not zero", func() {
		Expect(parseNumber("fourteen")).To(BeNil())
	})

	It("treats negative values as missing", func() {
		Expect(parseNumber(-5.0)).To(BeNil())
		Expect(parseNumber("-5.00")).To(BeNil())
	})

	It("treats nil as missing", func() {
		Expect(parseNumber(nil)).To(BeNil())
	})

	It("treats empty strings as missing", func() {
		Expect(parseNumber("   ")).To(BeNil())
	})
})

var _ = Describe("parsePageType", func() {
	It("matches known types case-insensitively", func() {
		Expect(parsePageType("pharmacy")).To(Equal(PageTypePharmacy))
		Expect(parsePageType("FINAL BILL")).To(Equal(PageTypeFinalBill))
		Expect(parsePageType(" Bill Detail ")).To(Equal(PageTypeBillDetail))
	})

	It("maps anything unmatched to Unknown", func() {
		Expect(parsePageType("Summary")).To(Equal(PageTypeUnknown))
		Expect(parsePageType("")).To(Equal(PageTypeUnknown))
	})
})

var _ = Describe("NormalizePage", func() {
	var (
		candidate scanning.PageCandidate
		page      Page
		dropped   int
	)

	JustBeforeEach(func() {
		page, dropped = NormalizePage(candidate, 2)
	})

	When("items are well formed", func() {
		BeforeEach(func() {
			candidate = scanning.PageCandidate{
				PageNo:   "2",
				PageType: "Pharmacy",
				Items: itemsPtr(
					scanning.ItemCandidate{Name: "  Livi 300mg   Tab ", Amount: "448.00", Rate: 32.0, Quantity: 14.0},
				),
			}
		})

		It("coerces the page number from its string form", func() {
			Expect(page.PageNo).To(Equal(2))
		})

		It("trims and collapses item names", func() {
			Expect(page.Items[0].Name).To(Equal("Livi 300mg Tab"))
		})

		It("parses stringly-typed amounts", func() {
			Expect(page.Items[0].Amount).To(Equal(448.0))
		})

		It("keeps the rate as a present value", func() {
			Expect(page.Items[0].Rate).To(HaveValue(Equal(32.0)))
		})

		It("leaves the rate consistency flag unset when amounts agree", func() {
			Expect(page.Items[0].RateMismatch).To(BeFalse())
		})
	})

	When("an item has no quantity", func() {
		BeforeEach(func() {
			candidate = scanning.PageCandidate{
				Items: itemsPtr(scanning.ItemCandidate{Name: "Consultation Fee", Amount: 500.0}),
			}
		})

		It("defaults the quantity to 1", func() {
			Expect(page.Items[0].Quantity).To(Equal(1.0))
		})

		It("leaves the rate missing", func() {
			Expect(page.Items[0].Rate).To(BeNil())
		})
	})

	When("rate times quantity disagrees with the amount", func() {
		BeforeEach(func() {
			candidate = scanning.PageCandidate{
				Items: itemsPtr(scanning.ItemCandidate{Name: "Syringe", Amount: 500.0, Rate: 10.0, Quantity: 2.0}),
			}
		})

		It("keeps the item", func() {
			Expect(page.Items).To(HaveLen(1))
		})

		It("records the mismatch", func() {
			Expect(page.Items[0].RateMismatch).To(BeTrue())
		})

		It("keeps the stated amount authoritative", func() {
			Expect(page.Items[0].Amount).To(Equal(500.0))
		})
	})

	When("items are not line items", func() {
		BeforeEach(func() {
			candidate = scanning.PageCandidate{
				PageType: "Bill Detail",
				Items: itemsPtr(
					scanning.ItemCandidate{Name: "   ", Amount: 100.0},             // empty name
					scanning.ItemCandidate{Amount: 100.0},                          // no name at all
					scanning.ItemCandidate{Name: "2024-01-15", Amount: 100.0},      // date
					scanning.ItemCandidate{Name: "INV-2024-001", Amount: 100.0},    // invoice number
					scanning.ItemCandidate{Name: "Page 2", Amount: 100.0},          // page marker
					scanning.ItemCandidate{Name: "Real Item", Amount: "not money"}, // unparseable amount
					scanning.ItemCandidate{Name: "Kept Item", Amount: 120.0},
				),
			}
		})

		It("drops them all except the genuine item", func() {
			Expect(page.Items).To(HaveLen(1))
			Expect(page.Items[0].Name).To(Equal("Kept Item"))
		})

		It("counts the dropped candidates", func() {
			Expect(dropped).To(Equal(6))
		})
	})

	When("the page has no usable page number", func() {
		BeforeEach(func() {
			candidate = scanning.PageCandidate{PageType: "Unknown", Items: itemsPtr()}
		})

		It("falls back to the sequence position", func() {
			Expect(page.PageNo).To(Equal(2))
		})
	})
})

var _ = Describe("NormalizeDocument", func() {
	When("the document is empty", func() {
		It("reports malformed input", func() {
			_, err := NormalizeDocument(nil)
			Expect(err).To(MatchError(ErrMalformedInput))
		})
	})

	When("no page carries a bill_items field", func() {
		It("reports malformed input", func() {
			_, err := NormalizeDocument([]scanning.PageCandidate{
				{PageNo: 1, PageType: "Unknown"},
				{PageNo: 2, PageType: "Unknown"},
			})
			Expect(err).To(MatchError(ErrMalformedInput))
		})
	})

	When("a page legitimately has zero items", func() {
		It("retains the page", func() {
			ex, err := NormalizeDocument([]scanning.PageCandidate{
				{PageNo: 1, PageType: "Bill Detail", Items: itemsPtr()},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.Pages).To(HaveLen(1))
			Expect(ex.Pages[0].Items).To(BeEmpty())
		})
	})

	When("several pages report claimed totals", func() {
		It("prefers the Final Bill page's total", func() {
			ex, err := NormalizeDocument([]scanning.PageCandidate{
				{PageNo: 1, PageType: "Bill Detail", Items: itemsPtr(), ClaimedTotal: 900.0},
				{PageNo: 2, PageType: "Final Bill", Items: itemsPtr(), ClaimedTotal: "1,245.50"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.ClaimedTotal).To(HaveValue(Equal(1245.50)))
		})

		It("keeps the first total otherwise", func() {
			ex, err := NormalizeDocument([]scanning.PageCandidate{
				{PageNo: 1, PageType: "Bill Detail", Items: itemsPtr(), ClaimedTotal: 900.0},
				{PageNo: 2, PageType: "Bill Detail", Items: itemsPtr(), ClaimedTotal: 950.0},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.ClaimedTotal).To(HaveValue(Equal(900.0)))
		})
	})

	When("no page reports a claimed total", func() {
		It("leaves the claimed total absent", func() {
			ex, err := NormalizeDocument([]scanning.PageCandidate{
				{PageNo: 1, PageType: "Bill Detail", Items: itemsPtr()},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ex.ClaimedTotal).To(BeNil())
		})
	})
})
