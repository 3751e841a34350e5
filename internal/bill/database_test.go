package bill

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		db  *BoltDB
		err error
	)

	BeforeEach(func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "bill-audit-test.db")
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	sampleRecord := func(id string) *AuditRecord {
		total := 448.0
		return &AuditRecord{
			ID:             id,
			Filename:       id + "_bill.pdf",
			ContentType:    "application/pdf",
			PageCount:      2,
			TotalItemCount: 3,
			DuplicateCount: 1,
			ComputedTotal:  448.0,
			ClaimedTotal:   &total,
			Status:         StatusPerfect,
			CreatedAt:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			UpdatedAt:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		}
	}

	Describe("SaveAudit and GetAudit", func() {
		It("round-trips a record", func() {
			record := sampleRecord("a1")
			Expect(db.SaveAudit(record)).To(Succeed())

			got, err := db.GetAudit("a1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("a1"))
			Expect(got.Status).To(Equal(StatusPerfect))
			Expect(got.ClaimedTotal).To(HaveValue(Equal(448.0)))
			Expect(got.CreatedAt.Equal(record.CreatedAt)).To(BeTrue())
		})

		It("returns an error for an unknown ID", func() {
			_, err := db.GetAudit("missing")
			Expect(err).To(HaveOccurred())
		})

		It("overwrites an existing record on save", func() {
			record := sampleRecord("a1")
			Expect(db.SaveAudit(record)).To(Succeed())

			record.Status = StatusNeedsReview
			Expect(db.SaveAudit(record)).To(Succeed())

			got, err := db.GetAudit("a1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(StatusNeedsReview))
		})
	})

	Describe("ListAudits", func() {
		When("no records exist", func() {
			It("returns an empty slice", func() {
				records, err := db.ListAudits()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(BeEmpty())
				Expect(records).NotTo(BeNil())
			})
		})

		When("records exist", func() {
			BeforeEach(func() {
				Expect(db.SaveAudit(sampleRecord("a1"))).To(Succeed())
				Expect(db.SaveAudit(sampleRecord("a2"))).To(Succeed())
			})

			It("returns all of them", func() {
				records, err := db.ListAudits()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteAudit", func() {
		BeforeEach(func() {
			Expect(db.SaveAudit(sampleRecord("a1"))).To(Succeed())
		})

		It("removes the record", func() {
			Expect(db.DeleteAudit("a1")).To(Succeed())
			_, err := db.GetAudit("a1")
			Expect(err).To(HaveOccurred())
		})

		It("is a no-op for an unknown ID", func() {
			Expect(db.DeleteAudit("missing")).To(Succeed())
		})
	})
})
