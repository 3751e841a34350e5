package bill

import (
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("ValidateDocumentURL", func() {
	It("accepts http and https URLs", func() {
		Expect(ValidateDocumentURL("http://example.com/bill.pdf")).To(Succeed())
		Expect(ValidateDocumentURL("https://example.com/bill.pdf")).To(Succeed())
	})

	It("rejects an empty URL", func() {
		Expect(ValidateDocumentURL("")).To(HaveOccurred())
	})

	It("rejects other schemes", func() {
		Expect(ValidateDocumentURL("ftp://example.com/bill.pdf")).To(HaveOccurred())
		Expect(ValidateDocumentURL("example.com/bill.pdf")).To(HaveOccurred())
	})

	It("rejects overlong URLs", func() {
		Expect(ValidateDocumentURL("https://example.com/" + strings.Repeat("a", 2000))).To(HaveOccurred())
	})
})

var _ = Describe("HTTPFetcher", func() {
	var (
		server  *ghttp.Server
		fetcher *HTTPFetcher
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		fetcher = NewHTTPFetcher()
	})

	AfterEach(func() {
		server.Close()
	})

	When("the document is available", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", "/bill.pdf"),
				ghttp.RespondWith(http.StatusOK, "pdf-bytes", http.Header{"Content-Type": {"application/pdf"}}),
			))
		})

		It("returns the data and content type", func() {
			data, contentType, err := fetcher.Fetch(server.URL() + "/bill.pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("pdf-bytes")))
			Expect(contentType).To(Equal("application/pdf"))
		})
	})

	When("the server responds with an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, "not found"))
		})

		It("returns an error", func() {
			_, _, err := fetcher.Fetch(server.URL() + "/missing.pdf")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("404"))
		})
	})
})
