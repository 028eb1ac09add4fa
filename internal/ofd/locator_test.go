package ofd

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Identifier", func() {
	DescribeTable("joins t, r and c in fixed order",
		func(url, expected string) {
			Expect(Identifier(url)).To(Equal(expected))
		},
		Entry("all three", "https://ofd.soliq.uz/check?t=UZ1912&r=8124&c=1102190", "UZ1912_8124_1102190"),
		Entry("reversed query order", "https://ofd.soliq.uz/check?c=3&r=2&t=1", "1_2_3"),
		Entry("t and c only", "https://ofd.soliq.uz/check?c=3&t=1", "1_3"),
		Entry("r only", "https://ofd.soliq.uz/check?r=2", "2"),
		Entry("extra parameters", "https://ofd.soliq.uz/check?s=9&t=1&x=y", "1"),
		Entry("repeated key keeps the first value", "https://ofd.soliq.uz/check?t=1&t=5", "1"),
		Entry("blank values are skipped", "https://ofd.soliq.uz/check?t=&r=2", "2"),
	)

	DescribeTable("falls back to receipt",
		func(url string) {
			Expect(Identifier(url)).To(Equal("receipt"))
		},
		Entry("no query", "https://ofd.soliq.uz/check"),
		Entry("unrelated parameters", "https://ofd.soliq.uz/check?a=1&b=2"),
		Entry("empty string", ""),
		Entry("unparseable url", "https://ofd.soliq.uz/check?t=1\x7f%zz"),
	)
})

var _ = Describe("ValidateURL", func() {
	It("should accept portal links", func() {
		Expect(ValidateURL("https://ofd.soliq.uz/check?t=1&r=2&c=3")).To(Succeed())
	})

	It("should reject other hosts", func() {
		Expect(ValidateURL("https://example.com/check?t=1")).To(MatchError(ErrInvalidURLFormat))
	})

	It("should reject plain http", func() {
		Expect(ValidateURL("http://ofd.soliq.uz/check?t=1")).To(MatchError(ErrInvalidURLFormat))
	})

	It("should reject an empty url", func() {
		Expect(ValidateURL("")).To(MatchError(ErrInvalidURLFormat))
	})
})
