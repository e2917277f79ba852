package sse

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// splitAll feeds chunks to s and collects every record, including the flushed
// remainder.
func splitAll(s Splitter, chunks ...string) []string {
	var out []string
	for _, c := range chunks {
		out = append(out, s.Split(c)...)
	}
	if rec, ok := s.Flush(); ok {
		out = append(out, rec)
	}
	return out
}

// bytewise splits s into one-byte chunks.
func bytewise(s string) []string {
	out := make([]string, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = s[i : i+1]
	}
	return out
}

var _ = Describe("Splitter", func() {
	Describe("RecordSplitter", func() {
		It("splits on blank lines", func() {
			recs := splitAll(NewRecordSplitter(), "data: a\n\ndata: b\n\n")
			Expect(recs).To(Equal([]string{"data: a", "data: b"}))
		})

		It("keeps multi-line records together", func() {
			recs := splitAll(NewRecordSplitter(), "event: message\ndata: a\n\n")
			Expect(recs).To(Equal([]string{"event: message\ndata: a"}))
		})

		It("holds back a record split across chunks", func() {
			s := NewRecordSplitter()
			Expect(s.Split("data: {\"ans")).To(BeEmpty())
			Expect(s.Split("wer\":\"x\"}\n")).To(BeEmpty())
			Expect(s.Split("\n")).To(Equal([]string{`data: {"answer":"x"}`}))
		})

		It("trims stray newlines between records", func() {
			recs := splitAll(NewRecordSplitter(), "data: a\n\n\n\ndata: b\n\n")
			Expect(recs).To(Equal([]string{"data: a", "data: b"}))
		})

		It("flushes an unterminated trailing record", func() {
			recs := splitAll(NewRecordSplitter(), "data: a\n\ndata: tail")
			Expect(recs).To(Equal([]string{"data: a", "data: tail"}))
		})

		It("produces nothing for an empty stream", func() {
			Expect(splitAll(NewRecordSplitter())).To(BeEmpty())
		})

		It("is independent of chunk boundaries", func() {
			input := "data: {\"answer\":\"é\"}\n\n: ping\n\ndata: {\"answer\":\"b\"}\n\ndata: x"
			whole := splitAll(NewRecordSplitter(), input)
			Expect(splitAll(NewRecordSplitter(), bytewise(input)...)).To(Equal(whole))
			for i := 0; i <= len(input); i++ {
				Expect(splitAll(NewRecordSplitter(), input[:i], input[i:])).To(Equal(whole), "split at %d", i)
			}
		})
	})

	Describe("LineSplitter", func() {
		It("splits on single newlines", func() {
			recs := splitAll(NewLineSplitter(), "data: a\ndata: b\n")
			Expect(recs).To(Equal([]string{"data: a", "data: b"}))
		})

		It("drops carriage returns and empty lines", func() {
			recs := splitAll(NewLineSplitter(), "data: a\r\n\r\ndata: b\n\n")
			Expect(recs).To(Equal([]string{"data: a", "data: b"}))
		})

		It("is independent of chunk boundaries", func() {
			input := strings.Repeat("data: {\"answer\":\"z\"}\n", 3)
			Expect(splitAll(NewLineSplitter(), bytewise(input)...)).To(Equal(splitAll(NewLineSplitter(), input)))
		})
	})

	Describe("NewSplitter", func() {
		It("selects the splitter by framing", func() {
			Expect(NewSplitter(FramingLine)).To(BeAssignableToTypeOf(&LineSplitter{}))
			Expect(NewSplitter(FramingRecord)).To(BeAssignableToTypeOf(&RecordSplitter{}))
			Expect(NewSplitter("")).To(BeAssignableToTypeOf(&RecordSplitter{}))
		})
	})

	Describe("ParseFraming", func() {
		It("accepts known framings", func() {
			f, err := ParseFraming("LINE")
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(FramingLine))

			f, err = ParseFraming("")
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(FramingRecord))
		})

		It("rejects unknown framings", func() {
			_, err := ParseFraming("ndjson")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown stream framing"))
		})
	})
})
