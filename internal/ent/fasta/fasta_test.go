package fasta_test

import (
	"bytes"
	"errors"
	"io"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gnames/genomcat/internal/ent/fasta"
)

const seqs = `
>contig_1 Escherichia coli chromosome
ATGCATGC
ATG

>contig_2
GGCC
>contig_3 empty
`

var _ = Describe("Fasta", func() {
	It("reads records one by one", func() {
		r := fasta.NewReader(strings.NewReader(seqs))
		rec, err := r.Next()
		Expect(err).To(BeNil())
		Expect(rec.ID).To(Equal("contig_1"))
		Expect(rec.Description).To(Equal("Escherichia coli chromosome"))
		Expect(rec.Seq).To(Equal("ATGCATGCATG"))
		Expect(rec.Len).To(Equal(11))

		rec, err = r.Next()
		Expect(err).To(BeNil())
		Expect(rec.ID).To(Equal("contig_2"))
		Expect(rec.Len).To(Equal(4))

		rec, err = r.Next()
		Expect(err).To(BeNil())
		Expect(rec.ID).To(Equal("contig_3"))
		Expect(rec.Len).To(Equal(0))

		_, err = r.Next()
		Expect(errors.Is(err, io.EOF)).To(BeTrue())
		_, err = r.Next()
		Expect(errors.Is(err, io.EOF)).To(BeTrue())
	})

	It("returns EOF for empty input", func() {
		recs, err := fasta.ReadAll(strings.NewReader("\n\n"))
		Expect(err).To(BeNil())
		Expect(recs).To(BeEmpty())
	})

	It("rejects text without a header", func() {
		_, err := fasta.ReadAll(strings.NewReader("ATGC\n>c1\nAT\n"))
		Expect(errors.Is(err, fasta.ErrFormat)).To(BeTrue())
	})

	It("writes wrapped sequences", func() {
		var buf bytes.Buffer
		rec := fasta.Record{ID: "p1", Seq: "MKVLAAG"}
		Expect(fasta.Write(&buf, rec, 3)).To(Succeed())
		Expect(buf.String()).To(Equal(">p1\nMKV\nLAA\nG\n"))

		recs, err := fasta.ReadAll(&buf)
		Expect(err).To(BeNil())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].Seq).To(Equal("MKVLAAG"))
	})
})
