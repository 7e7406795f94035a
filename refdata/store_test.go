package refdata_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/refdata"
)

var (
	semiICMA = refdata.Convention{DayCount: daycount.ActActICMA, BusinessConvention: calendar.Following, Frequency: bond.Semiannual}
	annual30 = refdata.Convention{DayCount: daycount.Thirty360, BusinessConvention: calendar.ModifiedFollowing, Frequency: bond.Annual}
)

var _ = Describe("ReferenceStore", func() {
	It("looks identifiers up case and space insensitively", func() {
		store, err := refdata.NewReferenceStore([]refdata.Record{{Identifier: "us912810tj79", Ticker: "T"}})
		Expect(err).To(BeNil())
		Expect(store.Len()).To(Equal(1))

		rec, ok := store.LookupIdentifier(" US912810TJ79 ")
		Expect(ok).To(BeTrue())
		Expect(rec.Identifier).To(Equal("US912810TJ79"))
	})

	It("finds a US ISIN by its CUSIP", func() {
		store, err := refdata.NewReferenceStore([]refdata.Record{{Identifier: "US0378331005", Issuer: "Apple Inc"}})
		Expect(err).To(BeNil())

		rec, ok := store.LookupIdentifier("037833100")
		Expect(ok).To(BeTrue())
		Expect(rec.Issuer).To(Equal("Apple Inc"))

		_, ok = store.LookupIdentifier("037833101")
		Expect(ok).To(BeFalse())
	})

	It("rejects duplicates and blank identifiers", func() {
		_, err := refdata.NewReferenceStore([]refdata.Record{{Identifier: "X1"}, {Identifier: "x1"}})
		Expect(err).To(HaveOccurred())
		_, err = refdata.NewReferenceStore([]refdata.Record{{Identifier: "  "}})
		Expect(err).To(HaveOccurred())
	})

	It("is safe to query when nil", func() {
		var store *refdata.ReferenceStore
		_, ok := store.LookupIdentifier("US912810TJ79")
		Expect(ok).To(BeFalse())
		Expect(store.Len()).To(Equal(0))
	})
})

var _ = Describe("ConventionStore", func() {
	It("keeps the majority convention per ticker", func() {
		store := refdata.NewConventionStore([]refdata.Observation{
			{Ticker: "AAPL", Convention: annual30, Count: 2},
			{Ticker: "AAPL", Convention: semiICMA, Count: 1},
			{Ticker: "aapl", Convention: semiICMA, Count: 3},
			{Ticker: "T", Convention: semiICMA, Count: 1},
		})
		Expect(store.Len()).To(Equal(2))

		c, ok := store.PreferredConvention("AAPL")
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(semiICMA))
		Expect(store.Support("AAPL")).To(Equal(4))
	})

	It("breaks ties independent of input order", func() {
		a := refdata.NewConventionStore([]refdata.Observation{
			{Ticker: "XYZ", Convention: semiICMA, Count: 2},
			{Ticker: "XYZ", Convention: annual30, Count: 2},
		})
		b := refdata.NewConventionStore([]refdata.Observation{
			{Ticker: "XYZ", Convention: annual30, Count: 2},
			{Ticker: "XYZ", Convention: semiICMA, Count: 2},
		})
		ca, _ := a.PreferredConvention("XYZ")
		cb, _ := b.PreferredConvention("XYZ")
		Expect(ca).To(Equal(cb))
		// "30/360|..." sorts before "ACT/ACT ICMA|...".
		Expect(ca).To(Equal(annual30))
	})

	It("ignores blank tickers and non-positive counts", func() {
		store := refdata.NewConventionStore([]refdata.Observation{
			{Ticker: " ", Convention: semiICMA, Count: 5},
			{Ticker: "T", Convention: semiICMA, Count: 0},
		})
		Expect(store.Len()).To(Equal(0))
		_, ok := store.PreferredConvention("T")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ISIN", func() {
	DescribeTable("validates check digits",
		func(isin string, valid bool) {
			err := refdata.ValidateISIN(isin)
			if valid {
				Expect(err).To(BeNil())
			} else {
				Expect(err).To(HaveOccurred())
			}
		},
		Entry("Apple", "US0378331005", true),
		Entry("Treasury 3% 2052", "US912810TJ79", true),
		Entry("Bund", "DE0001102382", true),
		Entry("Treasury note", "US912828YK04", true),
		Entry("wrong check digit", "US912810TJ78", false),
		Entry("too short", "US91281", false),
	)

	It("wraps ErrBadCheckDigit", func() {
		Expect(refdata.ValidateISIN("US0378331006")).To(MatchError(refdata.ErrBadCheckDigit))
	})

	It("builds an ISIN from a CUSIP", func() {
		isin, err := refdata.ISINFromCUSIP("912810TJ7", "US")
		Expect(err).To(BeNil())
		Expect(isin).To(Equal("US912810TJ79"))
	})

	It("recognises the ISIN shape", func() {
		Expect(refdata.LooksLikeISIN("US912810TJ79")).To(BeTrue())
		Expect(refdata.LooksLikeISIN("912810TJ7")).To(BeFalse())
		Expect(refdata.LooksLikeISIN("12345678901X")).To(BeFalse())
	})
})
