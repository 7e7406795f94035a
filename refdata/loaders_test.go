package refdata_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/refdata"
	"github.com/meenmo/bondlib/utils"
)

const referenceCSV = `Identifier,Issuer,Ticker,Coupon,Maturity,Issue_Date,Day_Count,Frequency,Currency,End_Of_Month
# treasuries
us912810tj79,US Treasury,T,3,2052-08-15,2022-08-15,ACT/ACT,2,usd,
US0378331005,Apple Inc,AAPL,3.85%,2043-05-04,,30/360,S,USD,false
`

var _ = Describe("CSV loaders", func() {
	It("reads reference rows with percent coupons", func() {
		recs, err := refdata.ReadReferenceCSV(strings.NewReader(referenceCSV))
		Expect(err).To(BeNil())
		Expect(recs).To(HaveLen(2))

		t := recs[0]
		Expect(t.Identifier).To(Equal("US912810TJ79"))
		Expect(*t.CouponRate).To(BeNumerically("~", 0.03, 1e-15))
		Expect(t.Maturity).To(Equal(utils.Date(2052, 8, 15)))
		Expect(t.IssueDate).To(Equal(utils.Date(2022, 8, 15)))
		Expect(t.DayCount).To(Equal(daycount.ActActICMA))
		Expect(t.Frequency).To(Equal(bond.Semiannual))
		Expect(t.Currency).To(Equal("USD"))
		Expect(t.EndOfMonth).To(BeNil())
		Expect(t.BusinessConvention).To(BeEmpty())

		a := recs[1]
		Expect(*a.CouponRate).To(BeNumerically("~", 0.0385, 1e-15))
		Expect(a.IssueDate.IsZero()).To(BeTrue())
		Expect(a.EndOfMonth).NotTo(BeNil())
		Expect(*a.EndOfMonth).To(BeFalse())
	})

	It("reports the offending row", func() {
		_, err := refdata.ReadReferenceCSV(strings.NewReader("identifier,maturity\nX1,2030-01-01\nX2,15/01/2030\n"))
		Expect(err).To(MatchError(ContainSubstring("row 3")))

		_, err = refdata.ReadReferenceCSV(strings.NewReader("identifier,day_count\nX1,ACT/999\n"))
		Expect(errors.Is(err, daycount.ErrUnknownConvention)).To(BeTrue())
	})

	It("reads convention observations with default counts", func() {
		obs, err := refdata.ReadConventionCSV(strings.NewReader(
			"ticker,day_count,business_convention,frequency,count\nT,ACT/ACT ICMA,F,S,\nAAPL,30/360,MF,A,7\n"))
		Expect(err).To(BeNil())
		Expect(obs).To(Equal([]refdata.Observation{
			{Ticker: "T", Convention: semiICMA, Count: 1},
			{Ticker: "AAPL", Convention: annual30, Count: 7},
		}))

		_, err = refdata.ReadConventionCSV(strings.NewReader("ticker,day_count,business_convention,frequency,count\nT,30/360,F,S,-1\n"))
		Expect(err).To(HaveOccurred())
	})

	It("loads stores from files", func() {
		dir, err := os.MkdirTemp("", "refdata")
		Expect(err).To(BeNil())
		DeferCleanup(os.RemoveAll, dir)
		refPath := filepath.Join(dir, "reference.csv")
		convPath := filepath.Join(dir, "conventions.csv")
		Expect(os.WriteFile(refPath, []byte(referenceCSV), 0o600)).To(Succeed())
		Expect(os.WriteFile(convPath, []byte("ticker,day_count,business_convention,frequency\nT,ACT/ACT,F,2\n"), 0o600)).To(Succeed())

		refs, err := refdata.LoadReferenceCSV(refPath)
		Expect(err).To(BeNil())
		Expect(refs.Len()).To(Equal(2))

		convs, err := refdata.LoadConventionCSV(convPath)
		Expect(err).To(BeNil())
		c, ok := convs.PreferredConvention("T")
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(semiICMA))

		_, err = refdata.LoadReferenceCSV(filepath.Join(dir, "missing.csv"))
		Expect(err).To(HaveOccurred())
	})

	It("treats an empty file as no rows", func() {
		recs, err := refdata.ReadReferenceCSV(strings.NewReader(""))
		Expect(err).To(BeNil())
		Expect(recs).To(BeEmpty())
	})
})

var _ = Describe("Curve JSON", func() {
	It("reads a single curve object", func() {
		set, err := refdata.ReadCurvesJSON(strings.NewReader(`{
			"currency": "usd",
			"as_of": "2025-06-30",
			"nodes": [{"tenor": "10Y", "yield": 4.25}, {"tenor": "6M", "yield": 4.3}]
		}`))
		Expect(err).To(BeNil())
		Expect(set.Len()).To(Equal(1))

		c, ok := set.BenchmarkCurve("USD")
		Expect(ok).To(BeTrue())
		Expect(c.AsOf()).To(Equal(utils.Date(2025, 6, 30)))
		Expect(c.Interpolation()).To(Equal(curve.Linear))
		Expect(c.Nodes()[0].Tenor).To(BeNumerically("~", 0.5, 1e-12))
		Expect(c.YieldAt(10)).To(BeNumerically("~", 0.0425, 1e-12))
	})

	It("reads an array of curves with options", func() {
		set, err := refdata.ReadCurvesJSON(strings.NewReader(`[
			{"currency": "USD", "as_of": "2025-06-30", "nodes": [{"tenor": "1Y", "yield": 4}]},
			{"currency": "EUR", "as_of": "2025-06-30", "interpolation": "log_linear", "compounding": 1,
			 "nodes": [{"tenor": "1Y", "yield": 2}, {"tenor": "30Y", "yield": 3}]}
		]`))
		Expect(err).To(BeNil())
		Expect(set.Len()).To(Equal(2))

		eur, ok := set.BenchmarkCurve("eur")
		Expect(ok).To(BeTrue())
		Expect(eur.Interpolation()).To(Equal(curve.LogLinear))
		Expect(eur.Compounding()).To(Equal(1))

		_, ok = set.BenchmarkCurve("GBP")
		Expect(ok).To(BeFalse())
	})

	It("rejects malformed curves", func() {
		for _, in := range []string{
			`{"currency": "USD", "as_of": "2025-06-30", "nodes": []}`,
			`{"as_of": "2025-06-30", "nodes": [{"tenor": "1Y", "yield": 4}]}`,
			`{"currency": "USD", "as_of": "30/06/2025", "nodes": [{"tenor": "1Y", "yield": 4}]}`,
			`{"currency": "USD", "as_of": "2025-06-30", "nodes": [{"tenor": "1X", "yield": 4}]}`,
			`{"currency": "USD", "as_of": "2025-06-30", "interpolation": "cubic", "nodes": [{"tenor": "1Y", "yield": 4}]}`,
			`{"currency": `,
		} {
			_, err := refdata.ReadCurvesJSON(strings.NewReader(in))
			Expect(err).To(HaveOccurred(), in)
		}
	})
})

var _ = Describe("Postgres loaders", func() {
	var (
		db  pgxmock.PgxConnIface
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(db.ExpectationsWereMet()).To(Succeed())
	})

	It("loads bond_reference rows", func() {
		rows := pgxmock.NewRows([]string{
			"identifier", "issuer", "ticker", "coupon", "maturity", "issue_date", "first_coupon_date",
			"day_count", "business_convention", "frequency", "currency", "face_value", "calendar",
		}).
			AddRow("US912810TJ79", "US Treasury", "T", "3.000", "2052-08-15", "2022-08-15", "", "ACT/ACT ICMA", "FOLLOWING", "2", "USD", "100", "USD").
			AddRow("US0378331005", "Apple Inc", "AAPL", "", "2043-05-04", "", "", "", "", "", "", "", "")
		db.ExpectQuery("SELECT identifier").WillReturnRows(rows)

		store, err := refdata.LoadReferencePostgres(ctx, db)
		Expect(err).To(BeNil())
		Expect(store.Len()).To(Equal(2))

		t, ok := store.LookupIdentifier("US912810TJ79")
		Expect(ok).To(BeTrue())
		Expect(*t.CouponRate).To(BeNumerically("~", 0.03, 1e-15))
		Expect(t.BusinessConvention).To(Equal(calendar.Following))
		Expect(t.Calendar).To(Equal(calendar.USD))
		Expect(t.FaceValue).To(Equal(100.0))

		a, ok := store.LookupIdentifier("037833100")
		Expect(ok).To(BeTrue())
		Expect(a.CouponRate).To(BeNil())
	})

	It("surfaces query errors", func() {
		db.ExpectQuery("SELECT identifier").WillReturnError(errors.New("relation does not exist"))
		_, err := refdata.LoadReferencePostgres(ctx, db)
		Expect(err).To(MatchError(ContainSubstring("relation does not exist")))
	})

	It("aggregates conventions per ticker", func() {
		rows := pgxmock.NewRows([]string{"ticker", "day_count", "business_convention", "frequency", "count"}).
			AddRow("AAPL", "30/360", "MODIFIED_FOLLOWING", "1", int64(12)).
			AddRow("AAPL", "ACT/ACT ICMA", "FOLLOWING", "2", int64(3)).
			AddRow("T", "ACT/ACT ICMA", "FOLLOWING", "2", int64(40))
		db.ExpectQuery("SELECT ticker").WillReturnRows(rows)

		store, err := refdata.LoadConventionPostgres(ctx, db)
		Expect(err).To(BeNil())
		Expect(store.Len()).To(Equal(2))

		c, ok := store.PreferredConvention("AAPL")
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(annual30))
		Expect(store.Support("AAPL")).To(Equal(12))
	})

	It("rejects unknown conventions", func() {
		rows := pgxmock.NewRows([]string{"ticker", "day_count", "business_convention", "frequency", "count"}).
			AddRow("XYZ", "ACT/999", "FOLLOWING", "2", int64(1))
		db.ExpectQuery("SELECT ticker").WillReturnRows(rows)

		_, err := refdata.LoadConventionPostgres(ctx, db)
		Expect(err).To(MatchError(ContainSubstring("XYZ")))
	})
})
