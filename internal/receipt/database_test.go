package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/zombor/soliq-checkmate/internal/ofd"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
		now    time.Time
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		now = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newLookup := func(id string, createdAt time.Time) *Lookup {
		return &Lookup{
			ID:         id,
			URL:        "https://ofd.soliq.uz/check?t=1&r=2&c=3",
			Identifier: "1_2_3",
			Items: []ofd.Item{
				{
					Name:      "Non",
					Quantity:  decimal.NullDecimal{Decimal: decimal.NewFromInt(2), Valid: true},
					UnitPrice: decimal.NullDecimal{Decimal: decimal.RequireFromString("15000.00"), Valid: true},
					Barcode:   decimal.NullDecimal{Decimal: decimal.NewFromInt(4780001), Valid: true},
				},
			},
			CreatedAt: createdAt,
		}
	}

	Describe("SaveLookup", func() {
		var err error

		JustBeforeEach(func() {
			err = db.SaveLookup(newLookup("test-id", now))
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the lookup to the database", func() {
				saved, getErr := db.GetLookup("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("test-id"))
				Expect(saved.Identifier).To(Equal("1_2_3"))
			})

			It("should keep the item values", func() {
				saved, getErr := db.GetLookup("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Items).To(HaveLen(1))
				Expect(saved.Items[0].Name).To(Equal("Non"))
				Expect(saved.Items[0].UnitPrice.Decimal.Equal(decimal.NewFromInt(15000))).To(BeTrue())
				Expect(saved.Items[0].Discount).To(BeEmpty())
				Expect(saved.Items[0].MXIKCode.Valid).To(BeFalse())
				Expect(saved.Items[0].Barcode.Decimal.IntPart()).To(Equal(int64(4780001)))
			})
		})

		When("the lookup already exists", func() {
			BeforeEach(func() {
				Expect(db.SaveLookup(&Lookup{ID: "test-id", Identifier: "old"})).To(Succeed())
			})

			It("should replace it", func() {
				Expect(err).NotTo(HaveOccurred())
				saved, getErr := db.GetLookup("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Identifier).To(Equal("1_2_3"))
			})
		})
	})

	Describe("GetLookup", func() {
		var (
			lookupID string
			lookup   *Lookup
			err      error
		)

		JustBeforeEach(func() {
			lookup, err = db.GetLookup(lookupID)
		})

		When("lookup exists", func() {
			BeforeEach(func() {
				lookupID = "test-id"
				Expect(db.SaveLookup(newLookup(lookupID, now))).To(Succeed())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the lookup", func() {
				Expect(lookup.ID).To(Equal("test-id"))
				Expect(lookup.CreatedAt.Equal(now)).To(BeTrue())
			})
		})

		When("lookup does not exist", func() {
			BeforeEach(func() {
				lookupID = "nonexistent"
			})

			It("returns ErrLookupNotFound", func() {
				Expect(err).To(MatchError(ErrLookupNotFound))
				Expect(err.Error()).To(ContainSubstring("nonexistent"))
			})

			It("should return nil lookup", func() {
				Expect(lookup).To(BeNil())
			})
		})
	})

	Describe("DeleteLookup", func() {
		var (
			lookupID string
			err      error
		)

		JustBeforeEach(func() {
			err = db.DeleteLookup(lookupID)
		})

		When("lookup exists", func() {
			BeforeEach(func() {
				lookupID = "test-id"
				Expect(db.SaveLookup(newLookup(lookupID, now))).To(Succeed())
			})

			It("should remove the lookup", func() {
				Expect(err).NotTo(HaveOccurred())
				_, getErr := db.GetLookup(lookupID)
				Expect(getErr).To(MatchError(ErrLookupNotFound))
			})
		})

		When("lookup does not exist", func() {
			BeforeEach(func() {
				lookupID = "nonexistent"
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})

	Describe("DeleteLookupsBefore", func() {
		var (
			deleted int
			err     error
		)

		BeforeEach(func() {
			Expect(db.SaveLookup(newLookup("old-1", now.Add(-3*time.Hour)))).To(Succeed())
			Expect(db.SaveLookup(newLookup("old-2", now.Add(-2*time.Hour)))).To(Succeed())
			Expect(db.SaveLookup(newLookup("fresh", now.Add(-time.Minute)))).To(Succeed())
		})

		JustBeforeEach(func() {
			deleted, err = db.DeleteLookupsBefore(now.Add(-time.Hour))
		})

		It("should report how many lookups were removed", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(2))
		})

		It("should remove only stale lookups", func() {
			_, getErr := db.GetLookup("old-1")
			Expect(getErr).To(MatchError(ErrLookupNotFound))
			_, getErr = db.GetLookup("old-2")
			Expect(getErr).To(MatchError(ErrLookupNotFound))
			_, getErr = db.GetLookup("fresh")
			Expect(getErr).NotTo(HaveOccurred())
		})
	})

	Describe("NewBoltDB", func() {
		When("the file is reopened", func() {
			It("should keep saved lookups", func() {
				Expect(db.SaveLookup(newLookup("persisted", now))).To(Succeed())
				Expect(db.Close()).To(Succeed())

				reopened, err := NewBoltDB(dbPath)
				Expect(err).NotTo(HaveOccurred())
				db = reopened

				lookup, err := db.GetLookup("persisted")
				Expect(err).NotTo(HaveOccurred())
				Expect(lookup.Items).To(HaveLen(1))
			})
		})

		When("the directory does not exist", func() {
			It("returns an error", func() {
				_, err := NewBoltDB(filepath.Join(tmpDir, "missing", "test.db"))
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
