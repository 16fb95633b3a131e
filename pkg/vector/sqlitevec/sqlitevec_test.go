package sqlitevec_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/anycompanyretail/shopbot/pkg/logger"
	"github.com/anycompanyretail/shopbot/pkg/vector"
	"github.com/anycompanyretail/shopbot/pkg/vector/sqlitevec"
)

func TestSQLiteVec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLiteVec Suite")
}

var _ = Describe("SQLiteVecDriver", func() {
	newDriver := func() *sqlitevec.SQLiteVecDriver {
		driver, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     ":memory:",
			Dimensions: 4,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		return driver
	}

	Describe("NewSQLiteVecDriver", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{DBPath: ""}, logger.Nop())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should create a driver with an in-memory database", func() {
			driver := newDriver()
			Expect(driver.Close()).To(Succeed())
		})

		It("should error when dimension not specified", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath: ":memory:",
			}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Add and Query", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			driver = newDriver()
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should do nothing when given empty docs", func() {
			Expect(driver.Add(context.Background(), nil)).To(Succeed())
		})

		It("should store and rank documents by similarity", func() {
			docs := []vector.Document{
				{
					ID:        "prod-cap",
					Text:      "Knitted Cap, a warm winter hat",
					Metadata:  map[string]string{"name": "Knitted Cap"},
					Embedding: []float32{1, 0, 0, 0},
				},
				{
					ID:        "prod-shirt",
					Text:      "Blue Shirt, a cotton shirt",
					Metadata:  map[string]string{"name": "Blue Shirt"},
					Embedding: []float32{0, 1, 0, 0},
				},
			}
			Expect(driver.Add(context.Background(), docs)).To(Succeed())

			results, err := driver.Query(context.Background(), []float32{1, 0, 0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("prod-cap"))
			Expect(results[0].Text).To(ContainSubstring("Knitted Cap"))
			Expect(results[0].Metadata).To(HaveKeyWithValue("name", "Knitted Cap"))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
		})

		It("should update an existing document in place", func() {
			doc := vector.Document{
				ID:        "prod-1",
				Text:      "original",
				Embedding: []float32{1, 0, 0, 0},
			}
			Expect(driver.Add(context.Background(), []vector.Document{doc})).To(Succeed())

			doc.Text = "updated"
			doc.Embedding = []float32{0, 0, 0, 1}
			Expect(driver.Add(context.Background(), []vector.Document{doc})).To(Succeed())

			got, err := driver.Get(context.Background(), []string{"prod-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Text).To(Equal("updated"))
			Expect(got[0].Embedding).To(Equal([]float32{0, 0, 0, 1}))
		})

		It("should respect topK", func() {
			var docs []vector.Document
			for i := 0; i < 5; i++ {
				docs = append(docs, vector.Document{
					ID:        string(rune('a' + i)),
					Embedding: []float32{float32(i), 1, 0, 0},
				})
			}
			Expect(driver.Add(context.Background(), docs)).To(Succeed())

			results, err := driver.Query(context.Background(), []float32{0, 1, 0, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
		})
	})

	Describe("Delete", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			driver = newDriver()
			Expect(driver.Add(context.Background(), []vector.Document{
				{ID: "prod-1", Embedding: []float32{1, 0, 0, 0}},
				{ID: "prod-2", Embedding: []float32{0, 1, 0, 0}},
			})).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should remove documents by ID", func() {
			Expect(driver.Delete(context.Background(), []string{"prod-1"})).To(Succeed())

			results, err := driver.Query(context.Background(), []float32{1, 0, 0, 0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("prod-2"))
		})

		It("should do nothing for empty ids", func() {
			Expect(driver.Delete(context.Background(), nil)).To(Succeed())
		})
	})
})
