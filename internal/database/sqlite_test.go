package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tt67wq/xianyu-spider/internal/models"
)

func testRepo(t *testing.T) *DBRepository {
	t.Helper()
	repo := InitDB(filepath.Join(t.TempDir(), "data", "test.db"))
	t.Cleanup(repo.Close)
	return repo
}

func TestGetOrCreateProduct(t *testing.T) {
	repo := testRepo(t)

	now := time.Now().Truncate(time.Second)
	rec := models.ProductRecord{
		Title:       "旧手机",
		Price:       "¥1200",
		PriceCents:  120000,
		Area:        "上海",
		Seller:      "卖家甲",
		Link:        "https://www.goofish.com/item?id=1&spm=x",
		ImageURL:    "https://img.example.com/1.jpg",
		PublishTime: &now,
	}

	id, created, err := repo.GetOrCreateProduct("hash-1", rec)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if !created {
		t.Fatal("first sighting must create a row")
	}

	// Second sighting of the same key: skipped, fields untouched.
	later := rec
	later.Price = "¥999"
	later.PriceCents = 99900
	id2, created2, err := repo.GetOrCreateProduct("hash-1", later)
	if err != nil {
		t.Fatalf("second insert failed: %v", err)
	}
	if created2 {
		t.Fatal("second sighting must not create a row")
	}
	if id2 != id {
		t.Fatalf("existing row id = %d; want %d", id2, id)
	}

	products, err := repo.GetRecentProducts(10)
	if err != nil {
		t.Fatalf("get recent: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products; want 1", len(products))
	}
	if products[0].Price != "¥1200" || products[0].PriceCents != 120000 {
		t.Errorf("stored fields were overwritten: %+v", products[0])
	}
	if products[0].PublishTime == nil {
		t.Errorf("publish time lost in round trip")
	}
}

func TestNullPublishTime(t *testing.T) {
	repo := testRepo(t)

	rec := models.ProductRecord{Title: "无时间商品", Price: "价格异常", PriceCents: -1,
		Link: "https://www.goofish.com/item?id=2"}
	if _, _, err := repo.GetOrCreateProduct("hash-2", rec); err != nil {
		t.Fatalf("insert with nil publish time failed: %v", err)
	}

	products, err := repo.GetRecentProducts(1)
	if err != nil {
		t.Fatalf("get recent: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products; want 1", len(products))
	}
	if products[0].PublishTime != nil {
		t.Errorf("publish time should stay NULL, got %v", products[0].PublishTime)
	}
	if products[0].PriceCents != -1 {
		t.Errorf("price cents sentinel lost: %d", products[0].PriceCents)
	}
}

func TestCountProducts(t *testing.T) {
	repo := testRepo(t)

	count, err := repo.CountProducts()
	if err != nil || count != 0 {
		t.Fatalf("empty store count = %d, err = %v; want 0", count, err)
	}

	for i, hash := range []string{"a", "b", "c"} {
		rec := models.ProductRecord{Title: "t", Link: "l"}
		if _, _, err := repo.GetOrCreateProduct(hash, rec); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	count, err = repo.CountProducts()
	if err != nil || count != 3 {
		t.Fatalf("count = %d, err = %v; want 3", count, err)
	}
}
