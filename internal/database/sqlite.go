package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go driver, no cgo

	"github.com/tt67wq/xianyu-spider/internal/models"
)

// DBRepository wraps the database connection.
type DBRepository struct {
	DB *sql.DB
}

// InitDB opens (creating if necessary) the product database and returns a
// repository over it. The parent directory is created automatically.
func InitDB(path string) *DBRepository {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Error creating database directory %s: %v", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	if err = db.Ping(); err != nil {
		log.Fatalf("Error pinging database: %v", err)
	}

	createProductsTableSQL := `
	CREATE TABLE IF NOT EXISTS xianyu_products (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"title" TEXT,
		"price" TEXT,
		"price_cents" INTEGER NOT NULL DEFAULT -1,
		"area" TEXT,
		"seller" TEXT,
		"link" TEXT,
		"link_hash" TEXT UNIQUE,
		"image_url" TEXT,
		"publish_time" DATETIME
	);`

	if _, err = db.Exec(createProductsTableSQL); err != nil {
		log.Fatalf("Error creating xianyu_products table: %v", err)
	}

	return &DBRepository{DB: db}
}

// Close closes the database connection.
func (repo *DBRepository) Close() {
	repo.DB.Close()
}

// GetOrCreateProduct inserts a record under its dedup key, or returns the
// existing row's id when the key is already present. Existing rows are never
// updated: the first sighting of a canonical link wins.
func (repo *DBRepository) GetOrCreateProduct(linkHash string, rec models.ProductRecord) (int64, bool, error) {
	res, err := repo.DB.Exec(`
		INSERT OR IGNORE INTO xianyu_products
			(title, price, price_cents, area, seller, link, link_hash, image_url, publish_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Title, rec.Price, rec.PriceCents, rec.Area, rec.Seller,
		rec.Link, linkHash, rec.ImageURL, rec.PublishTime,
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert product: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("read inserted id: %w", err)
		}
		return id, true, nil
	}

	var id int64
	if err := repo.DB.QueryRow(
		"SELECT id FROM xianyu_products WHERE link_hash = ?", linkHash,
	).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("lookup existing product: %w", err)
	}
	return id, false, nil
}

// CountProducts returns the total number of stored products.
func (repo *DBRepository) CountProducts() (int, error) {
	var count int
	err := repo.DB.QueryRow("SELECT COUNT(*) FROM xianyu_products").Scan(&count)
	return count, err
}

// GetRecentProducts returns the most recently stored products, newest first.
func (repo *DBRepository) GetRecentProducts(limit int) ([]models.StoredProduct, error) {
	rows, err := repo.DB.Query(`
		SELECT id, title, price, price_cents, area, seller, link, link_hash, image_url, publish_time
		FROM xianyu_products
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.StoredProduct
	for rows.Next() {
		var p models.StoredProduct
		var publishTime sql.NullTime
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Price, &p.PriceCents, &p.Area, &p.Seller,
			&p.Link, &p.LinkHash, &p.ImageURL, &publishTime,
		); err != nil {
			log.Printf("Error scanning product row: %v", err)
			continue
		}
		if publishTime.Valid {
			t := publishTime.Time
			p.PublishTime = &t
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
