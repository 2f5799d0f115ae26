package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-pos/internal/application/importer"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
)

const (
	ProductsFile  = "products.json"
	OrdersFile    = "orders.json"
	InventoryFile = "inventory.json"

	createdAtLayout = "2006-01-02 15:04:05"
)

type productDoc struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Barcode   *string `json:"barcode"`
	Category  *string `json:"category"`
}

type itemDoc struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type orderDoc struct {
	OrderID       string    `json:"order_id"`
	Items         []itemDoc `json:"items"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     string    `json:"created_at"`
	Status        string    `json:"status"`
}

// LoadDir reads products.json, orders.json and inventory.json from dir.
// Missing files load as empty.
func LoadDir(dir string) (importer.Batch, error) {
	var (
		products  []productDoc
		orders    []orderDoc
		inventory map[string]int
	)
	if err := readJSON(filepath.Join(dir, ProductsFile), &products); err != nil {
		return importer.Batch{}, err
	}
	if err := readJSON(filepath.Join(dir, OrdersFile), &orders); err != nil {
		return importer.Batch{}, err
	}
	if err := readJSON(filepath.Join(dir, InventoryFile), &inventory); err != nil {
		return importer.Batch{}, err
	}

	batch := importer.Batch{Inventory: inventory}
	for _, p := range products {
		batch.Products = append(batch.Products, product.Product{
			ID:       p.ProductID,
			Name:     p.Name,
			Price:    p.Price,
			Barcode:  deref(p.Barcode),
			Category: deref(p.Category),
		})
	}
	for _, o := range orders {
		createdAt, err := parseCreatedAt(o.CreatedAt)
		if err != nil {
			return importer.Batch{}, fmt.Errorf("jsonfile: order %s: %w", o.OrderID, err)
		}
		rec := importer.OrderRecord{
			ID:            o.OrderID,
			PaymentMethod: o.PaymentMethod,
			PaymentStatus: o.PaymentStatus,
			Status:        o.Status,
			CreatedAt:     createdAt,
		}
		for _, it := range o.Items {
			rec.Lines = append(rec.Lines, importer.LineRecord{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
		batch.Orders = append(batch.Orders, rec)
	}
	return batch, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("jsonfile: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("jsonfile: decode %s: %w", path, err)
	}
	return nil
}

func parseCreatedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(createdAtLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
