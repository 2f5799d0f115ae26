package terminal

import (
	"context"

	"github.com/Zhima-Mochi/minishop-pos/internal/application/inventory"
)

var levelLabels = map[inventory.Level]string{
	inventory.LevelInStock:    "In Stock",
	inventory.LevelLowStock:   "Low Stock",
	inventory.LevelOutOfStock: "Out of Stock",
}

func (t *Terminal) inventoryScreen(ctx context.Context) error {
	t.header("Inventory Management", 60)
	t.println("\nEnter product ID to view details (or press Enter to view all):")
	query, err := t.ask("> ")
	if err != nil {
		return err
	}
	if query == "" {
		return t.inventoryReport(ctx)
	}

	matches, err := t.lookup.Search(ctx, query)
	if err != nil {
		return err
	}
	switch len(matches) {
	case 0:
		t.printf("No product found matching: %s\n", query)
		return nil
	case 1:
		t.productDetails(matches[0])
		return nil
	}

	t.printf("\nFound %d matching products:\n", len(matches))
	t.println(rule("-", 60))
	for _, e := range matches {
		t.printf("%s - %s (Stock: %d)\n", e.Product.ID, e.Product.Name, e.Quantity)
	}
	t.println(rule("-", 60))
	t.println("\nEnter product ID to view details:")
	id, err := t.ask("> ")
	if err != nil || id == "" {
		return err
	}
	for _, e := range matches {
		if e.Product.ID == id {
			t.productDetails(e)
			return nil
		}
	}
	picked, err := t.lookup.Search(ctx, id)
	if err != nil {
		return err
	}
	if len(picked) == 1 && picked[0].Product.ID == id {
		t.productDetails(picked[0])
		return nil
	}
	t.printf("Product not found: %s\n", id)
	return nil
}

func (t *Terminal) inventoryReport(ctx context.Context) error {
	report, err := t.lookup.Report(ctx)
	if err != nil {
		return err
	}

	t.header("Inventory Status", 70)
	t.printf("%-12s %-25s %-10s %-15s\n", "Product ID", "Product Name", "Stock", "Status")
	t.println(rule("-", 70))
	if len(report.Entries) == 0 {
		t.println("No products found in system")
		t.println(rule("=", 70))
		return nil
	}
	for _, e := range report.Entries {
		t.printf("%-12s %-25s %-10d %-15s\n", e.Product.ID, e.Product.Name, e.Quantity, levelLabels[e.Level])
	}
	t.println(rule("-", 70))

	s := report.Summary
	t.println("Summary:")
	t.printf("  Total Products: %d\n", s.TotalProducts)
	t.printf("  In Stock: %d\n", s.InStock)
	t.printf("  Out of Stock: %d\n", s.OutOfStock)
	t.printf("  Low Stock (<%d): %d\n", report.Threshold, s.LowStock)
	t.printf("  Total Items: %d\n", s.TotalItems)
	t.println(rule("=", 70))
	return nil
}

func (t *Terminal) productDetails(e inventory.Entry) {
	t.header("Product Inventory Details", 60)
	t.printf("Product ID: %s\n", e.Product.ID)
	t.printf("Product Name: %s\n", e.Product.Name)
	t.printf("Price: $%.2f\n", e.Product.Price)
	if e.Product.Category != "" {
		t.printf("Category: %s\n", e.Product.Category)
	}
	t.printf("Current Stock: %d\n", e.Quantity)
	t.printf("Status: %s\n", levelLabels[e.Level])
	t.println(rule("=", 60))
}
