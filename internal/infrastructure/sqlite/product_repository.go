package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
)

const productColumns = `product_id, name, price, barcode, category`

type ProductRepository struct {
	q querier
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	return r.queryOne(ctx, `SELECT `+productColumns+` FROM products WHERE product_id = ?`, id)
}

func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	if barcode == "" {
		return nil, domain.ErrNotFound
	}
	return r.queryOne(ctx, `SELECT `+productColumns+` FROM products WHERE barcode = ?`, barcode)
}

func (r *ProductRepository) Add(ctx context.Context, p *domain.Product) error {
	if p == nil || p.ID == "" {
		return domain.ErrInvalidID
	}
	if err := r.ensureFree(ctx, p); err != nil {
		return err
	}
	if _, err := r.Get(ctx, p.ID); err == nil {
		return fmt.Errorf("%w: id %s", domain.ErrConflict, p.ID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Price, nullString(p.Barcode), nullString(p.Category),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	if p == nil || p.ID == "" {
		return domain.ErrInvalidID
	}
	if err := r.ensureFree(ctx, p); err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE products SET name = ?, price = ?, barcode = ?, category = ? WHERE product_id = ?`,
		p.Name, p.Price, nullString(p.Barcode), nullString(p.Category), p.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update product %s: %w", p.ID, err)
	}
	return requireAffected(res, domain.ErrNotFound)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE product_id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete product %s: %w", id, err)
	}
	return requireAffected(res, domain.ErrNotFound)
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list products: %w", err)
	}
	return out, nil
}

// ensureFree rejects a barcode already owned by another product.
func (r *ProductRepository) ensureFree(ctx context.Context, p *domain.Product) error {
	if !p.HasBarcode() {
		return nil
	}
	owner, err := r.GetByBarcode(ctx, p.Barcode)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case owner.ID != p.ID:
		return fmt.Errorf("%w: barcode %s", domain.ErrConflict, p.Barcode)
	}
	return nil
}

func (r *ProductRepository) queryOne(ctx context.Context, query string, arg any) (*domain.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var (
		p        domain.Product
		barcode  sql.NullString
		category sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Price, &barcode, &category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scan product: %w", err)
	}
	p.Barcode = barcode.String
	p.Category = category.String
	return &p, nil
}

func requireAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}
