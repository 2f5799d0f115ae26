package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-pos/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-pos/internal/domain/product"
)

const orderColumns = `order_id, payment_method, payment_status, created_at, status`

type OrderRepository struct {
	q querier
}

// orderRow is an orders row before its lines are attached.
type orderRow struct {
	id            string
	method        string
	paymentStatus string
	createdAt     string
	status        string
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row, err := scanOrderRow(r.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, row)
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	var exists int
	err := r.q.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE order_id = ?`, o.ID).Scan(&exists)
	switch {
	case err == nil:
		return domain.ErrConflict
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("sqlite: check order %s: %w", o.ID, err)
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO orders (order_id, total_amount, payment_method, payment_status, created_at, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.Total(), string(o.PaymentMethod), string(o.PaymentStatus), formatTime(o.CreatedAt), string(o.Status),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert order %s: %w", o.ID, err)
	}
	return r.insertLines(ctx, o)
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE orders SET total_amount = ?, payment_method = ?, payment_status = ?, status = ? WHERE order_id = ?`,
		o.Total(), string(o.PaymentMethod), string(o.PaymentStatus), string(o.Status), o.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update order %s: %w", o.ID, err)
	}
	if err := requireAffected(res, domain.ErrNotFound); err != nil {
		return err
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, o.ID); err != nil {
		return fmt.Errorf("sqlite: clear lines %s: %w", o.ID, err)
	}
	return r.insertLines(ctx, o)
}

func (r *OrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at, order_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	// Drain before loading lines: the pool holds a single connection.
	var pending []orderRow
	for rows.Next() {
		row, err := scanOrderRow(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		pending = append(pending, row)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	_ = rows.Close()

	out := make([]*domain.Order, 0, len(pending))
	for _, row := range pending {
		o, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *OrderRepository) insertLines(ctx context.Context, o *domain.Order) error {
	for _, l := range o.Lines() {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?)`,
			o.ID, l.ProductID(), l.Quantity, l.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert line %s/%s: %w", o.ID, l.ProductID(), err)
		}
	}
	return nil
}

// hydrate loads the lines, joining the current product row. Lines whose
// product has since been deleted keep their id and captured price.
func (r *OrderRepository) hydrate(ctx context.Context, row orderRow) (*domain.Order, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT oi.product_id, oi.quantity, oi.unit_price,
		        COALESCE(p.name, oi.product_id), COALESCE(p.price, oi.unit_price), p.barcode, p.category
		 FROM order_items oi
		 LEFT JOIN products p ON p.product_id = oi.product_id
		 WHERE oi.order_id = ?
		 ORDER BY oi.id`, row.id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load lines %s: %w", row.id, err)
	}
	defer func() { _ = rows.Close() }()

	var lines []domain.Line
	for rows.Next() {
		var (
			l        domain.Line
			p        product.Product
			barcode  sql.NullString
			category sql.NullString
		)
		if err := rows.Scan(&p.ID, &l.Quantity, &l.UnitPrice, &p.Name, &p.Price, &barcode, &category); err != nil {
			return nil, fmt.Errorf("sqlite: scan line %s: %w", row.id, err)
		}
		p.Barcode, p.Category = barcode.String, category.String
		l.Product = p
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: load lines %s: %w", row.id, err)
	}

	createdAt, err := parseTime(row.createdAt)
	if err != nil {
		return nil, err
	}
	return domain.Restore(row.id, lines,
		payment.Method(row.method), payment.Status(row.paymentStatus),
		createdAt, domain.Status(row.status))
}

func scanOrderRow(s scanner) (orderRow, error) {
	var row orderRow
	if err := s.Scan(&row.id, &row.method, &row.paymentStatus, &row.createdAt, &row.status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return row, err
		}
		return row, fmt.Errorf("sqlite: scan order: %w", err)
	}
	return row, nil
}
