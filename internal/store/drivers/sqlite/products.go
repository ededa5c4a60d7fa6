package sqlite

import (
	"context"
	"time"

	"github.com/bitmerch/bitmerch/internal/domain"
)

type productsRepo struct {
	db querier
}

func (r *productsRepo) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, user_id, file_name, destination, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.FileName, p.Destination, time.Now().UTC())
	return mapConstraint(err)
}

func (r *productsRepo) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, file_name, destination, created_at
		 FROM products WHERE id = ?`, id)

	var p domain.Product
	if err := row.Scan(&p.ID, &p.UserID, &p.FileName, &p.Destination, &p.CreatedAt); err != nil {
		return domain.Product{}, mapNotFound(err)
	}
	return p, nil
}

func (r *productsRepo) ListProducts(ctx context.Context, limit, offset int64) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, file_name, destination, created_at
		 FROM products ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.UserID, &p.FileName, &p.Destination, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *productsRepo) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}
