package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/pkg"
)

type productRepository struct {
	conn *sql.DB
}

func NewProductRepository(db *sql.DB) domain.ProductRepository {
	return &productRepository{db}
}

func (r *productRepository) GetByID(ctx context.Context, id string) (domain.Product, error) {
	query := `SELECT id, name, price, stock, version, updated_at
	FROM products WHERE id = $1`

	var product domain.Product
	err := r.conn.QueryRowContext(ctx, query, id).Scan(&product.ID, &product.Name, &product.Price,
		&product.Stock, &product.Version, &product.UpdatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] GetByID", "queryRowContext", err)
		if errors.Is(err, sql.ErrNoRows) {
			return product, domain.ErrNotFound
		}
		return product, classify(err)
	}

	reservations, err := getReservationsByProductIDs(ctx, r.conn, []string{id})
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] GetByID", "getReservations", err)
		return product, classify(err)
	}
	product.Reservations = reservations[id]

	return product, nil
}

func (r *productRepository) ListWithReservations(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT p.id, p.name, p.price, p.stock, p.version, p.updated_at
	FROM products p
	WHERE EXISTS (SELECT 1 FROM product_reservations pr WHERE pr.product_id = p.id)
	ORDER BY p.id`

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] ListWithReservations", "queryContext", err)
		return nil, classify(err)
	}
	defer rows.Close()

	var products []domain.Product
	var ids []string
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.Stock,
			&product.Version, &product.UpdatedAt); err != nil {
			slog.ErrorContext(ctx, "[productRepository] ListWithReservations", "scan", err)
			return nil, err
		}
		products = append(products, product)
		ids = append(ids, product.ID)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[productRepository] ListWithReservations", "rowError", err)
		return nil, classify(err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	reservations, err := getReservationsByProductIDs(ctx, r.conn, ids)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] ListWithReservations", "getReservations", err)
		return nil, classify(err)
	}
	for i := range products {
		products[i].Reservations = reservations[products[i].ID]
	}

	return products, nil
}

func (r *productRepository) ReplaceReservations(ctx context.Context, productID string, expectedVersion int64, reservations []domain.Reservation) error {
	err := pkg.WithTransaction(ctx, r.conn, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE products SET version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`, productID, expectedVersion)
		if err != nil {
			slog.ErrorContext(ctx, "[productRepository] ReplaceReservations", "bumpVersion", err)
			return err
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			slog.ErrorContext(ctx, "[productRepository] ReplaceReservations", "rowsAffected", err)
			return err
		}
		if rowsAffected == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrVersionMismatch
		}

		if err := replaceReservationRows(ctx, tx, productID, reservations); err != nil {
			slog.ErrorContext(ctx, "[productRepository] ReplaceReservations", "replaceRows", err)
			return err
		}
		return nil
	})
	return classify(err)
}

func (r *productRepository) PatchStock(ctx context.Context, productID string, fn func(stock int64) (int64, error)) (domain.StockChange, error) {
	var change domain.StockChange
	err := pkg.WithTransaction(ctx, r.conn, func(ctx context.Context, tx *sql.Tx) error {
		// Lock the product row for update
		current, err := r.lockForUpdate(ctx, productID, tx)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE products SET stock = $1, version = version + 1, updated_at = now()
		WHERE id = $2`, next, productID)
		if err != nil {
			slog.ErrorContext(ctx, "[productRepository] PatchStock", "execContext", err)
			return err
		}

		change = domain.StockChange{ProductID: productID, PreviousStock: current, NewStock: next}
		return nil
	})
	if err != nil {
		return domain.StockChange{}, classify(err)
	}
	return change, nil
}

func (r *productRepository) lockForUpdate(ctx context.Context, id string, tx *sql.Tx) (int64, error) {
	var stock int64
	err := tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&stock)
	if err != nil {
		slog.ErrorContext(ctx, "[productRepository] LockForUpdate", "queryRowContext", err)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return stock, nil
}
