package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"thrift-stock-service/app/domain"

	"github.com/gofrs/uuid/v5"
)

var orderSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"total":      "total",
	"status":     "status",
}

type orderRepository struct {
	conn *sql.DB
}

func NewOrderRepository(db *sql.DB) domain.OrderRepository {
	return &orderRepository{db}
}

func (r *orderRepository) Create(ctx context.Context, data *domain.Order) error {
	if data.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		data.ID = id.String()
	}

	items, err := json.Marshal(data.Items)
	if err != nil {
		return err
	}
	customer, err := json.Marshal(data.CustomerInfo)
	if err != nil {
		return err
	}

	query := `INSERT INTO orders (id, session_id, items, status, customer_info, delivery_region, delivery_fee, total, receipt_url)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at, updated_at`
	err = r.conn.QueryRowContext(ctx, query, data.ID, data.SessionID, items, data.Status, customer,
		data.DeliveryRegion, data.DeliveryFee, data.Total, data.ReceiptURL).
		Scan(&data.CreatedAt, &data.UpdatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] Create", "queryRowContext", err)
		return classify(err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	var items, customer []byte
	err := row.Scan(&order.ID, &order.SessionID, &items, &order.Status, &customer,
		&order.DeliveryRegion, &order.DeliveryFee, &order.Total, &order.ReceiptURL,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return order, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return order, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(customer, &order.CustomerInfo); err != nil {
		return order, fmt.Errorf("decode customer_info: %w", err)
	}
	return order, nil
}

const orderColumns = `id, session_id, items, status, customer_info, delivery_region, delivery_fee, total, receipt_url, created_at, updated_at`

func (r *orderRepository) GetByID(ctx context.Context, id string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] GetByID", "queryRowContext", err)
		if errors.Is(err, sql.ErrNoRows) {
			return order, domain.ErrNotFound
		}
		return order, classify(err)
	}

	return order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`
	res, err := r.conn.ExecContext(ctx, query, to, id, from)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] UpdateStatus", "execContext", err)
		return classify(err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] UpdateStatus", "rowsAffected", err)
		return classify(err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// nothing changed: either the order is gone or someone moved it first
	var exists bool
	if err := r.conn.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return classify(err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrVersionMismatch
}

func (r *orderRepository) GetListOrder(ctx context.Context, param domain.GetListOrderRequest) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1 = 1`
	args := []any{}
	placeholder := 1

	if param.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", placeholder)
		args = append(args, param.Status)
		placeholder++
	}

	if column, ok := orderSortColumns[param.SortBy]; ok {
		query += fmt.Sprintf(" ORDER BY %s", column)
		if strings.EqualFold(param.SortOrder, "desc") {
			query += " DESC"
		} else {
			query += " ASC"
		}
	} else {
		query += ` ORDER BY created_at DESC`
	}

	if param.Page > 0 && param.Limit > 0 {
		offset := (param.Page - 1) * param.Limit
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", placeholder, placeholder+1)
		args = append(args, param.Limit, offset)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] GetListOrder", "queryContext", err)
		return nil, classify(err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			slog.ErrorContext(ctx, "[orderRepository] GetListOrder", "scan", err)
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[orderRepository] GetListOrder", "rowError", err)
		return nil, classify(err)
	}
	return orders, nil
}

func (r *orderRepository) GetListOrderCount(ctx context.Context, param domain.GetListOrderRequest) (int64, error) {
	query := `SELECT COUNT(*) FROM orders WHERE 1 = 1`
	args := []any{}

	if param.Status != "" {
		query += " AND status = $1"
		args = append(args, param.Status)
	}

	var count int64
	err := r.conn.QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		slog.ErrorContext(ctx, "[orderRepository] GetListOrderCount", "queryRowContext", err)
		return 0, classify(err)
	}
	return count, nil
}
