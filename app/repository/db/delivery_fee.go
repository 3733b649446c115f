package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"thrift-stock-service/app/domain"
)

type deliveryFeeRepository struct {
	conn *sql.DB
}

func NewDeliveryFeeRepository(db *sql.DB) domain.DeliveryFeeRepository {
	return &deliveryFeeRepository{db}
}

func (r *deliveryFeeRepository) GetByRegion(ctx context.Context, region string) (domain.DeliveryFee, error) {
	query := `SELECT region, fee, updated_at FROM delivery_fees WHERE lower(region) = lower($1)`

	var fee domain.DeliveryFee
	err := r.conn.QueryRowContext(ctx, query, region).Scan(&fee.Region, &fee.Fee, &fee.UpdatedAt)
	if err != nil {
		slog.ErrorContext(ctx, "[deliveryFeeRepository] GetByRegion", "queryRowContext", err)
		if errors.Is(err, sql.ErrNoRows) {
			return fee, domain.ErrNotFound
		}
		return fee, classify(err)
	}

	return fee, nil
}

func (r *deliveryFeeRepository) GetList(ctx context.Context) ([]domain.DeliveryFee, error) {
	query := `SELECT region, fee, updated_at FROM delivery_fees ORDER BY region`

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "[deliveryFeeRepository] GetList", "queryContext", err)
		return nil, classify(err)
	}
	defer rows.Close()

	var fees []domain.DeliveryFee
	for rows.Next() {
		var fee domain.DeliveryFee
		if err := rows.Scan(&fee.Region, &fee.Fee, &fee.UpdatedAt); err != nil {
			slog.ErrorContext(ctx, "[deliveryFeeRepository] GetList", "scan", err)
			return nil, err
		}
		fees = append(fees, fee)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[deliveryFeeRepository] GetList", "rowError", err)
		return nil, classify(err)
	}
	return fees, nil
}
