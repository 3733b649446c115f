package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"thrift-stock-service/app/domain"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// getReservationsByProductIDs returns each product's holds in stored order.
func getReservationsByProductIDs(ctx context.Context, q queryer, productIDs []string) (map[string][]domain.Reservation, error) {
	query := `SELECT product_id, session_id, quantity, reserved_until
	FROM product_reservations
	WHERE product_id = ANY($1)
	ORDER BY product_id, position`

	rows, err := q.QueryContext(ctx, query, productIDs)
	if err != nil {
		slog.ErrorContext(ctx, "[reservationRows] getReservationsByProductIDs", "queryContext", err)
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.Reservation)
	for rows.Next() {
		var productID string
		var reservation domain.Reservation
		if err := rows.Scan(&productID, &reservation.SessionID, &reservation.Quantity, &reservation.ReservedUntil); err != nil {
			slog.ErrorContext(ctx, "[reservationRows] getReservationsByProductIDs", "scan", err)
			return nil, err
		}
		result[productID] = append(result[productID], reservation)
	}

	if err := rows.Err(); err != nil {
		slog.ErrorContext(ctx, "[reservationRows] getReservationsByProductIDs", "rowError", err)
		return nil, err
	}

	return result, nil
}

// replaceReservationRows swaps the product's hold rows for the given list.
func replaceReservationRows(ctx context.Context, tx *sql.Tx, productID string, reservations []domain.Reservation) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_reservations WHERE product_id = $1`, productID); err != nil {
		slog.ErrorContext(ctx, "[reservationRows] replaceReservationRows", "delete", err)
		return err
	}

	if len(reservations) == 0 {
		return nil
	}

	valuePlaceholders := []string{}
	valueArgs := []any{}
	for i, reservation := range reservations {
		n := i * 5
		valuePlaceholders = append(valuePlaceholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5))
		valueArgs = append(valueArgs, productID, reservation.SessionID, reservation.Quantity, reservation.ReservedUntil, i)
	}

	query := fmt.Sprintf(`INSERT INTO product_reservations (product_id, session_id, quantity, reserved_until, position)
	VALUES %s`, strings.Join(valuePlaceholders, ", "))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		slog.ErrorContext(ctx, "[reservationRows] replaceReservationRows", "insert", err)
		return err
	}
	return nil
}
