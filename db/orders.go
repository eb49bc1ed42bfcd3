// ABOUTME: Order database operations
// ABOUTME: Stores fulfillment orders and serves delivery-window queries for the agenda
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stallbook/models"
)

func CreateOrder(db *sql.DB, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}

	_, err := db.Exec(`
		INSERT INTO orders (id, customer_name, type, status, scheduled_date, delivery_date, delivery_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, order.ID.String(), order.CustomerName, order.Type, order.Status,
		order.ScheduledDate, order.DeliveryDate, order.DeliveryAddress,
		order.CreatedAt, order.UpdatedAt)

	return err
}

// FindDeliveryOrdersInWindow returns delivery-type orders whose scheduled
// date falls in [from, to), ordered by scheduled date. Orders without a
// scheduled date never appear. A nil bound leaves that side open.
func FindDeliveryOrdersInWindow(db *sql.DB, from, to *time.Time) ([]models.Order, error) {
	query := `
		SELECT id, customer_name, type, status, scheduled_date, delivery_date, delivery_address, created_at, updated_at
		FROM orders
		WHERE type = ? AND scheduled_date IS NOT NULL`
	args := []interface{}{models.OrderTypeDelivery}
	if from != nil {
		query += " AND scheduled_date >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND scheduled_date < ?"
		args = append(args, *to)
	}
	query += " ORDER BY scheduled_date ASC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var id string
		var customerName sql.NullString
		var scheduledDate, deliveryDate sql.NullTime
		var deliveryAddress sql.NullString

		if err := rows.Scan(&id, &customerName, &o.Type, &o.Status, &scheduledDate,
			&deliveryDate, &deliveryAddress, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid order id %q: %w", id, err)
		}
		o.ID = parsed
		o.CustomerName = customerName.String
		if scheduledDate.Valid {
			o.ScheduledDate = &scheduledDate.Time
		}
		if deliveryDate.Valid {
			o.DeliveryDate = &deliveryDate.Time
		}
		o.DeliveryAddress = deliveryAddress.String

		orders = append(orders, o)
	}

	return orders, rows.Err()
}
