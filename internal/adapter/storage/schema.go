package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement; the driver runs without
// multiStatements.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         VARCHAR(64)  NOT NULL PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name  VARCHAR(100) NOT NULL,
		email      VARCHAR(255) NOT NULL,
		created_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS items (
		id          VARCHAR(64)    NOT NULL PRIMARY KEY,
		name        VARCHAR(255)   NOT NULL,
		description TEXT           NOT NULL,
		price       DECIMAL(12,2)  NOT NULL,
		category    ENUM('clothing','grocery','electronics','other') NOT NULL DEFAULT 'other',
		seller_id   VARCHAR(64)    NOT NULL,
		status      ENUM('available','sold') NOT NULL DEFAULT 'available',
		created_at  DATETIME(6)    NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at  DATETIME(6)    NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_items_status_seller (status, seller_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS orders (
		id         VARCHAR(64)   NOT NULL PRIMARY KEY,
		buyer_id   VARCHAR(64)   NOT NULL,
		total      DECIMAL(12,2) NOT NULL,
		created_at DATETIME(6)   NOT NULL,
		KEY idx_orders_buyer (buyer_id, created_at)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS order_items (
		order_id     VARCHAR(64) NOT NULL,
		item_id      VARCHAR(64) NOT NULL,
		position     INT         NOT NULL,
		seller_id    VARCHAR(64) NOT NULL,
		status       ENUM('pending','completed') NOT NULL DEFAULT 'pending',
		otp          CHAR(6)     NOT NULL,
		completed_at DATETIME(6) NULL,
		PRIMARY KEY (order_id, item_id),
		KEY idx_order_items_seller (seller_id, status),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
}

// Migrate creates any missing table. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
