package store

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id       UUID PRIMARY KEY,
	username      VARCHAR(150) NOT NULL UNIQUE,
	first_name    VARCHAR(150) NOT NULL DEFAULT '',
	last_name     VARCHAR(150) NOT NULL DEFAULT '',
	email         VARCHAR(254) NOT NULL UNIQUE,
	phone_number  VARCHAR(20),
	role          VARCHAR(20) NOT NULL CHECK (role IN ('guest', 'host', 'admin')),
	password_hash VARCHAR(128) NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS listings (
	listing_id      UUID PRIMARY KEY,
	host_id         UUID NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
	name            VARCHAR(200) NOT NULL,
	description     TEXT NOT NULL,
	location        VARCHAR(100) NOT NULL,
	price_per_night NUMERIC(10, 2) NOT NULL CHECK (price_per_night >= 0),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS bookings (
	booking_id  UUID PRIMARY KEY,
	listing_id  UUID NOT NULL REFERENCES listings(listing_id) ON DELETE CASCADE,
	user_id     UUID NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
	start_date  DATE NOT NULL,
	end_date    DATE NOT NULL,
	total_price NUMERIC(10, 2) NOT NULL,
	status      VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'confirmed', 'cancelled')),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reviews (
	review_id  UUID PRIMARY KEY,
	listing_id UUID NOT NULL REFERENCES listings(listing_id) ON DELETE CASCADE,
	user_id    UUID NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
	rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment    VARCHAR(250) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS payments (
	payment_id   UUID PRIMARY KEY,
	tx_ref       VARCHAR(100) NOT NULL UNIQUE,
	booking_id   UUID NOT NULL REFERENCES bookings(booking_id) ON DELETE CASCADE,
	amount       NUMERIC(10, 2) NOT NULL,
	status       VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'success', 'failed')),
	checkout_url TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS processed_events (
	event_id     VARCHAR(64) PRIMARY KEY,
	event_type   VARCHAR(64) NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_listings_host_id ON listings(host_id);
CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_listing_id ON bookings(listing_id);
CREATE INDEX IF NOT EXISTS idx_reviews_listing_id ON reviews(listing_id);
CREATE INDEX IF NOT EXISTS idx_payments_booking_id ON payments(booking_id);
`

// Migrate creates the tables and indexes if they do not exist yet
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
