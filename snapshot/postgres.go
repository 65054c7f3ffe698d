package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/wepink/cart-service/core/cart"
)

// Postgres keeps one row per session in the cart_snapshots table.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Load(ctx context.Context, sessionID string) (cart.Items, bool, error) {
	const q = `SELECT items FROM cart_snapshots WHERE session_id = $1`

	var b []byte
	err := p.db.GetContext(ctx, &b, q, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading snapshot: %w", err)
	}

	items, err := decode(b)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (p *Postgres) Save(ctx context.Context, sessionID string, items cart.Items) error {
	const q = `
	INSERT INTO cart_snapshots (session_id, items, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (session_id)
	DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at`

	b, err := encode(items)
	if err != nil {
		return err
	}

	if _, err := p.db.ExecContext(ctx, q, sessionID, b, time.Now().UTC()); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, sessionID string) error {
	const q = `DELETE FROM cart_snapshots WHERE session_id = $1`

	if _, err := p.db.ExecContext(ctx, q, sessionID); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
