package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/digitalme/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WalletRepo stores each holder's exported (encrypted) wallet as JSONB.
type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

func (r *WalletRepo) Get(ctx context.Context, holderID uuid.UUID) (*models.HolderWallet, error) {
	var (
		hw  models.HolderWallet
		raw []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT holder_id, wallet, created_at, updated_at
		FROM holder_wallets WHERE holder_id = $1
	`, holderID).Scan(&hw.HolderID, &raw, &hw.CreatedAt, &hw.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &hw.Record); err != nil {
		return nil, fmt.Errorf("decode wallet of %s: %w", holderID, err)
	}
	return &hw, nil
}

// Save upserts the wallet and registers its DIDs in the same transaction.
func (r *WalletRepo) Save(ctx context.Context, holderID uuid.UUID, rec models.WalletRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO holder_wallets (holder_id, wallet)
		VALUES ($1, $2)
		ON CONFLICT (holder_id) DO UPDATE SET
			wallet = EXCLUDED.wallet,
			updated_at = now()
	`, holderID, raw)
	if err != nil {
		return err
	}

	for d := range rec.DIDMap {
		tag, err := tx.Exec(ctx, `
			INSERT INTO holder_dids (did, holder_id) VALUES ($1, $2)
			ON CONFLICT (did) DO UPDATE SET holder_id = holder_dids.holder_id
			WHERE holder_dids.holder_id = EXCLUDED.holder_id
		`, d, holderID)
		if err != nil {
			return fmt.Errorf("register %s: %w", d, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrDIDTaken, d)
		}
	}

	return tx.Commit(ctx)
}

// HolderByDID resolves the holder that owns a DID.
func (r *WalletRepo) HolderByDID(ctx context.Context, d string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT holder_id FROM holder_dids WHERE did = $1`, d).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	return id, err
}
