package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kwikwag/eth-approvals/internal/model"
)

// Store persists scan reports to Postgres so runs against the same owner
// can be compared over time.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutReport upserts the scan row and every approval in one batch.
func (s *Store) PutReport(ctx context.Context, report *model.Report) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO scans (owner, block_number, scanned_at, approval_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (owner, block_number)
		DO UPDATE SET
			scanned_at = EXCLUDED.scanned_at,
			approval_count = EXCLUDED.approval_count,
			updated_at = now()
	`,
		report.Owner,
		int64(report.BlockNumber),
		report.ScannedAt,
		len(report.Approvals),
	)

	for _, approval := range report.Approvals {
		var allowance *string
		if approval.Allowance != "" {
			value := approval.Allowance
			allowance = &value
		}
		var balance *string
		if approval.Balance != "" {
			value := approval.Balance
			balance = &value
		}

		batch.Queue(`
			INSERT INTO scan_approvals (
				owner, block_number, contract, spender, amount,
				allowance, allowance_error, balance, risk, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (owner, block_number, contract, spender)
			DO UPDATE SET
				amount = EXCLUDED.amount,
				allowance = EXCLUDED.allowance,
				allowance_error = EXCLUDED.allowance_error,
				balance = EXCLUDED.balance,
				risk = EXCLUDED.risk,
				updated_at = now()
		`,
			report.Owner,
			int64(report.BlockNumber),
			approval.Contract,
			approval.Spender,
			approval.Amount,
			allowance,
			approval.AllowanceError,
			balance,
			approval.Risk,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(report.Approvals)+1; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
