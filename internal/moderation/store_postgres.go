// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/uservault/internal/platform/database/schema"
	"github.com/taibuivan/uservault/internal/platform/dberr"
)

// PostgresBanRepository implements [BanRepository] using pgx.
type PostgresBanRepository struct {
	pool *pgxpool.Pool
}

// NewBanRepository creates a new PostgreSQL implementation of the BanRepository.
func NewBanRepository(pool *pgxpool.Pool) *PostgresBanRepository {
	return &PostgresBanRepository{pool: pool}
}

func scanBan(row pgx.Row) (*Ban, error) {
	ban := &Ban{}
	err := row.Scan(
		&ban.UserID,
		&ban.Reason,
		&ban.BannedAt,
		&ban.AppealDeadline,
		&ban.AppealSubmittedAt,
		&ban.AppealText,
	)
	return ban, err
}

// FindByUserID looks the ban up by primary key.
func (repository *PostgresBanRepository) FindByUserID(context context.Context, userID string) (*Ban, error) {
	b := schema.Ban
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, schema.List(b.Columns()...), b.Table, b.UserID)

	ban, err := scanBan(repository.pool.QueryRow(context, query, userID))
	if err != nil {
		return nil, dberr.Wrap(err, "Ban", "postgres_ban_repo_find_by_user")
	}
	return ban, nil
}

// FindByUsername joins the profile to resolve the owner of username.
func (repository *PostgresBanRepository) FindByUsername(context context.Context, username string) (*Ban, error) {
	b, p := schema.Ban, schema.Profile
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s b
		JOIN %s p ON p.%s = b.%s
		WHERE p.%s = $1`,
		schema.Qualified("b", b.Columns()...),
		b.Table,
		p.Table, p.UserID, b.UserID,
		p.Username,
	)

	ban, err := scanBan(repository.pool.QueryRow(context, query, username))
	if err != nil {
		return nil, dberr.Wrap(err, "Ban", "postgres_ban_repo_find_by_username")
	}
	return ban, nil
}

// SubmitAppeal stores the appeal only while the ban is still appealable.
func (repository *PostgresBanRepository) SubmitAppeal(context context.Context, userID, text string, at time.Time) (bool, error) {
	b := schema.Ban
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3
		WHERE %s = $1
		  AND %s IS NULL
		  AND (%s IS NULL OR %s > $3)`,
		b.Table,
		b.AppealText, b.AppealSubmittedAt,
		b.UserID,
		b.AppealSubmittedAt,
		b.AppealDeadline, b.AppealDeadline,
	)

	tag, err := repository.pool.Exec(context, query, userID, text, at)
	if err != nil {
		return false, fmt.Errorf("postgres_ban_repo_appeal_failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
