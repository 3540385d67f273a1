// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/uservault/internal/platform/database/schema"
	"github.com/taibuivan/uservault/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new profile repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanProfile(row pgx.Row) (*Profile, error) {
	profile := &Profile{}
	err := row.Scan(
		&profile.UserID,
		&profile.Username,
		&profile.DisplayName,
		&profile.Bio,
		&profile.AvatarURL,
		&profile.BackgroundVideoURL,
		&profile.MusicURL,
		&profile.DiscordID,
		&profile.ViewCount,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	return profile, err
}

func (repository *PostgresRepository) findBy(context context.Context, column, value, action string) (*Profile, error) {
	p := schema.Profile
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, schema.List(p.Columns()...), p.Table, column)

	profile, err := scanProfile(repository.pool.QueryRow(context, query, value))
	if err != nil {
		return nil, dberr.Wrap(err, "Profile", action)
	}
	return profile, nil
}

// FindByUsername looks a profile up by its unique username.
func (repository *PostgresRepository) FindByUsername(context context.Context, username string) (*Profile, error) {
	return repository.findBy(context, schema.Profile.Username, username, "postgres_profile_repo_find_by_username")
}

// FindByUserID looks a profile up by its owner.
func (repository *PostgresRepository) FindByUserID(context context.Context, userID string) (*Profile, error) {
	return repository.findBy(context, schema.Profile.UserID, userID, "postgres_profile_repo_find_by_user")
}

/*
Update applies the non-nil fields of input.

Description: Nil pointers bind as NULL and COALESCE keeps the stored value,
so one statement serves every partial update.
*/
func (repository *PostgresRepository) Update(context context.Context, userID string, input UpdateInput) (*Profile, error) {
	p := schema.Profile
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = COALESCE($2, %[2]s),
		    %[3]s = COALESCE($3, %[3]s),
		    %[4]s = COALESCE($4, %[4]s),
		    %[5]s = COALESCE($5, %[5]s),
		    %[6]s = COALESCE($6, %[6]s),
		    %[7]s = now()
		WHERE %[8]s = $1
		RETURNING %[9]s`,
		p.Table,
		p.DisplayName, p.Bio, p.AvatarURL, p.BackgroundVideoURL, p.MusicURL,
		p.UpdatedAt,
		p.UserID,
		schema.List(p.Columns()...),
	)

	profile, err := scanProfile(repository.pool.QueryRow(context, query,
		userID,
		input.DisplayName,
		input.Bio,
		input.AvatarURL,
		input.BackgroundVideoURL,
		input.MusicURL,
	))
	if err != nil {
		return nil, dberr.Wrap(err, "Profile", "postgres_profile_repo_update")
	}
	return profile, nil
}

// ListSocialLinks returns links ordered by position.
func (repository *PostgresRepository) ListSocialLinks(context context.Context, userID string) ([]SocialLink, error) {
	s := schema.SocialLink
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC, %s ASC`,
		schema.List(s.ID, s.Platform, s.URL, s.Position), s.Table, s.UserID, s.Position, s.CreatedAt)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_profile_repo_links_failed: %w", err)
	}

	links, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SocialLink, error) {
		var link SocialLink
		err := row.Scan(&link.ID, &link.Platform, &link.URL, &link.Position)
		return link, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres_profile_repo_links_scan_failed: %w", err)
	}
	return links, nil
}

// ListBadges returns awarded badges, oldest first.
func (repository *PostgresRepository) ListBadges(context context.Context, userID string) ([]Badge, error) {
	b, ub := schema.Badge, schema.UserBadge
	query := fmt.Sprintf(`
		SELECT %s, ub.%s
		FROM %s ub
		JOIN %s b ON b.%s = ub.%s
		WHERE ub.%s = $1
		ORDER BY ub.%s ASC`,
		schema.Qualified("b", b.ID, b.Slug, b.Name, b.Description, b.IconURL), ub.AwardedAt,
		ub.Table,
		b.Table, b.ID, ub.BadgeID,
		ub.UserID,
		ub.AwardedAt,
	)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_profile_repo_badges_failed: %w", err)
	}

	badges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Badge, error) {
		var badge Badge
		err := row.Scan(&badge.ID, &badge.Slug, &badge.Name, &badge.Description, &badge.IconURL, &badge.AwardedAt)
		return badge, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres_profile_repo_badges_scan_failed: %w", err)
	}
	return badges, nil
}
