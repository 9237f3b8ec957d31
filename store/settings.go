package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"eventpass-backend/models"
)

func (s *Store) ListSettings(ctx context.Context) ([]models.SystemSetting, error) {
	rows, err := s.db.Query(ctx, `SELECT key, value, updated_at FROM system_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", classify(err))
	}
	defer rows.Close()

	settings := []models.SystemSetting{}
	for rows.Next() {
		var st models.SystemSetting
		if err := rows.Scan(&st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", classify(err))
		}
		settings = append(settings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settings: %w", classify(err))
	}
	return settings, nil
}

// UpsertSettings writes all given key/value pairs in one transaction.
func (s *Store) UpsertSettings(ctx context.Context, settings []models.SystemSetting) error {
	now := s.now().UTC()
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		for _, st := range settings {
			_, err := tx.Exec(ctx, `
				INSERT INTO system_settings (key, value, updated_at)
				VALUES ($1, $2, $3)
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
			`, st.Key, st.Value, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert settings: %w", classify(err))
	}
	return nil
}
