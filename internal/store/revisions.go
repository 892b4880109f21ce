package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/piwi3910/MoldQuote/internal/model"
)

func insertRevision(ctx context.Context, tx *sql.Tx, r model.PartRevision) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO part_revisions (part_id, changed_at, changed_by, field_name,
			old_value, new_value, change_type, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.PartID, formatTime(r.ChangedAt), r.ChangedBy, r.Field, r.OldValue, r.NewValue,
		r.Type, r.Notes); err != nil {
		return fmt.Errorf("save revision of part %s: %w", r.PartID, err)
	}
	return nil
}

// PartRevisions returns the audit trail of a part, oldest first.
func (s *Store) PartRevisions(ctx context.Context, partID string) ([]model.PartRevision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT part_id, changed_at, changed_by, field_name, old_value, new_value, change_type, notes
		FROM part_revisions WHERE part_id = ? ORDER BY changed_at, id`, partID)
	if err != nil {
		return nil, fmt.Errorf("list revisions of part %s: %w", partID, err)
	}
	defer rows.Close()

	revs := []model.PartRevision{}
	for rows.Next() {
		var (
			r       model.PartRevision
			changed string
		)
		if err := rows.Scan(&r.PartID, &changed, &r.ChangedBy, &r.Field, &r.OldValue,
			&r.NewValue, &r.Type, &r.Notes); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		if r.ChangedAt, err = parseTime(changed); err != nil {
			return nil, err
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}
