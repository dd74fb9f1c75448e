package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-reindex/internal/database"
	"github.com/kozaktomas/face-reindex/internal/facematch"
)

// ResultRepository stores reconciled rows in the match_results table.
type ResultRepository struct {
	pool *Pool
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(pool *Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveResults upserts one row per face inside a single transaction.
// A row is keyed by image, detected face, user and claimed face, so redelivered
// batches overwrite their own rows and claims sharing a user stay distinct.
func (r *ResultRepository) SaveResults(ctx context.Context, batch facematch.ResultBatch) error {
	rows, err := database.RowsFromBatch(batch)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO match_results (
			external_image_id, face_id, user_id, bucket, object_key,
			old_face_id, old_image_id, image_id, bounding_boxes, is_new_face
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (external_image_id, face_id, user_id, old_face_id) DO UPDATE SET
			bucket = EXCLUDED.bucket,
			object_key = EXCLUDED.object_key,
			old_image_id = EXCLUDED.old_image_id,
			image_id = EXCLUDED.image_id,
			bounding_boxes = EXCLUDED.bounding_boxes,
			is_new_face = EXCLUDED.is_new_face,
			created_at = NOW()
	`

	return r.pool.withTx(ctx, func(tx *sql.Tx) error {
		for _, row := range rows {
			var isNew sql.NullBool
			if row.IsNewFace != nil {
				isNew = sql.NullBool{Bool: *row.IsNewFace, Valid: true}
			}
			_, err := tx.ExecContext(ctx, query,
				row.ExternalImageID, row.FaceID, row.UserID, row.Bucket, row.Key,
				row.OldFaceID, row.OldImageID, row.ImageID, row.BoundingBoxes, isNew,
			)
			if err != nil {
				return fmt.Errorf("save result for face %s: %w", row.FaceID, err)
			}
		}
		return nil
	})
}

// ListResults returns rows for an external image id ordered by user
func (r *ResultRepository) ListResults(ctx context.Context, externalImageID string) ([]database.StoredResult, error) {
	query := `
		SELECT bucket, object_key, external_image_id, user_id, face_id,
			old_face_id, old_image_id, image_id, bounding_boxes::text, is_new_face, created_at
		FROM match_results
		WHERE external_image_id = $1
		ORDER BY user_id, face_id, old_face_id
	`

	rows, err := r.pool.db.QueryContext(ctx, query, externalImageID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []database.StoredResult
	for rows.Next() {
		var s database.StoredResult
		var isNew sql.NullBool
		if err := rows.Scan(
			&s.Bucket, &s.Key, &s.ExternalImageID, &s.UserID, &s.FaceID,
			&s.OldFaceID, &s.OldImageID, &s.ImageID, &s.BoundingBoxes, &isNew, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if isNew.Valid {
			v := isNew.Bool
			s.IsNewFace = &v
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// CountResults returns the total number of stored rows
func (r *ResultRepository) CountResults(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM match_results").Scan(&count); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return count, nil
}
