package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tflite-inspector/internal/core/domain"
	"tflite-inspector/internal/core/ports/output"
)

// Schema creates the model_inspection table when it does not exist.
const Schema = `
	CREATE TABLE IF NOT EXISTS model_inspection (
		id          UUID PRIMARY KEY,
		created_at  TIMESTAMPTZ NOT NULL,
		project_id  UUID NOT NULL,
		model_name  TEXT NOT NULL,
		source      TEXT NOT NULL,
		sha256      TEXT NOT NULL,
		size_bytes  BIGINT NOT NULL,
		summary     JSONB NOT NULL,
		inputs      JSONB NOT NULL,
		outputs     JSONB NOT NULL,
		signatures  JSONB NOT NULL,
		arena_bytes BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_model_inspection_project
		ON model_inspection (project_id, created_at DESC);
`

const inspectionColumns = `
	id, created_at, project_id, model_name, source, sha256, size_bytes,
	summary, inputs, outputs, signatures, arena_bytes
`

type inspectionRepo struct {
	pool *pgxpool.Pool
}

func NewInspectionRepository(pool *pgxpool.Pool) ports.InspectionRepository {
	return &inspectionRepo{pool: pool}
}

// Migrate applies Schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate model_inspection: %w", err)
	}
	return nil
}

func (r *inspectionRepo) Create(ctx context.Context, in *domain.Inspection) error {
	summaryJSON, err := json.Marshal(in.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	inputsJSON, err := json.Marshal(in.Inputs)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	outputsJSON, err := json.Marshal(in.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}
	signaturesJSON, err := json.Marshal(in.Signatures)
	if err != nil {
		return fmt.Errorf("marshal signatures: %w", err)
	}

	query := `
		INSERT INTO model_inspection (` + inspectionColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`
	_, err = r.pool.Exec(ctx, query,
		in.ID, in.CreatedAt, in.ProjectID, in.ModelName, in.Source,
		in.SHA256, in.SizeBytes, summaryJSON, inputsJSON, outputsJSON,
		signaturesJSON, in.ArenaBytes,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("create inspection: duplicate id %s", in.ID)
		}
		return fmt.Errorf("create inspection: %w", err)
	}
	return nil
}

func (r *inspectionRepo) GetByID(ctx context.Context, projectID uuid.UUID, id uuid.UUID) (*domain.Inspection, error) {
	query := `SELECT ` + inspectionColumns + ` FROM model_inspection WHERE id = $1 AND project_id = $2`
	in, err := scanInspection(r.pool.QueryRow(ctx, query, id, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInspectionNotFound
		}
		return nil, fmt.Errorf("get inspection by id: %w", err)
	}
	return in, nil
}

func (r *inspectionRepo) List(ctx context.Context, filter ports.InspectionListFilter) ([]*domain.Inspection, int, error) {
	conditions := []string{"project_id = $1"}
	args := []interface{}{filter.ProjectID}
	argPos := 2

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("model_name ILIKE $%d", argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}
	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM model_inspection WHERE %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inspections: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM model_inspection
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, inspectionColumns, whereClause, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list inspections: %w", err)
	}
	defer rows.Close()

	inspections := []*domain.Inspection{}
	for rows.Next() {
		in, err := scanInspection(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan inspection row: %w", err)
		}
		inspections = append(inspections, in)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate inspection rows: %w", err)
	}

	return inspections, total, nil
}

func (r *inspectionRepo) Delete(ctx context.Context, projectID uuid.UUID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM model_inspection WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return fmt.Errorf("delete inspection: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrInspectionNotFound
	}
	return nil
}

func scanInspection(row pgx.Row) (*domain.Inspection, error) {
	in := &domain.Inspection{}
	var summaryJSON, inputsJSON, outputsJSON, signaturesJSON []byte

	err := row.Scan(
		&in.ID, &in.CreatedAt, &in.ProjectID, &in.ModelName, &in.Source,
		&in.SHA256, &in.SizeBytes, &summaryJSON, &inputsJSON, &outputsJSON,
		&signaturesJSON, &in.ArenaBytes,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(summaryJSON, &in.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := json.Unmarshal(inputsJSON, &in.Inputs); err != nil {
		return nil, fmt.Errorf("unmarshal inputs: %w", err)
	}
	if err := json.Unmarshal(outputsJSON, &in.Outputs); err != nil {
		return nil, fmt.Errorf("unmarshal outputs: %w", err)
	}
	if err := json.Unmarshal(signaturesJSON, &in.Signatures); err != nil {
		return nil, fmt.Errorf("unmarshal signatures: %w", err)
	}
	return in, nil
}
