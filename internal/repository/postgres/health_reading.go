package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

const readingColumns = `id, patient_id, type, value, unit, timestamp, created_at`

const insertReading = `
	INSERT INTO health_readings (` + readingColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type healthReadingRepository struct {
	*BaseRepository
}

func NewHealthReadingRepository(base *BaseRepository) repository.HealthReadingRepository {
	return &healthReadingRepository{BaseRepository: base}
}

func prepareReading(reading *model.HealthReading, now time.Time) {
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = now
	}
	reading.CreatedAt = now
}

func (r *healthReadingRepository) Create(ctx context.Context, reading *model.HealthReading) error {
	prepareReading(reading, time.Now().UTC())

	_, err := r.db.ExecContext(ctx, insertReading,
		reading.ID,
		reading.PatientID,
		reading.Type,
		reading.Value,
		reading.Unit,
		reading.Timestamp,
		reading.CreatedAt,
	)
	if err != nil {
		return mapError(err, "create health reading")
	}
	return nil
}

func (r *healthReadingRepository) CreateBatch(ctx context.Context, readings []*model.HealthReading) error {
	now := time.Now().UTC()
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i, reading := range readings {
			prepareReading(reading, now)
			if _, err := tx.ExecContext(ctx, insertReading,
				reading.ID,
				reading.PatientID,
				reading.Type,
				reading.Value,
				reading.Unit,
				reading.Timestamp,
				reading.CreatedAt,
			); err != nil {
				return mapError(err, fmt.Sprintf("insert reading %d", i))
			}
		}
		return nil
	})
}

func (r *healthReadingRepository) List(ctx context.Context, patientUserID uuid.UUID, filter model.ReadingFilter) ([]*model.HealthReading, int, error) {
	where := ` WHERE patient_id = $1`
	args := []interface{}{patientUserID}
	if filter.Type != "" {
		where += ` AND type = $2`
		args = append(args, filter.Type)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM health_readings`+where, args...); err != nil {
		return nil, 0, mapError(err, "count health readings")
	}

	query := fmt.Sprintf(`SELECT %s FROM health_readings%s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`,
		readingColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	readings := []*model.HealthReading{}
	if err := r.db.SelectContext(ctx, &readings, query, args...); err != nil {
		return nil, 0, mapError(err, "list health readings")
	}
	return readings, total, nil
}

// LatestByType returns at most one reading per type, the newest of each.
func (r *healthReadingRepository) LatestByType(ctx context.Context, patientUserID uuid.UUID) ([]*model.HealthReading, error) {
	query := `
		SELECT DISTINCT ON (type) ` + readingColumns + `
		FROM health_readings
		WHERE patient_id = $1
		ORDER BY type, timestamp DESC
	`
	readings := []*model.HealthReading{}
	if err := r.db.SelectContext(ctx, &readings, query, patientUserID); err != nil {
		return nil, mapError(err, "get latest readings")
	}
	return readings, nil
}

func (r *healthReadingRepository) Latest(ctx context.Context, limit int) ([]*model.HealthReading, error) {
	query := `SELECT ` + readingColumns + ` FROM health_readings ORDER BY timestamp DESC LIMIT $1`
	readings := []*model.HealthReading{}
	if err := r.db.SelectContext(ctx, &readings, query, limit); err != nil {
		return nil, mapError(err, "list latest readings")
	}
	return readings, nil
}
