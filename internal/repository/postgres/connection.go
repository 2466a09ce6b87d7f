package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
)

const connectionSelect = `
	SELECT c.id, c.doctor_id, c.patient_id, c.status, c.connection_code,
		   c.blockchain_tx_hash, c.created_at, c.updated_at,
		   d.user_id AS doctor_user_id, p.user_id AS patient_user_id,
		   du.name AS doctor_name, pu.name AS patient_name
	FROM patient_doctors c
	JOIN doctors d ON d.id = c.doctor_id
	JOIN patients p ON p.id = c.patient_id
	JOIN users du ON du.id = d.user_id
	JOIN users pu ON pu.id = p.user_id
`

type connectionRepository struct {
	*BaseRepository
}

func NewConnectionRepository(base *BaseRepository) repository.ConnectionRepository {
	return &connectionRepository{BaseRepository: base}
}

func (r *connectionRepository) Create(ctx context.Context, conn *model.Connection) error {
	query := `
		INSERT INTO patient_doctors (
			id, doctor_id, patient_id, status, connection_code, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	conn.ID = uuid.New()
	conn.CreatedAt = time.Now().UTC()
	conn.UpdatedAt = conn.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		conn.ID,
		conn.DoctorID,
		conn.PatientID,
		conn.Status,
		conn.ConnectionCode,
		conn.CreatedAt,
		conn.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create connection")
	}
	return nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Connection, error) {
	var conn model.Connection
	if err := r.db.GetContext(ctx, &conn, connectionSelect+` WHERE c.id = $1`, id); err != nil {
		return nil, mapError(err, "get connection")
	}
	return &conn, nil
}

func (r *connectionRepository) GetByPair(ctx context.Context, doctorID, patientID uuid.UUID) (*model.Connection, error) {
	var conn model.Connection
	query := connectionSelect + ` WHERE c.doctor_id = $1 AND c.patient_id = $2`
	if err := r.db.GetContext(ctx, &conn, query, doctorID, patientID); err != nil {
		return nil, mapError(err, "get connection by pair")
	}
	return &conn, nil
}

func (r *connectionRepository) GetActive(ctx context.Context, doctorID, patientID uuid.UUID) (*model.Connection, error) {
	var conn model.Connection
	query := connectionSelect + ` WHERE c.doctor_id = $1 AND c.patient_id = $2 AND c.status = $3`
	if err := r.db.GetContext(ctx, &conn, query, doctorID, patientID, model.ConnectionActive); err != nil {
		return nil, mapError(err, "get active connection")
	}
	return &conn, nil
}

func (r *connectionRepository) UpdateStatus(ctx context.Context, conn *model.Connection, from model.ConnectionStatus) error {
	query := `
		UPDATE patient_doctors
		SET status = $1, connection_code = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	updatedAt := time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		conn.Status,
		conn.ConnectionCode,
		updatedAt,
		conn.ID,
		from,
	)
	if err != nil {
		return mapError(err, "update connection status")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrStaleState
	}
	conn.UpdatedAt = updatedAt
	return nil
}

func (r *connectionRepository) SetTxHash(ctx context.Context, id uuid.UUID, txHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE patient_doctors SET blockchain_tx_hash = $1, updated_at = $2 WHERE id = $3`,
		txHash, time.Now().UTC(), id,
	)
	if err != nil {
		return mapError(err, "set connection tx hash")
	}
	return expectRows(result, "set connection tx hash")
}

func (r *connectionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Connection, error) {
	conns := []*model.Connection{}
	query := connectionSelect + ` WHERE c.patient_id = $1 ORDER BY c.updated_at DESC`
	if err := r.db.SelectContext(ctx, &conns, query, patientID); err != nil {
		return nil, mapError(err, "list patient connections")
	}
	return conns, nil
}

func (r *connectionRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status *model.ConnectionStatus) ([]*model.Connection, error) {
	conns := []*model.Connection{}
	query := connectionSelect + ` WHERE c.doctor_id = $1`
	args := []interface{}{doctorID}
	if status != nil {
		query += ` AND c.status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY c.updated_at DESC`

	if err := r.db.SelectContext(ctx, &conns, query, args...); err != nil {
		return nil, mapError(err, "list doctor connections")
	}
	return conns, nil
}
