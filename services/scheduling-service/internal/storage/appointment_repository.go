package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/outbox"
)

const appointmentColumns = `id::text, client_id, business_id, COALESCE(professional_id, ''), service_id,
	start_time, end_time, status, notes, cancel_reason, rated, created_at, updated_at`

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
	loc    *time.Location
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository, loc *time.Location) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo, loc: loc}
}

func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	if !validID(id) {
		return model.Appointment{}, model.ErrNotFound
	}
	a, err := r.scan(r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1::uuid`, id))
	if IsNotFound(err) || IsInvalidText(err) {
		return model.Appointment{}, model.ErrNotFound
	}
	return a, err
}

func (r *AppointmentRepository) ListBusy(ctx context.Context, professionalID string, from, to time.Time) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE professional_id = $1
			AND status <> 'CANCELED'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, professionalID, from, to)
}

func (r *AppointmentRepository) ListAppointments(ctx context.Context, professionalID string, from, to time.Time) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE professional_id = $1
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, professionalID, from, to)
}

// CreateAppointment serializes writers of one professional with a transaction-scoped
// advisory lock, re-checks overlap, then inserts the row and its outbox event together.
// The exclusion constraint backs up the check.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, a model.Appointment, evt model.StatusChange) (model.Appointment, error) {
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := lockProfessional(ctx, tx, a.ProfessionalID); err != nil {
			return err
		}
		taken, err := overlaps(ctx, tx, a, "")
		if err != nil {
			return err
		}
		if taken {
			return model.ErrConcurrentConflict
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO appointments
				(id, client_id, business_id, professional_id, service_id, start_time, end_time, status, notes, rated, created_at, updated_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12)
		`, a.ID, a.ClientID, a.BusinessID, a.ProfessionalID, a.ServiceID, a.StartTime, a.EndTime, a.Status,
			a.Notes, a.Rated, a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return err
		}
		return r.writeEvent(ctx, tx, evt)
	})
	if IsConflict(err) {
		return model.Appointment{}, model.ErrConcurrentConflict
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

// UpdateAppointment locks the row with FOR UPDATE before applying mutate. A moved range
// also takes the professional lock and is re-checked against other bookings.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, id string, mutate func(*model.Appointment) (model.StatusChange, error)) (model.Appointment, error) {
	if !validID(id) {
		return model.Appointment{}, model.ErrNotFound
	}
	var out model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		cur, err := r.scan(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1::uuid FOR UPDATE`, id))
		if IsNotFound(err) || IsInvalidText(err) {
			return model.ErrNotFound
		}
		if err != nil {
			return err
		}
		next := cur
		evt, err := mutate(&next)
		if err != nil {
			return err
		}

		moved := !next.StartTime.Equal(cur.StartTime) || !next.EndTime.Equal(cur.EndTime)
		if moved && next.Status.Occupies() {
			if err := lockProfessional(ctx, tx, next.ProfessionalID); err != nil {
				return err
			}
			taken, err := overlaps(ctx, tx, next, next.ID)
			if err != nil {
				return err
			}
			if taken {
				return model.ErrConcurrentConflict
			}
		}

		_, err = tx.Exec(ctx, `
			UPDATE appointments
			SET start_time = $2,
				end_time = $3,
				status = $4,
				cancel_reason = $5,
				rated = $6,
				updated_at = $7
			WHERE id = $1::uuid
		`, id, next.StartTime, next.EndTime, next.Status, next.CancelReason, next.Rated, next.UpdatedAt)
		if err != nil {
			return err
		}
		out = next
		return r.writeEvent(ctx, tx, evt)
	})
	if IsConflict(err) {
		return model.Appointment{}, model.ErrConcurrentConflict
	}
	if err != nil {
		return model.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepository) writeEvent(ctx context.Context, tx pgx.Tx, change model.StatusChange) error {
	if r.outbox == nil {
		return nil
	}
	evt, err := outbox.FromStatusChange(change)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return r.outbox.Insert(ctx, tx, evt)
}

func lockProfessional(ctx context.Context, tx pgx.Tx, professionalID string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('appointment:' || $1))`, professionalID)
	return err
}

func overlaps(ctx context.Context, tx pgx.Tx, a model.Appointment, ignoreID string) (bool, error) {
	var taken bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE professional_id = $1
				AND status <> 'CANCELED'
				AND start_time < $3
				AND end_time > $2
				AND id IS DISTINCT FROM NULLIF($4, '')::uuid
		)
	`, a.ProfessionalID, a.StartTime, a.EndTime, ignoreID).Scan(&taken)
	return taken, err
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AppointmentRepository) scan(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.ClientID, &a.BusinessID, &a.ProfessionalID, &a.ServiceID,
		&a.StartTime, &a.EndTime, &a.Status, &a.Notes, &a.CancelReason, &a.Rated, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	if r.loc != nil {
		a.StartTime, a.EndTime = a.StartTime.In(r.loc), a.EndTime.In(r.loc)
	}
	return a, nil
}
