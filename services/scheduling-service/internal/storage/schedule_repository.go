package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) UpsertWeeklyHours(ctx context.Context, wh model.WeeklyHours) (model.WeeklyHours, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO weekly_hours (scope_kind, scope_id, weekday, open_minute, close_minute, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (scope_kind, scope_id, weekday) DO UPDATE
		SET open_minute = EXCLUDED.open_minute,
			close_minute = EXCLUDED.close_minute,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING id::text, updated_at
	`, wh.Scope.Kind, wh.Scope.ID, int(wh.Weekday), int(wh.Open), int(wh.Close), wh.Active).Scan(&wh.ID, &wh.UpdatedAt)
	if err != nil {
		return model.WeeklyHours{}, err
	}
	return wh, nil
}

func (r *ScheduleRepository) GetWeeklyHours(ctx context.Context, scope model.Scope, weekday time.Weekday) (model.WeeklyHours, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, scope_kind, scope_id, weekday, open_minute, close_minute, active, updated_at
		FROM weekly_hours
		WHERE scope_kind = $1 AND scope_id = $2 AND weekday = $3 AND active
	`, scope.Kind, scope.ID, int(weekday))
	wh, err := scanWeekly(row)
	if IsNotFound(err) {
		return model.WeeklyHours{}, model.ErrNotFound
	}
	return wh, err
}

func (r *ScheduleRepository) ListWeeklyHours(ctx context.Context, scope model.Scope) ([]model.WeeklyHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, scope_kind, scope_id, weekday, open_minute, close_minute, active, updated_at
		FROM weekly_hours
		WHERE scope_kind = $1 AND scope_id = $2 AND active
		ORDER BY weekday
	`, scope.Kind, scope.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WeeklyHours
	for rows.Next() {
		wh, err := scanWeekly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

func (r *ScheduleRepository) DeactivateWeeklyHours(ctx context.Context, scope model.Scope, weekday time.Weekday) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE weekly_hours
		SET active = false, updated_at = now()
		WHERE scope_kind = $1 AND scope_id = $2 AND weekday = $3 AND active
	`, scope.Kind, scope.ID, int(weekday))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanWeekly(row pgx.Row) (model.WeeklyHours, error) {
	var wh model.WeeklyHours
	var weekday, open, close int
	err := row.Scan(&wh.ID, &wh.Scope.Kind, &wh.Scope.ID, &weekday, &open, &close, &wh.Active, &wh.UpdatedAt)
	if err != nil {
		return model.WeeklyHours{}, err
	}
	wh.Weekday = time.Weekday(weekday)
	wh.Open, wh.Close = model.Clock(open), model.Clock(close)
	return wh, nil
}

// UpsertException relies on the (scope_kind, scope_id, date) unique key so concurrent
// writers for the same date never produce two rows.
func (r *ScheduleRepository) UpsertException(ctx context.Context, exc model.DateException) (model.DateException, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO date_exceptions (scope_kind, scope_id, date, kind, open_minute, close_minute, description, active)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
		ON CONFLICT (scope_kind, scope_id, date) DO UPDATE
		SET kind = EXCLUDED.kind,
			open_minute = EXCLUDED.open_minute,
			close_minute = EXCLUDED.close_minute,
			description = EXCLUDED.description,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING id::text, updated_at
	`, exc.Scope.Kind, exc.Scope.ID, dateParam(exc.Date), exc.Kind, clockParam(exc.Open), clockParam(exc.Close),
		exc.Description, exc.Active).Scan(&exc.ID, &exc.UpdatedAt)
	if err != nil {
		return model.DateException{}, err
	}
	return exc, nil
}

func (r *ScheduleRepository) GetException(ctx context.Context, scope model.Scope, date time.Time) (model.DateException, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, scope_kind, scope_id, date, kind, open_minute, close_minute, description, active, updated_at
		FROM date_exceptions
		WHERE scope_kind = $1 AND scope_id = $2 AND date = $3::date AND active
	`, scope.Kind, scope.ID, dateParam(date))
	exc, err := r.scanException(row)
	if IsNotFound(err) {
		return model.DateException{}, model.ErrNotFound
	}
	return exc, err
}

func (r *ScheduleRepository) ListExceptions(ctx context.Context, scope model.Scope, from, to time.Time) ([]model.DateException, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, scope_kind, scope_id, date, kind, open_minute, close_minute, description, active, updated_at
		FROM date_exceptions
		WHERE scope_kind = $1 AND scope_id = $2 AND date BETWEEN $3::date AND $4::date AND active
		ORDER BY date ASC
	`, scope.Kind, scope.ID, dateParam(from), dateParam(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DateException
	for rows.Next() {
		exc, err := r.scanException(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exc)
	}
	return out, rows.Err()
}

func (r *ScheduleRepository) DeactivateException(ctx context.Context, scope model.Scope, date time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE date_exceptions
		SET active = false, updated_at = now()
		WHERE scope_kind = $1 AND scope_id = $2 AND date = $3::date AND active
	`, scope.Kind, scope.ID, dateParam(date))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ScheduleRepository) scanException(row pgx.Row) (model.DateException, error) {
	var exc model.DateException
	var date time.Time
	var open, close *int
	err := row.Scan(&exc.ID, &exc.Scope.Kind, &exc.Scope.ID, &date, &exc.Kind, &open, &close, &exc.Description, &exc.Active, &exc.UpdatedAt)
	if err != nil {
		return model.DateException{}, err
	}
	exc.Date = model.CivilDate(date)
	exc.Open, exc.Close = clockValue(open), clockValue(close)
	return exc, nil
}

func clockParam(c *model.Clock) *int {
	if c == nil {
		return nil
	}
	v := int(*c)
	return &v
}

func clockValue(v *int) *model.Clock {
	if v == nil {
		return nil
	}
	c := model.Clock(*v)
	return &c
}

func (r *ScheduleRepository) InsertBlock(ctx context.Context, b model.BlockedSlot) (model.BlockedSlot, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO blocked_slots (professional_id, date, start_minute, end_minute, reason, created_by)
		VALUES ($1, $2::date, $3, $4, $5, $6)
		RETURNING id::text, created_at
	`, b.ProfessionalID, dateParam(b.Date), int(b.Start), int(b.End), b.Reason, b.CreatedBy).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return model.BlockedSlot{}, err
	}
	return b, nil
}

func (r *ScheduleRepository) ListBlocks(ctx context.Context, professionalID string, from, to time.Time) ([]model.BlockedSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, professional_id, date, start_minute, end_minute, reason, created_by, created_at
		FROM blocked_slots
		WHERE professional_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date ASC, start_minute ASC, id ASC
	`, professionalID, dateParam(from), dateParam(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BlockedSlot
	for rows.Next() {
		var b model.BlockedSlot
		var date time.Time
		var start, end int
		if err := rows.Scan(&b.ID, &b.ProfessionalID, &date, &start, &end, &b.Reason, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Date = model.CivilDate(date)
		b.Start, b.End = model.Clock(start), model.Clock(end)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *ScheduleRepository) DeleteBlock(ctx context.Context, id string) error {
	if !validID(id) {
		return model.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM blocked_slots WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ScheduleRepository) DeleteBlocksForDate(ctx context.Context, professionalID string, date time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blocked_slots
		WHERE professional_id = $1 AND date = $2::date
	`, professionalID, dateParam(date))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
