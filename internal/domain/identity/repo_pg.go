package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ehr/healthreport/internal/platform/db"
)

// -- External Patient Store --

type externalPatientStorePG struct{ q db.Queryable }

func NewExternalPatientStorePG(q db.Queryable) ExternalPatientStore {
	return &externalPatientStorePG{q: q}
}

func (s *externalPatientStorePG) MatchByCompositeKey(ctx context.Context, phone string, birthDate time.Time, name string) ([]*ExternalPatientRecord, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, external_id, phone, to_char(birth_date, 'YYYY-MM-DD'), name, facility_id, visited_at, created_at
		FROM external_patient
		WHERE phone = $1 AND birth_date = $2 AND name = $3
		ORDER BY COALESCE(visited_at, created_at) DESC, created_at DESC`,
		phone, birthDate.Format(BirthDateLayout), name)
	if err != nil {
		return nil, fmt.Errorf("match external patients: %w", err)
	}
	defer rows.Close()

	var out []*ExternalPatientRecord
	for rows.Next() {
		var r ExternalPatientRecord
		if err := rows.Scan(&r.ID, &r.ExternalID, &r.Phone, &r.BirthDate, &r.Name,
			&r.FacilityID, &r.VisitedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan external patient: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// -- Pending Registration Repository --

type pendingRepoPG struct{ q db.Queryable }

func NewPendingRegistrationRepoPG(q db.Queryable) PendingRegistrationRepository {
	return &pendingRepoPG{q: q}
}

const pendingCols = `id, partner_id, facility_id, first_seen_at, last_seen_at, request_count, status`

func scanPending(row pgx.Row) (*PendingRegistration, error) {
	var p PendingRegistration
	var status string
	if err := row.Scan(&p.ID, &p.PartnerID, &p.FacilityID, &p.FirstSeenAt, &p.LastSeenAt,
		&p.RequestCount, &status); err != nil {
		return nil, err
	}
	p.Status = PendingStatus(status)
	return &p, nil
}

// Upsert relies on the unique (partner_id, facility_id) constraint: two
// concurrent first sightings serialize on the conflict and the loser
// increments the winner's row.
func (r *pendingRepoPG) Upsert(ctx context.Context, partnerID, facilityID string, seenAt time.Time) (*PendingRegistration, error) {
	p, err := scanPending(r.q.QueryRow(ctx, `
		INSERT INTO pending_registration (id, partner_id, facility_id, first_seen_at, last_seen_at, request_count, status)
		VALUES ($1, $2, $3, $4, $4, 1, 'pending')
		ON CONFLICT ON CONSTRAINT uq_pending_registration_pair DO UPDATE SET
			request_count = pending_registration.request_count + 1,
			last_seen_at  = GREATEST(pending_registration.last_seen_at, EXCLUDED.last_seen_at)
		RETURNING `+pendingCols,
		uuid.New(), partnerID, facilityID, seenAt))
	if err != nil {
		return nil, fmt.Errorf("upsert pending registration: %w", err)
	}
	return p, nil
}

func (r *pendingRepoPG) List(ctx context.Context, status PendingStatus, limit, offset int) ([]*PendingRegistration, int, error) {
	where, args := "", []interface{}{}
	if status != "" {
		where = ` WHERE status = $1`
		args = append(args, string(status))
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM pending_registration`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pending registrations: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.q.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM pending_registration%s ORDER BY last_seen_at DESC LIMIT $%d OFFSET $%d`,
		pendingCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list pending registrations: %w", err)
	}
	defer rows.Close()

	var out []*PendingRegistration
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
