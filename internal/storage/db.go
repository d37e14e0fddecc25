// Package storage is the postgres persistence layer for step templates,
// candidates, calendar events and uploaded documents.
//
// Writes are plain last-write-wins UPDATEs; there is no optimistic locking.
// Callers must refetch and re-resolve workflow state after every mutation
// before trusting it again.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"onboarding-tracker/internal/workflow"
)

//go:embed migrations.sql
var migrations string

type DB struct {
	connection *sql.DB
}

func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Connection pool tuning
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &DB{connection: db}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.connection.ExecContext(ctx, migrations)
	return errors.Wrap(err, "apply migrations")
}

func (db *DB) Close() error {
	return db.connection.Close()
}

// GetConnection returns the underlying database connection for advanced queries
func (db *DB) GetConnection() *sql.DB {
	return db.connection
}

// ---- step templates ----

const templateColumns = `department, step_number, step_type, title, description, icon, is_auto, due_date_offset, scheduled_time`

// ListStepTemplates returns the department's templates in step-number order.
// This order is the only dependency order the workflow knows.
func (db *DB) ListStepTemplates(ctx context.Context, department string) ([]workflow.StepTemplate, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM step_templates WHERE department = $1 ORDER BY step_number`,
		department)
	if err != nil {
		return nil, errors.Wrap(err, "query step templates")
	}
	defer rows.Close()

	var out []workflow.StepTemplate
	for rows.Next() {
		var t workflow.StepTemplate
		if err := rows.Scan(&t.Department, &t.StepNumber, &t.Type, &t.Title, &t.Description,
			&t.Icon, &t.IsAuto, &t.DueDateOffset, &t.ScheduledTime); err != nil {
			return nil, errors.Wrap(err, "scan step template")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListDepartments returns every department that has step templates.
func (db *DB) ListDepartments(ctx context.Context) ([]string, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT DISTINCT department FROM step_templates ORDER BY department`)
	if err != nil {
		return nil, errors.Wrap(err, "query departments")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpsertStepTemplate inserts or replaces one template row, keyed by
// (department, step_number). The step type must be one of the known types.
func (db *DB) UpsertStepTemplate(ctx context.Context, t *workflow.StepTemplate) error {
	if !workflow.IsValidStepType(t.Type) {
		return errors.Errorf("unknown step type %q", t.Type)
	}
	_, err := db.connection.ExecContext(ctx, `
		INSERT INTO step_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (department, step_number) DO UPDATE
		  SET step_type = EXCLUDED.step_type,
		      title = EXCLUDED.title,
		      description = EXCLUDED.description,
		      icon = EXCLUDED.icon,
		      is_auto = EXCLUDED.is_auto,
		      due_date_offset = EXCLUDED.due_date_offset,
		      scheduled_time = EXCLUDED.scheduled_time`,
		t.Department, t.StepNumber, t.Type, t.Title, t.Description,
		t.Icon, t.IsAuto, t.DueDateOffset, t.ScheduledTime)
	return errors.Wrap(err, "upsert step template")
}

// ---- candidates ----

const candidateColumns = `id, first_name, last_name, email, position, department,
	expected_joining_date, offer_sent_at, offer_signed_at, welcome_email_sent_at,
	onboarding_form_sent_at, onboarding_form_completed_at, whatsapp_groups_added,
	training_plan_sent, offer_letter_path`

func scanCandidate(row interface{ Scan(...any) error }) (*workflow.CandidateProfile, error) {
	c := &workflow.CandidateProfile{}
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Position, &c.Department,
		&c.ExpectedJoiningDate, &c.OfferSentAt, &c.OfferSignedAt, &c.WelcomeEmailSentAt,
		&c.OnboardingFormSentAt, &c.OnboardingFormCompletedAt, &c.WhatsappGroupsAdded,
		&c.TrainingPlanSent, &c.OfferLetterPath)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (db *DB) GetCandidate(ctx context.Context, id int64) (*workflow.CandidateProfile, error) {
	row := db.connection.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get candidate")
	}
	return c, nil
}

func (db *DB) ListCandidatesByDepartment(ctx context.Context, department string) ([]*workflow.CandidateProfile, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE department = $1 ORDER BY id`, department)
	if err != nil {
		return nil, errors.Wrap(err, "query candidates")
	}
	defer rows.Close()

	var out []*workflow.CandidateProfile
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan candidate")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) InsertCandidate(ctx context.Context, c *workflow.CandidateProfile) error {
	return db.connection.QueryRowContext(ctx, `
		INSERT INTO candidates (first_name, last_name, email, position, department, expected_joining_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		c.FirstName, c.LastName, c.Email, c.Position, c.Department, c.ExpectedJoiningDate,
	).Scan(&c.ID)
}

// completionColumns maps a step type to the candidate column its completion
// writes. Timestamp columns are set once (COALESCE keeps the first value),
// which is what makes complete-step idempotent at the store. Types absent
// from both maps complete through their calendar event only.
var completionColumns = map[workflow.StepType]string{
	workflow.StepOfferLetter:    "offer_sent_at",
	workflow.StepOfferReminder:  "offer_signed_at",
	workflow.StepWelcomeEmail:   "welcome_email_sent_at",
	workflow.StepOnboardingForm: "onboarding_form_completed_at",
}

var completionBoolColumns = map[workflow.StepType]string{
	workflow.StepWhatsappAddition: "whatsapp_groups_added",
	workflow.StepTrainingPlan:     "training_plan_sent",
}

// MarkStepCompleted sets the completion flag for the step type, if any.
// Re-invoking never changes an already-set flag.
func (db *DB) MarkStepCompleted(ctx context.Context, id int64, t workflow.StepType, at time.Time) error {
	if col, ok := completionColumns[t]; ok {
		_, err := db.connection.ExecContext(ctx,
			`UPDATE candidates SET `+col+` = COALESCE(`+col+`, $1) WHERE id = $2`, at, id)
		return errors.Wrapf(err, "mark %s completed", t)
	}
	if col, ok := completionBoolColumns[t]; ok {
		_, err := db.connection.ExecContext(ctx,
			`UPDATE candidates SET `+col+` = TRUE WHERE id = $1`, id)
		return errors.Wrapf(err, "mark %s completed", t)
	}
	return nil
}

// MarkFormSent records the onboarding form going out (the intermediate
// "pending" signal, distinct from the form being completed).
func (db *DB) MarkFormSent(ctx context.Context, id int64, at time.Time) error {
	_, err := db.connection.ExecContext(ctx,
		`UPDATE candidates SET onboarding_form_sent_at = COALESCE(onboarding_form_sent_at, $1) WHERE id = $2`, at, id)
	return errors.Wrap(err, "mark form sent")
}

// SetOfferLetterPath records the uploaded offer document reference.
func (db *DB) SetOfferLetterPath(ctx context.Context, id int64, path string) error {
	_, err := db.connection.ExecContext(ctx,
		`UPDATE candidates SET offer_letter_path = $1 WHERE id = $2`, path, id)
	return errors.Wrap(err, "set offer letter path")
}

// ---- calendar events ----

const eventColumns = `id, candidate_id, event_type, step_number, title, description,
	start_time, end_time, status, attendees, attachments, cancel_reason, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*workflow.CalendarEvent, error) {
	ev := &workflow.CalendarEvent{}
	var stepNumber sql.NullInt64
	err := row.Scan(&ev.ID, &ev.CandidateID, &ev.Type, &stepNumber, &ev.Title, &ev.Description,
		&ev.StartTime, &ev.EndTime, &ev.Status, pq.Array(&ev.Attendees), pq.Array(&ev.Attachments),
		&ev.CancelReason, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if stepNumber.Valid {
		n := int(stepNumber.Int64)
		ev.StepNumber = &n
	}
	ev.StartTime = ev.StartTime.UTC()
	ev.EndTime = ev.EndTime.UTC()
	return ev, nil
}

func (db *DB) ListEvents(ctx context.Context, candidateID int64) ([]workflow.CalendarEvent, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE candidate_id = $1 ORDER BY start_time`, candidateID)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	var out []workflow.CalendarEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

func (db *DB) GetEvent(ctx context.Context, id string) (*workflow.CalendarEvent, error) {
	row := db.connection.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE id = $1`, id)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get event")
	}
	return ev, nil
}

func (db *DB) InsertEvent(ctx context.Context, ev *workflow.CalendarEvent) error {
	var stepNumber any
	if ev.StepNumber != nil {
		stepNumber = *ev.StepNumber
	}
	_, err := db.connection.ExecContext(ctx, `
		INSERT INTO calendar_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		ev.ID, ev.CandidateID, ev.Type, stepNumber, ev.Title, ev.Description,
		ev.StartTime, ev.EndTime, ev.Status, pq.Array(ev.Attendees), pq.Array(ev.Attachments),
		ev.CancelReason, ev.CreatedAt, ev.UpdatedAt)
	return errors.Wrap(err, "insert event")
}

func (db *DB) UpdateEvent(ctx context.Context, ev *workflow.CalendarEvent) error {
	res, err := db.connection.ExecContext(ctx, `
		UPDATE calendar_events
		   SET title = $2, description = $3, start_time = $4, end_time = $5, status = $6,
		       attendees = $7, attachments = $8, cancel_reason = $9, updated_at = $10
		 WHERE id = $1`,
		ev.ID, ev.Title, ev.Description, ev.StartTime, ev.EndTime, ev.Status,
		pq.Array(ev.Attendees), pq.Array(ev.Attachments), ev.CancelReason, ev.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "update event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Errorf("event %s not found", ev.ID)
	}
	return nil
}

// ---- documents ----

func (db *DB) SaveDocument(ctx context.Context, d *Document) error {
	return db.connection.QueryRowContext(ctx, `
		INSERT INTO documents (candidate_id, doc_type, filename, file_path, file_size, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, uploaded_at`,
		d.CandidateID, d.DocType, d.Filename, d.FilePath, d.FileSize,
	).Scan(&d.ID, &d.UploadedAt)
}
