package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/biniyam0960/Student-information-System/internal/academics"
	"github.com/biniyam0960/Student-information-System/internal/models"
)

const enrollmentColumns = `id, student_id, section_id, status, enrolled_at`

// EnrollmentRepository handles persistence of enrollments. Admission and drop run as
// transactions holding a row lock on the section, so capacity checks and writes are atomic.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func lockSection(ctx context.Context, tx *sqlx.Tx, sectionID int64) (*models.Section, error) {
	var section models.Section
	const query = `SELECT ` + sectionColumns + ` FROM sections WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &section, query, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("lock section: %w", err)
	}
	return &section, nil
}

func countEnrolled(ctx context.Context, tx *sqlx.Tx, sectionID int64) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM enrollments WHERE section_id = $1 AND status = $2`
	if err := tx.GetContext(ctx, &count, query, sectionID, models.EnrollmentStatusEnrolled); err != nil {
		return 0, fmt.Errorf("count enrolled: %w", err)
	}
	return count, nil
}

// Admit creates an enrollment whose status is chosen by decide.
func (r *EnrollmentRepository) Admit(ctx context.Context, studentID, sectionID int64, decide academics.AdmissionFunc) (enrollment *models.Enrollment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin admission: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	section, err := lockSection(ctx, tx, sectionID)
	if err != nil {
		return nil, err
	}

	var current *models.Enrollment
	if section != nil {
		var live models.Enrollment
		const liveQuery = `SELECT ` + enrollmentColumns + ` FROM enrollments
        WHERE student_id = $1 AND section_id = $2 AND status <> $3
        ORDER BY enrolled_at DESC, id DESC LIMIT 1`
		switch qerr := tx.GetContext(ctx, &live, liveQuery, studentID, sectionID, models.EnrollmentStatusDropped); {
		case qerr == nil:
			current = &live
		case qerr != sql.ErrNoRows:
			return nil, fmt.Errorf("find live enrollment: %w", qerr)
		}
	}

	count := 0
	if section != nil && current == nil {
		if count, err = countEnrolled(ctx, tx, sectionID); err != nil {
			return nil, err
		}
	}

	status, err := decide(section, current, count)
	if err != nil {
		return nil, err
	}

	created := models.Enrollment{StudentID: studentID, SectionID: sectionID, Status: status}
	const insert = `INSERT INTO enrollments (student_id, section_id, status) VALUES ($1, $2, $3) RETURNING id, enrolled_at`
	if err = tx.QueryRowxContext(ctx, insert, studentID, sectionID, status).Scan(&created.ID, &created.EnrolledAt); err != nil {
		return nil, fmt.Errorf("insert enrollment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit admission: %w", err)
	}
	return &created, nil
}

// Drop marks the student's enrollment dropped and, when promote is set and a seat was released,
// moves the earliest waitlisted student into it. Dropping an already dropped row is a no-op.
func (r *EnrollmentRepository) Drop(ctx context.Context, studentID, sectionID int64, promote bool) (result *models.DropResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin drop: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	section, err := lockSection(ctx, tx, sectionID)
	if err != nil {
		return nil, err
	}

	var target *models.Enrollment
	if section != nil {
		var row models.Enrollment
		const pick = `SELECT ` + enrollmentColumns + ` FROM enrollments
        WHERE student_id = $1 AND section_id = $2
        ORDER BY (status = 'dropped'), enrolled_at DESC, id DESC LIMIT 1 FOR UPDATE`
		switch qerr := tx.GetContext(ctx, &row, pick, studentID, sectionID); {
		case qerr == nil:
			target = &row
		case qerr != sql.ErrNoRows:
			return nil, fmt.Errorf("find enrollment: %w", qerr)
		}
	}

	changed, err := academics.CheckDrop(target)
	if err != nil {
		return nil, err
	}
	result = &models.DropResult{Enrollment: *target, Changed: changed}
	if !changed {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit drop: %w", err)
		}
		return result, nil
	}

	previous := target.Status
	const markDropped = `UPDATE enrollments SET status = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, markDropped, target.ID, models.EnrollmentStatusDropped); err != nil {
		return nil, fmt.Errorf("mark dropped: %w", err)
	}
	result.Enrollment.Status = models.EnrollmentStatusDropped

	if promote && previous == models.EnrollmentStatusEnrolled {
		if result.Promoted, err = r.promoteNext(ctx, tx, section); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit drop: %w", err)
	}
	return result, nil
}

func (r *EnrollmentRepository) promoteNext(ctx context.Context, tx *sqlx.Tx, section *models.Section) (*models.Enrollment, error) {
	count, err := countEnrolled(ctx, tx, section.ID)
	if err != nil {
		return nil, err
	}
	if !academics.SeatAvailable(section, count) {
		return nil, nil
	}

	var next models.Enrollment
	const head = `SELECT ` + enrollmentColumns + ` FROM enrollments
        WHERE section_id = $1 AND status = $2
        ORDER BY enrolled_at, id LIMIT 1 FOR UPDATE`
	if err := tx.GetContext(ctx, &next, head, section.ID, models.EnrollmentStatusWaitlisted); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find waitlist head: %w", err)
	}
	const promote = `UPDATE enrollments SET status = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, promote, next.ID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("promote enrollment: %w", err)
	}
	next.Status = models.EnrollmentStatusEnrolled
	return &next, nil
}

// ListByStudent returns every enrollment of a student, dropped included, with course identifiers.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.StudentEnrollment, error) {
	const query = `SELECT e.id, e.student_id, e.section_id, e.status, e.enrolled_at,
        s.course_id, c.title AS course_title
        FROM enrollments e
        JOIN sections s ON s.id = e.section_id
        JOIN courses c ON c.id = s.course_id
        WHERE e.student_id = $1
        ORDER BY e.enrolled_at DESC, e.id DESC`
	rows := make([]models.StudentEnrollment, 0)
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return rows, nil
}

// ListBySection returns every enrollment in a section with student identity, in admission order.
func (r *EnrollmentRepository) ListBySection(ctx context.Context, sectionID int64) ([]models.SectionEnrollment, error) {
	const query = `SELECT e.id, e.student_id, e.section_id, e.status, e.enrolled_at,
        st.student_number, u.first_name, u.last_name, u.email
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        JOIN users u ON u.id = st.user_id
        WHERE e.section_id = $1
        ORDER BY e.enrolled_at, e.id`
	rows := make([]models.SectionEnrollment, 0)
	if err := r.db.SelectContext(ctx, &rows, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section enrollments: %w", err)
	}
	return rows, nil
}
