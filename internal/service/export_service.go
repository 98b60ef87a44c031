package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/biniyam0960/Student-information-System/internal/models"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
	"github.com/biniyam0960/Student-information-System/pkg/export"
	"github.com/biniyam0960/Student-information-System/pkg/storage"
)

type fileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type transcriptSource interface {
	Transcript(ctx context.Context, studentID int64) (models.GPAReport, []models.GradeRecord, error)
}

type rosterSource interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.StudentEnrollment, error)
	ListBySection(ctx context.Context, sectionID int64) ([]models.SectionEnrollment, error)
}

type exportMetrics interface {
	RecordExport(kind, format string)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is an opened export ready to stream.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportService renders transcripts and section rosters and hands out signed download links.
type ExportService struct {
	grades      transcriptSource
	enrollments rosterSource
	students    studentResolver
	sections    sectionReader
	storage     fileStorage
	signer      *storage.SignedURLSigner
	metrics     exportMetrics
	logger      *zap.Logger
	cfg         ExportConfig
	now         func() time.Time
}

// NewExportService constructs an ExportService. metrics may be nil.
func NewExportService(grades transcriptSource, enrollments rosterSource, students studentResolver, sections sectionReader, files fileStorage, signer *storage.SignedURLSigner, metrics exportMetrics, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		grades:      grades,
		enrollments: enrollments,
		students:    students,
		sections:    sections,
		storage:     files,
		signer:      signer,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ExportMyTranscript renders the caller's per-section finals and GPA.
func (s *ExportService) ExportMyTranscript(ctx context.Context, userID int64, req models.ExportRequest) (*models.ExportResult, error) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(req.Format)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	student, err := s.students.ResolveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	report, records, err := s.grades.Transcript(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	data := transcriptDataset(student, report, records, enrollments)
	return s.publish("transcript", fmt.Sprintf("transcript_%s", student.StudentNumber), format, data)
}

// ExportRoster renders a section roster. Teachers may only export sections they teach.
func (s *ExportService) ExportRoster(ctx context.Context, actor Actor, sectionID int64, req models.ExportRequest) (*models.ExportResult, error) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(req.Format)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		return nil, notFoundOr(err, "section not found", "failed to load section")
	}
	if actor.Role == models.RoleTeacher && (section.TeacherUserID == nil || *section.TeacherUserID != actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers may only export their own sections")
	}

	rows, err := s.enrollments.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return s.publish("roster", fmt.Sprintf("roster_section_%d", sectionID), format, rosterDataset(section, rows))
}

// Download resolves a signed token to the stored file.
func (s *ExportService) Download(token string) (*ExportDownload, error) {
	parsed, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	file, err := s.storage.Open(parsed.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	filename := filepath.Base(parsed.Path)
	return &ExportDownload{
		File:        file,
		Filename:    filename,
		ContentType: export.Format(strings.TrimPrefix(filepath.Ext(filename), ".")).ContentType(),
		ExpiresAt:   parsed.ExpiresAt,
	}, nil
}

// Cleanup removes files older than ttl, or the configured result TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.Cleanup(0)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

func (s *ExportService) publish(kind, name string, format export.Format, data export.Dataset) (*models.ExportResult, error) {
	payload, err := export.Render(format, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("%s/%s_%s.%s", kind, sanitizeFilename(name), s.now().Format("20060102_150405"), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Sign(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}

	if s.metrics != nil {
		s.metrics.RecordExport(kind, string(format))
	}
	s.logger.Info("export generated", zap.String("export_id", exportID), zap.String("kind", kind), zap.String("format", string(format)))

	return &models.ExportResult{
		ExportID:  exportID,
		Format:    string(format),
		URL:       fmt.Sprintf("%s/exports/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

func transcriptDataset(student *models.StudentDetail, report models.GPAReport, records []models.GradeRecord, enrollments []models.StudentEnrollment) export.Dataset {
	titles := make(map[int64]string, len(enrollments))
	for _, e := range enrollments {
		titles[e.SectionID] = e.CourseTitle
	}
	assignments := make(map[int64]int, len(report.Finals))
	for _, r := range records {
		assignments[r.SectionID]++
	}

	rows := make([]map[string]string, 0, len(report.Finals))
	for _, f := range report.Finals {
		rows = append(rows, map[string]string{
			"Section":     strconv.FormatInt(f.SectionID, 10),
			"Course":      titles[f.SectionID],
			"Assignments": strconv.Itoa(assignments[f.SectionID]),
			"Percent":     formatOptionalFloat(f.Percent, 2),
			"Letter":      derefString(f.Letter),
		})
	}

	name := strings.TrimSpace(student.FirstName + " " + student.LastName)
	return export.Dataset{
		Title: "Academic Transcript",
		Summary: []string{
			fmt.Sprintf("Student: %s (%s)", name, student.StudentNumber),
			fmt.Sprintf("GPA: %s", formatOptionalFloat(report.GPA, 2)),
		},
		Headers: []string{"Section", "Course", "Assignments", "Percent", "Letter"},
		Rows:    rows,
	}
}

func rosterDataset(section *models.Section, rows []models.SectionEnrollment) export.Dataset {
	ordered := make([]models.SectionEnrollment, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return statusRank(ordered[i].Status) < statusRank(ordered[j].Status)
	})

	var enrolled, waitlisted int
	out := make([]map[string]string, 0, len(ordered))
	for _, r := range ordered {
		switch r.Status {
		case models.EnrollmentStatusEnrolled:
			enrolled++
		case models.EnrollmentStatusWaitlisted:
			waitlisted++
		}
		out = append(out, map[string]string{
			"Student No": r.StudentNumber,
			"Name":       strings.TrimSpace(r.FirstName + " " + r.LastName),
			"Email":      r.Email,
			"Status":     string(r.Status),
			"Since":      r.EnrolledAt.UTC().Format("2006-01-02"),
		})
	}

	return export.Dataset{
		Title: fmt.Sprintf("Section %d Roster", section.ID),
		Summary: []string{
			fmt.Sprintf("Capacity: %d", section.Capacity),
			fmt.Sprintf("Enrolled: %d, waitlisted: %d", enrolled, waitlisted),
		},
		Headers: []string{"Student No", "Name", "Email", "Status", "Since"},
		Rows:    out,
	}
}

func statusRank(status models.EnrollmentStatus) int {
	switch status {
	case models.EnrollmentStatusEnrolled:
		return 0
	case models.EnrollmentStatusWaitlisted:
		return 1
	default:
		return 2
	}
}

func formatOptionalFloat(v *float64, precision int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', precision, 64)
}

func derefString(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
