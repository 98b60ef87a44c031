package service

import (
	"context"
	"fmt"
	"net/mail"

	"go.uber.org/zap"

	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/pkg/events"
	"github.com/biniyam0960/Student-information-System/pkg/jobs"
	"github.com/biniyam0960/Student-information-System/pkg/mailer"
)

// Job types handled by the notifications queue.
const (
	JobPublishEvent   = "events.publish"
	JobPromotionEmail = "mail.promotion"
)

// PromotionNotice is the payload of a JobPromotionEmail job.
type PromotionNotice struct {
	EnrollmentID int64
	StudentID    int64
	SectionID    int64
}

type noticeStudentReader interface {
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
}

type noticeCourseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

// NotificationService delivers enrollment events and emails off the request path.
type NotificationService struct {
	publisher events.Publisher
	mailer    mailer.Mailer
	students  noticeStudentReader
	sections  sectionReader
	courses   noticeCourseReader
	logger    *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(publisher events.Publisher, m mailer.Mailer, students noticeStudentReader, sections sectionReader, courses noticeCourseReader, logger *zap.Logger) *NotificationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = mailer.NewLogMailer(logger)
	}
	return &NotificationService{publisher: publisher, mailer: m, students: students, sections: sections, courses: courses, logger: logger}
}

// Register binds the job handlers on mux.
func (s *NotificationService) Register(mux *jobs.Mux) {
	mux.Handle(JobPublishEvent, s.handlePublish)
	mux.Handle(JobPromotionEmail, s.handlePromotion)
}

func (s *NotificationService) handlePublish(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(events.Event)
	if !ok {
		s.logger.Error("unexpected event payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.publisher.Publish(ctx, event)
}

func (s *NotificationService) handlePromotion(ctx context.Context, job jobs.Job) error {
	notice, ok := job.Payload.(PromotionNotice)
	if !ok {
		s.logger.Error("unexpected promotion payload", zap.String("job_id", job.ID))
		return nil
	}

	student, err := s.students.FindByID(ctx, notice.StudentID)
	if err != nil {
		return fmt.Errorf("load student %d: %w", notice.StudentID, err)
	}
	section, err := s.sections.FindByID(ctx, notice.SectionID)
	if err != nil {
		return fmt.Errorf("load section %d: %w", notice.SectionID, err)
	}
	course, err := s.courses.FindByID(ctx, section.CourseID)
	if err != nil {
		return fmt.Errorf("load course %d: %w", section.CourseID, err)
	}

	name := student.FirstName + " " + student.LastName
	msg := mailer.Message{
		To:      mail.Address{Name: name, Address: student.Email},
		Subject: fmt.Sprintf("You have a seat in %s", course.Title),
		Text: fmt.Sprintf("Hello %s,\n\nA seat opened in %s (section %d) and you have been moved from the waitlist to enrolled.\n",
			student.FirstName, course.Title, section.ID),
		HTML: fmt.Sprintf("<p>Hello %s,</p><p>A seat opened in <strong>%s</strong> (section %d) and you have been moved from the waitlist to enrolled.</p>",
			student.FirstName, course.Title, section.ID),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send promotion email: %w", err)
	}
	s.logger.Info("promotion email sent", zap.Int64("enrollment_id", notice.EnrollmentID))
	return nil
}
