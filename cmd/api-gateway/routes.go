package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/biniyam0960/Student-information-System/internal/handler"
	internalmiddleware "github.com/biniyam0960/Student-information-System/internal/middleware"
	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/pkg/config"
	"github.com/biniyam0960/Student-information-System/pkg/logger"
	corsmiddleware "github.com/biniyam0960/Student-information-System/pkg/middleware/cors"
	reqidmiddleware "github.com/biniyam0960/Student-information-System/pkg/middleware/requestid"
)

type handlers struct {
	auth        *handler.AuthHandler
	students    *handler.StudentHandler
	teachers    *handler.TeacherHandler
	departments *handler.DepartmentHandler
	courses     *handler.CourseHandler
	sections    *handler.SectionHandler
	enrollments *handler.EnrollmentHandler
	grades      *handler.GradeHandler
	attendance  *handler.AttendanceHandler
	exports     *handler.ExportHandler
	ops         *handler.MetricsHandler
}

type routerDeps struct {
	cfg      *config.Config
	logger   *zap.Logger
	tokens   internalmiddleware.TokenValidator
	limiter  internalmiddleware.RateLimiter
	audit    internalmiddleware.AuditWriter
	observer internalmiddleware.RequestObserver
	handlers handlers
}

const (
	admin   = models.RoleAdmin
	teacher = models.RoleTeacher
	student = models.RoleStudent
)

func newRouter(d routerDeps) *gin.Engine {
	cfg := d.cfg
	h := d.handlers

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(d.observer))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", h.ops.Health)
	r.GET("/ready", h.ops.Ready)
	r.GET("/metrics", h.ops.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := strings.TrimRight(cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	api := r.Group(prefix)

	authn := internalmiddleware.JWT(d.tokens)
	audit := func(action, resource, idParam string) gin.HandlerFunc {
		return internalmiddleware.Audit(d.audit, d.logger, action, resource, idParam)
	}

	auth := api.Group("/auth")
	auth.POST("/register", internalmiddleware.OptionalJWT(d.tokens), h.auth.Register)
	auth.POST("/login", internalmiddleware.RateLimit(d.limiter, cfg.RateLimit, d.logger), h.auth.Login)
	auth.POST("/refresh", h.auth.Refresh)
	auth.POST("/logout", authn, h.auth.Logout)
	auth.POST("/change-password", authn, h.auth.ChangePassword)
	auth.GET("/me", authn, h.auth.Me)

	api.GET("/exports/:token", h.exports.Download)

	secured := api.Group("")
	secured.Use(authn)

	students := secured.Group("/students")
	students.GET("", internalmiddleware.RequireRoles(admin, teacher), h.students.List)
	students.POST("", internalmiddleware.RequireRoles(admin), audit("CREATE", "student", ""), h.students.Create)
	students.GET("/:id", internalmiddleware.RequireRoles(admin, teacher, student), h.students.Get)
	students.PUT("/:id", internalmiddleware.RequireRoles(admin), audit("UPDATE", "student", "id"), h.students.Update)
	students.DELETE("/:id", internalmiddleware.RequireRoles(admin), audit("DELETE", "student", "id"), h.students.Delete)

	teachers := secured.Group("/teachers")
	teachers.GET("", internalmiddleware.RequireRoles(admin), h.teachers.List)
	teachers.POST("", internalmiddleware.RequireRoles(admin), audit("CREATE", "teacher", ""), h.teachers.Create)
	teachers.GET("/:id", internalmiddleware.RequireRoles(admin, teacher), h.teachers.Get)
	teachers.PUT("/:id", internalmiddleware.RequireRoles(admin), audit("UPDATE", "teacher", "id"), h.teachers.Update)
	teachers.DELETE("/:id", internalmiddleware.RequireRoles(admin), audit("DELETE", "teacher", "id"), h.teachers.Delete)

	departments := secured.Group("/departments")
	departments.GET("", h.departments.List)
	departments.GET("/:id", h.departments.Get)
	departments.POST("", internalmiddleware.RequireRoles(admin), audit("CREATE", "department", ""), h.departments.Create)
	departments.PUT("/:id", internalmiddleware.RequireRoles(admin), audit("UPDATE", "department", "id"), h.departments.Update)
	departments.DELETE("/:id", internalmiddleware.RequireRoles(admin), audit("DELETE", "department", "id"), h.departments.Delete)

	courses := secured.Group("/courses")
	courses.GET("", h.courses.List)
	courses.GET("/:id", h.courses.Get)
	courses.POST("", internalmiddleware.RequireRoles(admin), audit("CREATE", "course", ""), h.courses.Create)
	courses.PUT("/:id", internalmiddleware.RequireRoles(admin), audit("UPDATE", "course", "id"), h.courses.Update)
	courses.DELETE("/:id", internalmiddleware.RequireRoles(admin), audit("DELETE", "course", "id"), h.courses.Delete)

	sections := secured.Group("/sections")
	sections.GET("", h.sections.List)
	sections.GET("/:id", h.sections.Get)
	sections.POST("", internalmiddleware.RequireRoles(admin), audit("CREATE", "section", ""), h.sections.Create)
	sections.PUT("/:id", internalmiddleware.RequireRoles(admin), audit("UPDATE", "section", "id"), h.sections.Update)
	sections.DELETE("/:id", internalmiddleware.RequireRoles(admin), audit("DELETE", "section", "id"), h.sections.Delete)
	sections.POST("/:id/roster/export", internalmiddleware.RequireRoles(admin, teacher), h.exports.Roster)

	enrollments := secured.Group("/enrollments")
	enrollments.POST("", internalmiddleware.RequireRoles(student), h.enrollments.Enroll)
	enrollments.POST("/drop", internalmiddleware.RequireRoles(student), h.enrollments.Drop)
	enrollments.GET("/me", internalmiddleware.RequireRoles(student), h.enrollments.Mine)
	enrollments.GET("/section/:sectionId", internalmiddleware.RequireRoles(admin, teacher), h.enrollments.BySection)

	grades := secured.Group("/grades")
	grades.POST("/assignments", internalmiddleware.RequireRoles(admin, teacher), h.grades.CreateAssignment)
	grades.GET("/assignments/:sectionId", h.grades.ListAssignments)
	grades.POST("/grades", internalmiddleware.RequireRoles(admin, teacher), h.grades.UpsertGrade)
	grades.GET("/my/sections/:sectionId", internalmiddleware.RequireRoles(student), h.grades.MySectionGrades)
	grades.GET("/my/gpa", internalmiddleware.RequireRoles(student), h.grades.MyGPA)
	grades.POST("/my/transcript/export", internalmiddleware.RequireRoles(student), h.exports.Transcript)
	grades.GET("/students/:studentId/gpa", internalmiddleware.RequireRoles(admin, teacher), h.grades.StudentGPA)

	attendance := secured.Group("/attendance")
	attendance.POST("", internalmiddleware.RequireRoles(admin, teacher), h.attendance.Mark)
	attendance.GET("/section/:sectionId", internalmiddleware.RequireRoles(admin, teacher), h.attendance.BySection)
	attendance.GET("/my", internalmiddleware.RequireRoles(student), h.attendance.Mine)

	return r
}
