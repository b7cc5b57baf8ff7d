package app

import (
	"database/sql"
	"path/filepath"

	"go-hrm/internal/attendance"
	"go-hrm/internal/employee"
	"go-hrm/internal/leave"
	"go-hrm/internal/leavetype"
	"go-hrm/internal/messaging/kafka"
	"go-hrm/internal/rbac"
	"go-hrm/internal/rbac/infra"
	"go-hrm/internal/shared/counter"
	"go-hrm/internal/shift"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	summaryRepo := attendance.NewSummaryRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	shiftRepo := shift.NewRepository(gormDB)
	leaveTypeRepo := leavetype.NewRepository(gormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	ledger := leave.NewLedger(gormDB)
	reconciler := employee.NewReconciler(db, employeeRepo, outboxRepo)
	employeeService := employee.NewService(db, employeeRepo, counterRepo, reconciler)
	leaveService := leave.NewServiceWithOutbox(db, leaveRepo, ledger, reconciler, outboxRepo)
	attendanceService := attendance.NewService(db, attendanceRepo)
	aggregator := attendance.NewAggregator(db, attendanceRepo, summaryRepo, attendance.DefaultAggregatorConfig())
	shiftService := shift.NewService(db, shiftRepo, rdb)
	leaveTypeService := leavetype.NewService(db, leaveTypeRepo, rdb)

	// --- Handlers ---
	employeeHandler := employee.NewHandler(employeeService)
	leaveHandler := leave.NewHandler(leaveService)
	attendanceHandler := attendance.NewHandler(attendanceService, aggregator)
	shiftHandler := shift.NewHandler(shiftService)
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService)
	rbacHandler := rbac.NewHandler(rbacService, rbacRepo)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		employee.RegisterRoutes(api, employeeHandler, rbacService)
		leave.RegisterRoutes(api, leaveHandler, rbacService)
		attendance.RegisterRoutes(api, attendanceHandler, rbacService)
		shift.RegisterRoutes(api, shiftHandler, rbacService)
		leavetype.RegisterRoutes(api, leaveTypeHandler, rbacService)
		rbac.RegisterRoutes(api, rbacHandler, rbacService)
	}

	return nil
}
