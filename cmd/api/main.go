package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-approval/internal/common/api"
	"go-approval/internal/config"
	"go-approval/internal/database"
	"go-approval/internal/features/approval"
	"go-approval/internal/features/audit"
	"go-approval/internal/features/auth"
	"go-approval/internal/features/category"
	"go-approval/internal/features/notification"
	"go-approval/internal/features/orgchart"
	"go-approval/internal/features/reminder"
	"go-approval/internal/features/rule"
	"go-approval/internal/features/user"
	"go-approval/internal/logger"
	"go-approval/internal/middleware"
	"go-approval/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d route groups\n", len(routes))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			utils.SetSecret(cfg.JWTSecret)
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(
	lc fx.Lifecycle,
	userRepo user.UserRepository,
	categoryRepo category.CategoryRepository,
	ruleRepo rule.RuleRepository,
	lineRepo orgchart.DefaultLineRepository,
	approvalRepo approval.ApprovalRepository,
	notificationRepo notification.NotificationRepository,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				ensure := map[string]func(context.Context) error{
					"user":         userRepo.EnsureIndexes,
					"category":     categoryRepo.EnsureIndexes,
					"rule":         ruleRepo.EnsureIndexes,
					"default_line": lineRepo.EnsureIndexes,
					"approval":     approvalRepo.EnsureIndexes,
					"notification": notificationRepo.EnsureIndexes,
				}
				for name, fn := range ensure {
					if err := fn(ctx); err != nil {
						log.Printf("Failed to ensure %s indexes: %v", name, err)
					}
				}
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			user.NewUserRepository,
			audit.NewAuditRepository,
			category.NewCategoryRepository,
			rule.NewRuleRepository,
			orgchart.NewDefaultLineRepository,
			approval.NewApprovalRepository,
			notification.NewNotificationRepository,

			// Initialize Service
			user.NewUserService,
			audit.NewAuditService,
			auth.NewAuthService,
			category.NewCategoryService,
			rule.NewRuleService,
			orgchart.NewChainService,
			approval.NewApprovalService,
			notification.NewNotificationService,

			// Cross-feature collaborator bindings
			func(r user.UserRepository) audit.UserFinder { return r },
			func(s orgchart.ChainService) approval.ChainResolver { return s },
			func(r approval.ApprovalRepository) reminder.PendingLister { return r },

			// Initialize Controller
			user.NewUserController,
			audit.NewAuditController,
			auth.NewAuthController,
			category.NewCategoryController,
			rule.NewRuleController,
			orgchart.NewChainController,
			approval.NewApprovalController,
			notification.NewNotificationController,

			// Initialize Routes
			AsRoute(user.NewUserApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(auth.NewAuthApi),
			AsRoute(category.NewCategoryApi),
			AsRoute(rule.NewRuleApi),
			AsRoute(orgchart.NewChainApi),
			AsRoute(approval.NewApprovalApi),
			AsRoute(notification.NewNotificationApi),
		),

		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),

		fx.Invoke(
			RegisterAllRoutesWithAnnotation,
			InitializeIndexes,
			reminder.NewReminderService,
			StartServer,
		),
	)

	app.Run()
}
