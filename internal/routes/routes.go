package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/face-teller/face_teller/internal/challenge"
	"github.com/face-teller/face_teller/internal/config"
	"github.com/face-teller/face_teller/internal/customer"
	"github.com/face-teller/face_teller/internal/face"
	"github.com/face-teller/face_teller/internal/middleware"
	"github.com/face-teller/face_teller/internal/otp"
	"github.com/face-teller/face_teller/internal/sms"
	"github.com/face-teller/face_teller/internal/withdrawal"
)

// Deps aggregates shared dependencies required to wire routes. SMS and Faces
// may be left nil to construct the configured implementations; tests inject
// deterministic substitutes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	SMS    sms.Sender
	Faces  face.Matcher
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce backing-store presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Backends
	var repo customer.Repository
	if d.DB != nil {
		repo = customer.NewPostgresRepository(d.DB)
	} else {
		repo = customer.NewMemoryRepository()
	}

	var challenges challenge.Store
	var attempts withdrawal.AttemptStore
	if d.Cache != nil {
		challenges = challenge.NewRedisStore(d.Cache)
		attempts = withdrawal.NewRedisAttemptStore(d.Cache)
	} else {
		challenges = challenge.NewMemoryStore()
		attempts = withdrawal.NewMemoryAttemptStore()
	}

	sender := d.SMS
	if sender == nil {
		if d.Cfg.SMSAccountSID != "" {
			sender = sms.NewTwilioSender(d.Cfg.SMSAccountSID, d.Cfg.SMSAuthToken, d.Cfg.SMSFrom, d.Cfg.SMSTimeout)
		} else {
			sender = sms.NewLoggerSender(d.Logger)
		}
	}

	matcher := d.Faces
	if matcher == nil {
		if d.Cfg.FaceOracleURL != "" {
			matcher = face.NewHTTPMatcher(d.Cfg.FaceOracleURL, d.Cfg.FaceThreshold, d.Cfg.FaceTimeout)
		} else {
			matcher = face.StaticMatcher{}
		}
	}

	// Services and handlers
	customerSvc := customer.NewService(repo)
	issuer := otp.NewIssuer(customerSvc, challenges, sender, d.Cfg.OTPTTL, d.Logger)
	gate := face.NewGate(customerSvc, matcher)

	policy := withdrawal.AllowAll
	if d.Cfg.EnforceMinLimit {
		policy = withdrawal.FloorPolicy
	}
	withdrawalSvc := withdrawal.NewService(repo, challenges, attempts, gate, policy, d.Cfg.AttemptTTL, d.Logger)

	customerHandler := customer.NewHandler(customerSvc)
	phoneHandler := otp.NewHandler(issuer, challenges, customerSvc)
	withdrawalHandler := withdrawal.NewHandler(withdrawalSvc, issuer)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	otpLimiter := middleware.OTPRateLimit(d.Cache, d.Cfg.OTPPerMinute)
	RegisterCustomerRoutes(api, customerHandler, phoneHandler, otpLimiter)
	RegisterWithdrawalRoutes(api, withdrawalHandler, otpLimiter)

	return nil
}
