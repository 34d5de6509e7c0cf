// Package bootstrap builds the optional integrations from configuration.
// Every builder degrades to nil when its configuration is absent so the
// agent runs with whatever subset is available.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/advisordesk/advisor-booking-agent/internal/config"
	"github.com/advisordesk/advisor-booking-agent/internal/llm"
	"github.com/advisordesk/advisor-booking-agent/internal/session"
	"github.com/advisordesk/advisor-booking-agent/internal/sideeffect"
	"github.com/advisordesk/advisor-booking-agent/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, sessions stay in memory", "error", err)
		return nil
	}
	return client
}

// BuildSessionStore picks Redis-backed sessions when Redis is reachable
// and the in-memory store otherwise.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) session.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
		logger.Info("session store: redis", "addr", cfg.RedisAddr)
		return session.NewRedisStore(client, cfg.SessionTTL)
	}
	logger.Info("session store: memory")
	return session.NewMemoryStore()
}

// BuildLedger connects the Postgres audit ledger, or returns nils when no
// database is configured or reachable. The pool is the caller's to close.
func BuildLedger(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*sideeffect.PgLedger, *pgxpool.Pool) {
	if cfg == nil || cfg.DatabaseURL == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("booking ledger disabled, database unreachable", "error", err)
		return nil, nil
	}
	ledger := sideeffect.NewPgLedger(pool)
	if err := ledger.EnsureSchema(ctx); err != nil {
		logger.Warn("booking ledger disabled, schema setup failed", "error", err)
		pool.Close()
		return nil, nil
	}
	logger.Info("booking ledger: postgres")
	return ledger, pool
}

// BuildClassifier wires the Gemini-backed intent classifier, or nil when
// no API key is configured. The returned closer is nil-safe to call.
func BuildClassifier(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*llm.Classifier, func()) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || cfg.GeminiAPIKey == "" {
		logger.Info("intent classifier: keyword fallback only")
		return nil, func() {}
	}
	client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Warn("gemini unavailable, using keyword fallback", "error", err)
		return nil, func() {}
	}
	logger.Info("intent classifier: gemini", "model", cfg.GeminiModelID)
	return llm.NewClassifier(client), func() { client.Close() }
}

// BuildCalendar wires the Google Calendar integration, or nil when not
// configured.
func BuildCalendar(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) sideeffect.Calendar {
	if cfg == nil || cfg.GoogleCalendarID == "" || cfg.GoogleServiceAccountKeyPath == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	calendar, err := sideeffect.NewGoogleCalendar(ctx, cfg.GoogleServiceAccountKeyPath, cfg.GoogleCalendarID)
	if err != nil {
		logger.Warn("google calendar disabled", "error", err)
		return nil
	}
	logger.Info("calendar: google", "calendar_id", cfg.GoogleCalendarID)
	return calendar
}

// BuildNotifier wires SendGrid advisor notices, or nil when not configured.
func BuildNotifier(cfg *appconfig.Config, logger *logging.Logger) sideeffect.Notifier {
	if cfg == nil || cfg.AdvisorEmail == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	sender := sideeffect.NewSendGridSender(sideeffect.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	if sender == nil {
		return nil
	}
	logger.Info("notifier: sendgrid", "advisor", cfg.AdvisorEmail)
	return sideeffect.NewEmailNotifier(sender, cfg.AdvisorEmail, cfg.AdvisorName)
}
