package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Roeeht/Agent-Messiah/internal/agent"
	"github.com/Roeeht/Agent-Messiah/internal/audit"
	"github.com/Roeeht/Agent-Messiah/internal/auth"
	"github.com/Roeeht/Agent-Messiah/internal/calendar"
	"github.com/Roeeht/Agent-Messiah/internal/calls"
	"github.com/Roeeht/Agent-Messiah/internal/campaign"
	"github.com/Roeeht/Agent-Messiah/internal/config"
	"github.com/Roeeht/Agent-Messiah/internal/httpapi"
	"github.com/Roeeht/Agent-Messiah/internal/language"
	"github.com/Roeeht/Agent-Messiah/internal/leads"
	"github.com/Roeeht/Agent-Messiah/internal/metrics"
	"github.com/Roeeht/Agent-Messiah/internal/reporting"
	"github.com/Roeeht/Agent-Messiah/internal/session"
	"github.com/Roeeht/Agent-Messiah/internal/storage"
	"github.com/Roeeht/Agent-Messiah/internal/telephony"
	"github.com/Roeeht/Agent-Messiah/internal/transcribe"
	"github.com/Roeeht/Agent-Messiah/internal/twiml"
	"github.com/Roeeht/Agent-Messiah/pkg/logger"
	"github.com/Roeeht/Agent-Messiah/pkg/utils"
)

// app holds every long-lived dependency of the API process.
type app struct {
	Auth        *auth.Manager
	Sessions    session.Store
	Leads       leads.Registry
	Calendar    *calendar.Service
	Engine      agent.Engine
	Calls       *calls.Orchestrator
	Transcriber *transcribe.Service
	Provider    telephony.Provider
	Campaign    *campaign.Runner
	Metrics     *metrics.Turns
	Reports     *reporting.Service
	Checks      map[string]httpapi.Check

	closers []func() error
}

func (a *app) EngineName() string {
	if a.Engine == nil {
		return "none"
	}
	return a.Engine.Name()
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{Checks: map[string]httpapi.Check{}}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		// The operator API stays closed without a secret; webhooks still work.
		log.Warn("auth disabled", "err", err)
	}
	a.Auth = authManager

	if err := a.openSessions(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openStorage(ctx, cfg, log); err != nil {
		a.Close()
		return nil, err
	}

	var oa *openai.Client
	if cfg.HasOpenAI() {
		c := openai.NewClient(
			option.WithAPIKey(cfg.OpenAI.APIKey),
			option.WithRequestTimeout(cfg.OpenAI.Timeout),
		)
		oa = &c
	}

	switch {
	case cfg.Agent.Engine == "rules":
		a.Engine = agent.NewRuleEngine(a.Calendar, log)
	case oa != nil:
		a.Engine = agent.NewLLMEngine(&oa.Chat.Completions, cfg.OpenAI.Model, cfg.OpenAI.Timeout, a.Calendar, log)
	default:
		log.Warn("OPENAI_API_KEY missing; calls will end with a technical error")
	}

	catalog := language.CatalogFor(cfg.Voice.CallerLanguage)
	var translator language.Translator
	if oa != nil {
		translator = language.NewOpenAITranslator(&oa.Chat.Completions, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	}
	normalizer := language.NewNormalizer(translator, cfg.Voice.EnableTranslation, catalog)

	var audio transcribe.AudioTranscriptions
	if oa != nil {
		audio = &oa.Audio.Transcriptions
	}
	a.Transcriber = transcribe.NewService(
		transcribe.NewFetcher(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, 0),
		audio,
		cfg.OpenAI.TranscribeModel,
		catalog,
		2*cfg.OpenAI.Timeout,
		log,
	)

	outcomes, err := a.openOutcomes(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Metrics = metrics.New(prometheus.DefaultRegisterer)

	a.Calls = calls.New(calls.Deps{
		Sessions:   a.Sessions,
		Leads:      a.Leads,
		Engine:     a.Engine,
		Scheduler:  a.Calendar,
		Normalizer: normalizer,
		Docs: &twiml.Builder{
			BaseURL:       cfg.App.BaseURL,
			Language:      cfg.Voice.CallerLanguage,
			Voice:         cfg.Twilio.TTSVoice,
			Input:         twiml.InputMode(cfg.Voice.InputMode),
			RecordMaxLen:  cfg.Voice.RecordMaxLength,
			RecordTimeout: cfg.Voice.RecordSilenceTimeout,
			FallbackText:  catalog.Text(language.MsgFallbackShort),
			AskTimeText:   catalog.Text(language.MsgAskTime),
			ConfirmedText: catalog.Text(language.MsgMeetingConfirmed),
		},
		Outcomes:          outcomes,
		Metrics:           a.Metrics,
		RecordingFallback: cfg.Voice.RecordingFallback,
		RecordingReady:    a.Transcriber.Ready,
		Transcript: logger.Transcript{
			Enabled:  cfg.Debug.LogTranscript,
			MaxChars: cfg.Debug.TranscriptMaxChars,
		},
		Log: log,
	})

	if cfg.HasTwilio() && cfg.Twilio.CallerID != "" {
		a.Provider = telephony.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.CallerID, cfg.App.BaseURL)
		a.Checks[a.Provider.Name()] = a.Provider.HealthCheck
	} else {
		log.Warn("twilio credentials incomplete; outbound calls run in dry-run mode")
		a.Provider = &telephony.DryRunProvider{Log: log}
	}
	a.Campaign = campaign.NewRunner(a.Provider, a.Leads, cfg.Campaign.Delay, log)

	return a, nil
}

func (a *app) openSessions(ctx context.Context, cfg config.Config) error {
	debug := session.DebugOptions{Enabled: cfg.Debug.CallEvents, Max: cfg.Debug.CallEventsMax}
	if cfg.Session.Backend != "redis" {
		a.Sessions = session.NewMemoryStore(debug)
		return nil
	}
	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("redis init: %w", err)
	}
	a.closers = append(a.closers, rdb.Close)
	a.Checks["redis"] = func(ctx context.Context) error { return utils.RedisHealthCheck(ctx, rdb, 2*time.Second) }
	a.Sessions = session.NewRedisStore(redis.UniversalClient(rdb), cfg.Session.TTL, debug)
	return nil
}

func (a *app) openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var (
		dialect storage.Dialect
		dsn     string
	)
	switch cfg.DB.Driver {
	case "postgres":
		dialect, dsn = storage.DialectPostgres, cfg.PostgresDSN()
	case "sqlite":
		dialect, dsn = storage.DialectSQLite, cfg.DB.SQLitePath
	default:
		a.Leads = leads.NewMemoryRegistry(leads.DemoLeads()...)
		a.Calendar = calendar.NewService(calendar.DefaultSlotSource(time.Local), calendar.NewMemoryStore(""))
		return nil
	}

	db, err := storage.Open(ctx, dialect, dsn, utils.PoolConfig{})
	if err != nil {
		return fmt.Errorf("%s init: %w", cfg.DB.Driver, err)
	}
	a.closers = append(a.closers, db.Close)
	a.Checks["db"] = func(ctx context.Context) error { return utils.HealthCheck(ctx, db.DB, 2*time.Second) }
	registry := leads.NewSQLRegistry(db)
	seeded, err := registry.SeedIfEmpty(ctx, leads.DemoLeads())
	if err != nil {
		return err
	}
	if seeded > 0 {
		log.Info("seeded demo leads", "count", seeded, "db", cfg.DB.Driver)
	}
	a.Leads = registry
	a.Calendar = calendar.NewService(calendar.DefaultSlotSource(time.Local), calendar.NewSQLStore(db, ""))
	return nil
}

func (a *app) openOutcomes(ctx context.Context, cfg config.Config, log *slog.Logger) (*audit.Service, error) {
	recent := &audit.MemoryRepo{Max: 10000}
	a.Reports = reporting.NewService(reporting.NewMemoryRepo(recent))
	sinks := audit.Fanout{recent}
	if cfg.AMQP.URL != "" {
		ch, closeFn, err := audit.DialAMQP(ctx, cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			return nil, fmt.Errorf("amqp init: %w", err)
		}
		a.closers = append(a.closers, closeFn)
		sinks = append(sinks, audit.NewAMQPRepo(ch, cfg.AMQP.Exchange))
	}
	return audit.NewService(sinks), nil
}
