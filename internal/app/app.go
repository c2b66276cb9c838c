package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/game-night/internal/config"
	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/riskibarqy/game-night/internal/domain/podformation"
	"github.com/riskibarqy/game-night/internal/domain/poll"
	"github.com/riskibarqy/game-night/internal/domain/session"
	"github.com/riskibarqy/game-night/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/game-night/internal/infrastructure/notification"
	"github.com/riskibarqy/game-night/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/game-night/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/game-night/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/game-night/internal/platform/id"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/riskibarqy/game-night/internal/platform/resilience"
	"github.com/riskibarqy/game-night/internal/usecase"
)

const broadcasterDrainTimeout = 5 * time.Second

type repositories struct {
	sessions   session.Repository
	attendance attendance.Repository
	pods       pod.Repository
	polls      poll.Repository
}

// Server is the HTTP server plus the resources it owns.
type Server struct {
	*http.Server

	broadcaster *notification.Broadcaster
	db          *sqlx.DB
}

// Close releases the realtime worker pool and the database handle. Call it after Shutdown.
func (s *Server) Close() error {
	var errs []error
	if err := s.broadcaster.Close(broadcasterDrainTimeout); err != nil {
		errs = append(errs, fmt.Errorf("close broadcaster: %w", err))
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}

func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	repos, db, err := newRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	broadcaster, err := notification.NewBroadcaster(notification.BroadcasterConfig{
		WebhookURL:     cfg.RealtimeWebhookURL,
		Token:          cfg.RealtimeWebhookToken,
		Workers:        cfg.RealtimeWorkers,
		Timeout:        cfg.PollServiceTimeout,
		CircuitBreaker: breakerConfig(cfg.PollServiceCircuit),
	}, logger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("build realtime broadcaster: %w", err)
	}

	ids := idgen.NewUUIDGenerator()
	sessionSvc := usecase.NewSessionService(repos.sessions, repos.attendance, repos.polls, ids, logger)
	attendanceSvc := usecase.NewAttendanceService(repos.sessions, repos.attendance, broadcaster, logger)
	matchupSvc := usecase.NewMatchupService(repos.pods)
	suggestionSvc := usecase.NewPodSuggestionService(
		repos.sessions,
		repos.attendance,
		repos.pods,
		matchupSvc,
		usecase.PodSuggestionConfig{
			DefaultPodSize: cfg.PodDefaultSize,
			Search: podformation.Options{
				MaxSwaps:   cfg.PodSearchMaxSwaps,
				TimeBudget: cfg.PodSearchTimeBudget,
			},
		},
		logger,
	)
	podSvc := usecase.NewPodService(repos.sessions, repos.attendance, repos.pods, broadcaster, ids, logger)
	announcementSvc := usecase.NewAnnouncementService(
		repos.sessions,
		repos.polls,
		repos.pods,
		sessionSvc,
		newPollPublisher(cfg, logger),
		logger,
	)

	anubisClient := anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout},
		cfg.AnubisBaseURL,
		cfg.AnubisIntrospectURL,
		cfg.AnubisAdminKey,
		cfg.AnubisCacheTTL,
		breakerConfig(cfg.AnubisCircuit),
		logger,
	)

	handler := httpapi.NewHandler(httpapi.Services{
		Sessions:      sessionSvc,
		Attendance:    attendanceSvc,
		Matchups:      matchupSvc,
		Suggestions:   suggestionSvc,
		Pods:          podSvc,
		Announcements: announcementSvc,
	}, logger)
	router := httpapi.NewRouter(handler, anubisClient, httpapi.RouterConfig{
		AdminRoles:         cfg.AdminRoles,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		IntegrationToken:   cfg.IntegrationToken,
		RequestTimeout:     cfg.RequestTimeout,
	}, logger)

	return &Server{
		Server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		broadcaster: broadcaster,
		db:          db,
	}, nil
}

func newRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	if cfg.StorageDriver != config.StoragePostgres {
		logger.Info("using in-memory storage")
		return repositories{
			sessions:   memory.NewSessionRepository(),
			attendance: memory.NewAttendanceRepository(),
			pods:       memory.NewPodRepository(),
			polls:      memory.NewPollRepository(),
		}, nil, nil
	}

	db, err := postgres.Open(ctx, postgres.OpenConfig{
		URL:                   cfg.DBURL,
		DisablePreparedBinary: cfg.DBDisablePreparedBinary,
		MaxOpenConns:          20,
		MaxIdleConns:          10,
		ConnMaxLifetime:       30 * time.Minute,
	})
	if err != nil {
		return repositories{}, nil, err
	}
	logger.Info("using postgres storage", "db_name", postgres.DatabaseName(cfg.DBURL))

	return repositories{
		sessions:   postgres.NewSessionRepository(db),
		attendance: postgres.NewAttendanceRepository(db),
		pods:       postgres.NewPodRepository(db),
		polls:      postgres.NewPollRepository(db),
	}, db, nil
}

func newPollPublisher(cfg config.Config, logger *logging.Logger) usecase.PollPublisher {
	if cfg.PollServiceBaseURL == "" {
		logger.Warn("poll service disabled", "reason", "POLL_SERVICE_BASE_URL empty")
		return notification.DisabledPollPublisher{}
	}

	return notification.NewPollClient(notification.PollClientConfig{
		BaseURL:        cfg.PollServiceBaseURL,
		Token:          cfg.PollServiceToken,
		Timeout:        cfg.PollServiceTimeout,
		CircuitBreaker: breakerConfig(cfg.PollServiceCircuit),
	}, logger)
}

func breakerConfig(in config.CircuitConfig) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Enabled:          in.Enabled,
		FailureThreshold: in.FailureCount,
		OpenTimeout:      in.OpenTimeout,
		HalfOpenMaxReq:   in.HalfOpenMaxReq,
	}
}
