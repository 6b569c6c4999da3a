package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sngm3741/inspection-intake/api/internal/config"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
	"github.com/sngm3741/inspection-intake/api/internal/infrastructure/messenger"
	"github.com/sngm3741/inspection-intake/api/internal/logging"
	adminhttp "github.com/sngm3741/inspection-intake/api/internal/interfaces/http/admin"
	commonhttp "github.com/sngm3741/inspection-intake/api/internal/interfaces/http/common"
	publichttp "github.com/sngm3741/inspection-intake/api/internal/interfaces/http/public"
)

// Server は HTTP サーバーのライフサイクルを管理し、Public/Admin の各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger         zerolog.Logger
	client         *mongo.Client
	addr           string
	allowedOrigins []string
	jwtConfigs     []config.JWTConfig
	jwtAudience    string

	catalog        domain.ItemCatalog
	maxUploadBytes int64
	submissions    application.SubmissionService
	orphans        application.OrphanService
}

// Gateways は外部バックエンドの実装一式。テストでは差し替える。
type Gateways struct {
	Storage  application.ObjectStorage
	Appender application.TabularAppender
	Orphans  application.OrphanRepository
	Notifier application.OrphanNotifier
}

// New は Config と (任意の) Mongo クライアントからゲートウェイとアプリケーションサービスを組み立てる。
// client は MongoDB を使わない構成では nil でよい。
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger, client *mongo.Client) (*Server, error) {
	gateways, err := buildGateways(ctx, cfg, logger, client)
	if err != nil {
		return nil, err
	}
	srv := NewWithGateways(cfg, logger, gateways)
	srv.client = client
	return srv, nil
}

// NewWithGateways はゲートウェイを直接受け取って Server を組み立てる。
func NewWithGateways(cfg config.Config, logger zerolog.Logger, gateways Gateways) *Server {
	catalog := domain.NewItemCatalog(cfg.ItemTypes)

	var uploader *application.PhotoUploader
	if gateways.Storage != nil {
		locator := application.NewStorageLocator(gateways.Storage)
		uploader = application.NewPhotoUploader(gateways.Storage, locator, cfg.FolderPolicy, time.Now)
	}

	var recorder application.OrphanRecorder
	if gateways.Orphans != nil {
		recorder = gateways.Orphans
	}

	srv := &Server{
		logger:         logger,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		jwtConfigs:     append([]config.JWTConfig(nil), cfg.OperatorJWT...),
		jwtAudience:    cfg.OperatorJWTAudience,
		catalog:        catalog,
		maxUploadBytes: cfg.MaxUploadBytes,
		submissions: application.NewSubmissionService(application.ServiceConfig{
			Logger:       logger,
			Uploader:     uploader,
			Formatter:    application.NewRowFormatter(cfg.RowLayout, cfg.PhotoCell),
			Appender:     gateways.Appender,
			Catalog:      catalog,
			IntakeRootID: cfg.IntakeRootID,
			Orphans:      recorder,
			Notifier:     gateways.Notifier,
		}),
	}
	if gateways.Orphans != nil {
		srv.orphans = application.NewOrphanService(gateways.Orphans)
	}
	return srv
}

// Handler は全ルートとミドルウェアを組み立てたルータを返す。
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(s.logger))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	router.Handle("/metrics", promhttp.Handler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:         s.logger,
		Submissions:    s.submissions,
		Catalog:        s.catalog,
		MaxUploadBytes: s.maxUploadBytes,
	})
	publicHandler.Register(router)

	if s.orphans != nil && len(s.jwtConfigs) > 0 {
		adminHandler := adminhttp.NewHandler(adminhttp.Config{
			Logger:  s.logger,
			Orphans: s.orphans,
		})
		router.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware)
			adminHandler.Register(r)
		})
	} else {
		s.logger.Info().Msg("運用者 API は無効 (MongoDB か AUTH_OPERATOR_JWT_SECRET が未設定)")
	}

	return router
}

// Run はHTTPサーバーを起動し、シグナル受信まで待機する。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("HTTP サーバー起動")
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler は MongoDB を使う構成では疎通確認も行う。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.client != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
				commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"error":  err.Error(),
				})
				return
			}
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

// shutdown は送信中の運用者通知を待ってから MongoDB クライアントをタイムアウト付きで切断する。
func (s *Server) shutdown(ctx context.Context) {
	if waiter, ok := s.submissions.(interface{ WaitNotifications() }); ok {
		waiter.WaitNotifications()
	}
	if s.client == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("MongoDB 切断時にエラー")
	}
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case sig := <-sigChan:
		srv.logger.Info().Str("signal", sig.String()).Msg("シグナルを受信。サーバー停止処理を開始します")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Error().Err(err).Msg("サーバー停止時にエラー")
		}
	}

	srv.shutdown(context.Background())
	return runErr
}

// newNotifier は通知先が設定されているときだけ Notifier を返す。
func newNotifier(cfg config.Config, logger zerolog.Logger, failures messenger.FailureStore) application.OrphanNotifier {
	if cfg.MessengerEndpoint == "" {
		return nil
	}
	return messenger.NewNotifier(messenger.Config{
		Logger:       logger,
		HTTPClient:   &http.Client{Timeout: cfg.MessengerTimeout},
		Endpoint:     cfg.MessengerEndpoint,
		Destination:  cfg.MessengerDestination,
		AdminBaseURL: cfg.AdminBaseURL,
		RetryDelay:   500 * time.Millisecond,
		Failures:     failures,
	})
}

func mongoDatabase(cfg config.Config, client *mongo.Client) *mongo.Database {
	if client == nil {
		return nil
	}
	return client.Database(cfg.MongoDatabase)
}
