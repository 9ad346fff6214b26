package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"ecometer/internal/audit"
	"ecometer/internal/auth"
	billingapp "ecometer/internal/billing/application"
	billingrepo "ecometer/internal/billing/infrastructure/postgres"
	billinginterfaces "ecometer/internal/billing/interfaces"
	billinghttp "ecometer/internal/billing/interfaces/http"
	"ecometer/internal/config"
	"ecometer/internal/eventing"
	eventingrepo "ecometer/internal/eventing/infrastructure/postgres"
	identityapp "ecometer/internal/identity/application"
	identity "ecometer/internal/identity/domain"
	identityrepo "ecometer/internal/identity/infrastructure/postgres"
	identityhttp "ecometer/internal/identity/interfaces/http"
	"ecometer/internal/observability/metrics"
	readingapp "ecometer/internal/reading/application"
	readingrepo "ecometer/internal/reading/infrastructure/postgres"
	readinghttp "ecometer/internal/reading/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	baseBus := eventing.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(identity.UserRegistered{})

	outboxStore := eventingrepo.NewOutboxStore(db)
	processedStore := eventingrepo.NewProcessedStore(db)
	dlqStore := eventingrepo.NewDLQStore(db)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry, dlqStore)
	publisher := eventing.NewPublisher(outboxStore, dispatcher, baseBus)

	readingRepo := readingrepo.NewRepository(db)
	readingService, err := readingapp.NewReadingService(readingRepo, readingapp.SystemClock{})
	if err != nil {
		logger.Fatalf("reading service error: %v", err)
	}
	readingHandler, err := readinghttp.NewHandler(readingService, auditRepo)
	if err != nil {
		logger.Fatalf("reading handler error: %v", err)
	}

	configService, err := billingapp.NewConfigService(billingrepo.NewConfigRepository(db), readingRepo, logger)
	if err != nil {
		logger.Fatalf("config service error: %v", err)
	}
	calculationService, err := billingapp.NewCalculationService(readingRepo, configService, billingrepo.NewResultRepository(db), billingapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("calculation service error: %v", err)
	}
	billingHandler, err := billinghttp.NewHandler(configService, calculationService, auditRepo)
	if err != nil {
		logger.Fatalf("billing handler error: %v", err)
	}
	if err := billinginterfaces.RegisterUserRegisteredConsumer(baseBus, configService, processedStore, logger); err != nil {
		logger.Fatalf("billing consumer error: %v", err)
	}

	identityService, err := identityapp.NewIdentityService(identityrepo.NewRepository(db), publisher, []byte(cfg.JWTSecret), cfg.TokenTTL, logger)
	if err != nil {
		logger.Fatalf("identity service error: %v", err)
	}
	identityHandler, err := identityhttp.NewHandler(identityService, auditRepo)
	if err != nil {
		logger.Fatalf("identity handler error: %v", err)
	}

	// Redeliver outbox events that a crashed or failed inline dispatch
	// left pending.
	go func() {
		ticker := time.NewTicker(cfg.OutboxInterval)
		defer ticker.Stop()
		for range ticker.C {
			if err := dispatcher.Dispatch(context.Background(), cfg.OutboxBatch); err != nil {
				logger.Printf("outbox dispatch error: %v", err)
			}
		}
	}()

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/api/v1/auth/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/auth/register", identityHandler)
	mux.Handle("/api/v1/auth/login", identityHandler)
	mux.Handle("/api/v1/readings", readingHandler)
	mux.Handle("/api/v1/readings/", readingHandler)
	mux.Handle("/api/v1/config", billingHandler)
	mux.Handle("/api/v1/calculations", billingHandler)
	mux.Handle("/api/v1/calculations/", billingHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, recorder.status, time.Since(started))
	})
}
