package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/vote-score/internal/adapter/handler"
	"github.com/rl1809/vote-score/internal/adapter/storage"
	"github.com/rl1809/vote-score/internal/config"
	"github.com/rl1809/vote-score/internal/core/service"
	"github.com/rl1809/vote-score/internal/log"
	"github.com/rl1809/vote-score/internal/metrics"
	"github.com/rl1809/vote-score/internal/port"
)

var (
	myName  = filepath.Base(os.Args[0])
	version string
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", myName, err)
		os.Exit(2)
	}

	cfg, err := config.Load(myName, os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", myName, err)
		os.Exit(2)
	}

	zl := log.Must(log.NewLogger(log.WithLogLevel(cfg.LogLevel), log.WithFormat(cfg.LogFormat)))
	logger := zl.Sugar().With(zap.String("app", myName))

	logger.Infof("ver=%s, store=%s", version, cfg.Store)
	if err := start(cfg, logger); err != nil {
		logger.Errorf("*** %v", err)
		zl.Sync()
		os.Exit(1)
	}
	logger.Infof("done")
	zl.Sync()
}

func start(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return run(ctx, cfg, st, logger)
}

type stores struct {
	counter port.CounterRepository
	journal port.VoteJournal
	closers []func() error
}

func (s *stores) Close(logger *zap.SugaredLogger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Errorf("close: %v", err)
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*stores, error) {
	s := &stores{counter: storage.NewMemoryCounter()}

	var db *sql.DB
	if cfg.MySQLDSN != "" {
		var err error
		db, err = sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		s.closers = append(s.closers, db.Close)

		if err := db.PingContext(ctx); err != nil {
			s.Close(logger)
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		if err := storage.EnsureSchema(ctx, db); err != nil {
			s.Close(logger)
			return nil, err
		}
		logger.Infof("connected to mysql")

		if cfg.JournalEnabled() {
			s.journal = storage.NewMySQLJournal(db)
		}
	}

	switch cfg.Store {
	case config.StoreRedis:
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:        []string{cfg.RedisAddr},
			DialTimeout:  2 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
			PoolSize:     100,
		})
		s.closers = append(s.closers, rdb.Close)

		if err := rdb.Ping(ctx).Err(); err != nil {
			s.Close(logger)
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Infof("connected to redis %s, key=%s", cfg.RedisAddr, cfg.RedisKey)
		s.counter = storage.NewRedisCounter(rdb, cfg.RedisKey)
	case config.StoreMySQL:
		s.counter = storage.NewMySQLCounter(db)
	default:
		logger.Infof("score kept in memory, it resets on restart")
	}

	return s, nil
}

// run serves until ctx is done, then stops the servers, drains the journal
// and closes st, in that order.
func run(ctx context.Context, cfg *config.Config, st *stores, logger *zap.SugaredLogger) error {
	defer st.Close(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	queueSize := 0
	if st.journal != nil {
		queueSize = cfg.JournalQueue
	}
	scoreService := service.NewScoreService(st.counter, queueSize, m)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(scoreService, logger).Routes(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          zap.NewStdLog(logger.Desugar()),
	}

	var grpcServer *grpc.Server
	var grpcLis net.Listener
	if cfg.GRPCAddr != "" {
		var err error
		grpcLis, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(handler.UnaryLogInterceptor(logger)))
		handler.RegisterScoreServiceServer(grpcServer, handler.NewGRPCHandler(scoreService, logger))
		healthpb.RegisterHealthServer(grpcServer, health.NewServer())
	}

	// Start journal workers
	var wg sync.WaitGroup
	if st.journal != nil {
		for i := 0; i < cfg.JournalWorkers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				service.NewJournalWorker(id, st.journal, logger, m).Run(scoreService.Votes())
			}(i)
		}
		logger.Infof("started %d journal workers", cfg.JournalWorkers)
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcServer != nil {
		eg.Go(func() error {
			logger.Infof("gRPC server listening on %s", cfg.GRPCAddr)
			if err := grpcServer.Serve(grpcLis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Infof("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("HTTP shutdown: %v", err)
		}
		logger.Infof("HTTP server stopped")

		if grpcServer != nil {
			grpcServer.GracefulStop()
			logger.Infof("gRPC server stopped")
		}
		return nil
	})

	err := eg.Wait()

	// Close journal queue and wait for workers
	scoreService.Close()
	wg.Wait()
	logger.Infof("journal workers stopped")

	return err
}
