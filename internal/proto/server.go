package proto

import (
	"context"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/config"
)

const (
	// ServiceName is the health service name reported next to the overall "" entry.
	ServiceName = "studynotes"

	probeInterval = 10 * time.Second
)

type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func newHealthServer(gdb *gorm.DB, logger *zap.SugaredLogger) *HealthServer {
	s := &HealthServer{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		db:     gdb,
		logger: logger,
	}
	grpc_health_v1.RegisterHealthServer(s.grpc, s.health)
	s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s
}

func NewHealthServer(lc fx.Lifecycle, cfg *config.Config, gdb *gorm.DB, logger *zap.SugaredLogger) *HealthServer {
	s := newHealthServer(gdb, logger)
	probeCtx, stopProbe := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", cfg.GRPCListenAddr())
			if err != nil {
				return err
			}
			s.logger.Infow("Starting GRPC health server.", "addr", lis.Addr().String())

			go s.probe(probeCtx)
			go func() {
				if err := s.Serve(lis); err != nil {
					s.logger.Errorw("GRPC server stopped.", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.logger.Info("Stopping GRPC server.")
			stopProbe()
			s.Stop()
			return nil
		},
	})

	return s
}

func (s *HealthServer) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Check pings the database and publishes the result.
func (s *HealthServer) Check(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := s.ping(ctx); err != nil {
		s.logger.Warnw("Database ping failed.", "error", err)
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.setStatus(status)
	return status
}

func (s *HealthServer) ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (s *HealthServer) probe(ctx context.Context) {
	s.Check(ctx)

	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

func (s *HealthServer) setStatus(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Stop reports NOT_SERVING to watchers and drains open RPCs.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
