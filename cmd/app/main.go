package main

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/auth"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/blob"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/config"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/proto"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/service"
	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/transport"
)

func main() {
	fx.New(
		config.Module,
		db.Module,
		blob.Module,
		auth.Module,
		service.Module,
		transport.Module,
		proto.Module,
		fx.Provide(NewLogger),
		fx.Invoke(func(*transport.HTTPServer, *proto.HealthServer) {}),
	).Run()
}

func NewLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Dev {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zcfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = l.Sync()
			return nil
		},
	})

	return l.Sugar(), nil
}
