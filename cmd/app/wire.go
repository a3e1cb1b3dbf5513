//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/carwash-advisor/internal/bootstrap"
	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
	"github.com/yanqian/carwash-advisor/internal/infra/config"
	httpiface "github.com/yanqian/carwash-advisor/internal/interface/http"
	"github.com/yanqian/carwash-advisor/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAdvisorConfig,
		provideWeatherSource,
		provideAdviceStore,
		provideHistoryRepository,
		provideDailyRefresher,
		washadvisor.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
