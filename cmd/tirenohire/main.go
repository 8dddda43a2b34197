package main

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"github.com/utkarsh5026/TireNoHire/internal/api/handler"
	"github.com/utkarsh5026/TireNoHire/internal/api/router"
	"github.com/utkarsh5026/TireNoHire/internal/config"
	"github.com/utkarsh5026/TireNoHire/internal/logger"
	"github.com/utkarsh5026/TireNoHire/internal/processor"
	"github.com/utkarsh5026/TireNoHire/internal/storage"
	"github.com/utkarsh5026/TireNoHire/internal/tracing"
	"github.com/utkarsh5026/TireNoHire/pkg/llm"
)

func main() {
	var (
		configPath string
		debug      bool
	)
	pflag.StringVar(&configPath, "config", "", "配置文件路径，空则按默认位置查找")
	pflag.BoolVar(&debug, "debug", false, "开启调试日志")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	if debug {
		cfg.Logger.Level = "debug"
	}
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	hlog.SetLogger(hertzzerolog.From(logger.Logger))

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化追踪失败")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("关闭追踪失败")
		}
	}()

	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer store.Close()

	newModel := func(modelName string) (model.BaseChatModel, error) {
		return llm.NewOpenAIChatModel(cfg.LLM.APIKey, modelName, cfg.LLM.APIURL,
			llm.WithTemperature(cfg.Resume.Temperature),
			llm.WithMaxTokens(cfg.Analyzer.MaxTokens),
		)
	}

	pipeline, err := processor.CreatePipelineFromConfig(ctx, cfg, newModel, store,
		processor.WithDebug(debug),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("装配流水线失败")
	}
	logger.Info().Msg("流水线装配完成")

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.RegisterRoutes(h,
		handler.NewResumeHandler(pipeline),
		handler.NewJobHandler(pipeline),
		handler.NewMatchHandler(pipeline),
		handler.NewHealthHandler(store),
	)

	logger.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务启动")
	h.Spin()
}
