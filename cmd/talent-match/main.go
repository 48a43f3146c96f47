package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"talent-match-go/internal/api/handler"
	"talent-match-go/internal/api/router"
	"talent-match-go/internal/config"
	"talent-match-go/internal/constants"
	"talent-match-go/internal/extractor"
	appLogger "talent-match-go/internal/logger"
	"talent-match-go/internal/parser"
	"talent-match-go/internal/quiz"
	"talent-match-go/internal/scorer"
	"talent-match-go/internal/storage"
	"talent-match-go/internal/tracing"
)

var (
	version     = "1.0.0"           //nolint:gochecknoglobals
	serviceName = "talent-match-go" //nolint:gochecknoglobals
)

// @title Talent Match API
// @version 1.0
// @description Candidate evaluation service: resume matching and adaptive quiz.
// @BasePath /api/v1
func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启用追踪时初始化OTLP导出，未启用时span仍创建但不导出
	if cfg.Tracing.Enabled {
		shutdownTracing, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
			ServiceName:    serviceName,
			ServiceVersion: version,
			OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
			SampleRatio:    cfg.Tracing.SampleRatio,
		})
		if err != nil {
			glog.Fatalf("初始化链路追踪失败: %v", err)
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdownTracing(shutdownCtx); err != nil {
				glog.Warnf("关闭链路追踪失败: %v", err)
			}
		}()
		glog.Infof("链路追踪已启用，OTLP端点: %s", cfg.Tracing.OTLPEndpoint)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 特征抽取：归一化器 + 技能词表
	normalizer, err := extractor.NewNormalizer()
	if err != nil {
		glog.Fatalf("初始化文本归一化器失败: %v", err)
	}
	vocabulary, err := extractor.LoadSkillsVocabulary(cfg.SkillsVocabularyPath)
	if err != nil {
		glog.Fatalf("加载技能词表失败 (%s): %v", cfg.SkillsVocabularyPath, err)
	}
	featureExtractor, err := extractor.NewExtractor(normalizer, vocabulary)
	if err != nil {
		glog.Fatalf("初始化特征抽取器失败: %v", err)
	}
	glog.Infof("特征抽取器初始化成功，技能词表条目数: %d", vocabulary.Size())

	documentExtractor, err := buildDocumentExtractor(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化文档抽取器失败: %v", err)
	}

	embedder, err := parser.NewAliyunEmbedder(cfg.Embedding)
	if err != nil {
		glog.Fatalf("初始化Embedder失败: %v", err)
	}
	matchScorer, err := scorer.NewMatchScorer(embedder)
	if err != nil {
		glog.Fatalf("初始化匹配打分器失败: %v", err)
	}
	glog.Info("匹配打分器初始化成功")

	questionGenerator, err := quiz.NewGenerator(ctx, cfg.QuizGenerator)
	if err != nil {
		glog.Fatalf("初始化出题器失败: %v", err)
	}
	quizManager := quiz.NewManager(
		questionGenerator,
		storageManager,
		config.GetDuration(cfg.Quiz.SessionTTL, constants.QuizSessionTTL),
		config.GetDuration(cfg.Quiz.SweepInterval, constants.QuizSessionSweepInterval),
	)
	defer quizManager.Close()
	glog.Infof("测验会话管理器初始化成功，出题后端: %s", cfg.QuizGenerator.Backend)

	applyHandler := handler.NewApplyHandler(storageManager, documentExtractor, featureExtractor, matchScorer)
	jobHandler := handler.NewJobHandler(storageManager, featureExtractor)
	quizHandler := handler.NewQuizHandler(quizManager)

	serverTracer, serverTraceCfg := hertztracing.NewServerTracer()
	h := server.New(
		serverTracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(serverTraceCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, applyHandler, jobHandler, quizHandler, cfg.Server.AdminAPIKey)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// 初始化zerolog并桥接到Hertz的hlog
func initLogger(cfg *config.Config) {
	appLogger.Init(appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	appLogger.Logger = appLogger.Logger.With().
		Str("app", serviceName).
		Str("version", version).
		Logger()

	hertzCompatibleLogger := hertzadapter.From(appLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
	if cfg.Logger.Level == "debug" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
}

// buildDocumentExtractor 按配置选择Tika服务器或本地eino解析器
func buildDocumentExtractor(ctx context.Context, cfg *config.Config) (parser.DocumentExtractor, error) {
	extractorLogger := log.New(io.Discard, "", 0)
	if cfg.Logger.Level == "debug" {
		extractorLogger = log.New(os.Stderr, "[DocExtractor] ", log.LstdFlags)
	}

	if cfg.Extractor.Type == "tika" && cfg.Extractor.TikaServerURL != "" {
		tikaOptions := []parser.TikaOption{
			parser.WithMinimalMetadata(true),
			parser.WithTikaLogger(extractorLogger),
		}
		if cfg.Extractor.TimeoutSeconds > 0 {
			tikaOptions = append(tikaOptions, parser.WithTimeout(time.Duration(cfg.Extractor.TimeoutSeconds)*time.Second))
		}
		glog.Info("使用Tika文档抽取器")
		return parser.NewTikaExtractor(cfg.Extractor.TikaServerURL, tikaOptions...), nil
	}

	glog.Info("使用eino本地PDF抽取器")
	return parser.NewEinoPDFExtractor(ctx, parser.WithEinoLogger(extractorLogger))
}
