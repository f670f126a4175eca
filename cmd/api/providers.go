package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/jsonfile"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshelf/internal/infrastructure/storage/cover"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

// App 组装完成的应用
type App struct {
	Engine *gin.Engine
}

// baseRepository 未加缓存的图书存储
// 单独定义类型，避免与加缓存后的book.Repository在wire中冲突
type baseRepository book.Repository

// provideBaseRepository 按storage.driver选择图书存储
func provideBaseRepository(cfg *config.Config) (baseRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverJSON:
		slog.Info("使用JSON文件存储", "path", cfg.Storage.JSONPath)
		return jsonfile.NewBookRepository(afero.NewOsFs(), cfg.Storage.JSONPath), func() {}, nil

	case config.DriverMySQL, config.DriverSQLite:
		db, err := mysql.NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return mysql.NewBookRepository(db), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Storage.Driver)
	}
}

// provideRepository 按redis.enabled决定是否加列表缓存
func provideRepository(cfg *config.Config, base baseRepository) (book.Repository, func(), error) {
	if !cfg.Redis.Enabled {
		return base, func() {}, nil
	}

	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return redis.NewCachedRepository(base, client, cfg.Redis.ListTTL), cleanup, nil
}

// provideCoverStore 封面存储（主目录 + 镜像目录）
func provideCoverStore(cfg *config.Config) (*cover.Store, error) {
	return cover.NewStore(afero.NewOsFs(), cfg.Assets.Roots, cfg.Assets.URLPrefix)
}

// provideEventPublisher 按mq.enabled创建事件发布者，未启用时返回nil（服务内部不发布）
func provideEventPublisher(cfg *config.Config) (book.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return nil, func() {}, nil
	}

	publisher, err := mq.NewPublisher(mq.Config{
		URL:          cfg.MQ.URL,
		Exchange:     cfg.MQ.Exchange,
		ExchangeType: cfg.MQ.ExchangeType,
		AppID:        cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := publisher.Close(); err != nil {
			slog.Warn("关闭MQ连接失败", "error", err)
		}
	}
	return messaging.NewBookEventPublisher(publisher), cleanup, nil
}

// provideBookService 图书领域服务
func provideBookService(repo book.Repository, covers book.CoverStore, events book.EventPublisher) book.Service {
	return book.NewService(repo, covers, book.WithEventPublisher(events))
}

// provideUseCaseConfig 从配置提取用例参数
func provideUseCaseConfig(cfg *config.Config) appbook.Config {
	return appbook.Config{MaxUploadSize: cfg.Assets.MaxUploadSize}
}

// provideHandlerOptions 从配置提取处理器参数
func provideHandlerOptions(cfg *config.Config) handler.Options {
	return handler.Options{MaxUploadSize: cfg.Assets.MaxUploadSize}
}

// provideGinEngine 创建Gin引擎并注册路由
// 中间件执行顺序：Logger → Recovery → Tracing → Metrics → Handler
func provideGinEngine(cfg *config.Config, bookHandler *handler.BookHandler, covers *cover.Store) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing())
	}
	r.Use(middleware.Metrics())

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Server.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 封面静态文件（主目录）
	r.Static(covers.URLPrefix(), covers.PrimaryRoot())

	bookHandler.RegisterRoutes(r)
	r.NoRoute(middleware.NoRoute)

	return r
}

func newApp(engine *gin.Engine) *App {
	return &App{Engine: engine}
}
