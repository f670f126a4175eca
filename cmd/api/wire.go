//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 修改后运行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"github.com/google/wire"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/storage/cover"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
)

// infrastructureSet 存储、缓存、封面、消息
var infrastructureSet = wire.NewSet(
	provideBaseRepository,
	provideRepository,
	provideCoverStore,
	wire.Bind(new(book.CoverStore), new(*cover.Store)),
	provideEventPublisher,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	provideBookService,
)

// applicationSet 图书用例
var applicationSet = wire.NewSet(
	provideUseCaseConfig,
	appbook.NewListBooksUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewCreateBookUseCase,
	appbook.NewUpdateBookUseCase,
	appbook.NewDeleteBookUseCase,
)

// handlerSet HTTP处理器与路由
var handlerSet = wire.NewSet(
	provideHandlerOptions,
	handler.NewBookHandler,
	provideGinEngine,
	newApp,
)

// InitializeApp 初始化整个应用
// cleanup按创建的逆序释放数据库、Redis、MQ连接
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
		handlerSet,
	)
	return nil, nil, nil
}
