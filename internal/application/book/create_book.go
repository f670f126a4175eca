package book

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// CreateBookUseCase 创建图书用例
// 设计说明:
// 1. 应用层负责请求校验与转换(标题、封面文件),领域服务负责规范化与持久化
// 2. 输入使用SaveBookRequest,与HTTP框架解耦
type CreateBookUseCase struct {
	bookService   book.Service
	maxUploadSize int64
}

// NewCreateBookUseCase 创建用例
func NewCreateBookUseCase(bookService book.Service, cfg Config) *CreateBookUseCase {
	return &CreateBookUseCase{
		bookService:   bookService,
		maxUploadSize: cfg.maxUploadSize(),
	}
}

// Execute 执行创建用例
func (uc *CreateBookUseCase) Execute(ctx context.Context, req SaveBookRequest) (*book.Book, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	cover, err := readCover(req.Cover, uc.maxUploadSize)
	if err != nil {
		return nil, err
	}

	return uc.bookService.CreateBook(ctx, req.toFields(), cover)
}
