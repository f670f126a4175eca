package book

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// UpdateBookUseCase 更新图书用例(整体替换)
// 标题校验先于存在性检查:空标题一律400,不会因为ID不存在变成404
type UpdateBookUseCase struct {
	bookService   book.Service
	maxUploadSize int64
}

// NewUpdateBookUseCase 创建用例
func NewUpdateBookUseCase(bookService book.Service, cfg Config) *UpdateBookUseCase {
	return &UpdateBookUseCase{
		bookService:   bookService,
		maxUploadSize: cfg.maxUploadSize(),
	}
}

// Execute 执行更新用例,未上传封面时保留原封面
func (uc *UpdateBookUseCase) Execute(ctx context.Context, id uint, req SaveBookRequest) (*book.Book, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	cover, err := readCover(req.Cover, uc.maxUploadSize)
	if err != nil {
		return nil, err
	}

	return uc.bookService.UpdateBook(ctx, id, req.toFields(), cover)
}
