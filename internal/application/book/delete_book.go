package book

import (
	"context"

	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// DeleteBookUseCase 删除图书用例,封面文件保留
type DeleteBookUseCase struct {
	bookService book.Service
}

// NewDeleteBookUseCase 创建用例
func NewDeleteBookUseCase(bookService book.Service) *DeleteBookUseCase {
	return &DeleteBookUseCase{bookService: bookService}
}

// Execute 执行删除用例
func (uc *DeleteBookUseCase) Execute(ctx context.Context, id uint) error {
	return uc.bookService.DeleteBook(ctx, id)
}
