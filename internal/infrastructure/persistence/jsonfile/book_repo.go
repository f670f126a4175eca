// Package jsonfile 基于单个JSON文件的图书仓储
//
// 文件内容是一个格式化输出的图书数组。每次调用都完整读取文件，
// 写操作在内存中修改后整体重写（先写临时文件再rename，避免写一半的文件）。
// 适合单实例、小数据量的部署。
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// bookRepository 图书仓储实现(JSON文件)
// 设计说明:
// 1. 同时实现book.Repository与book.IDAllocator
// 2. 一把互斥锁覆盖所有调用(包括读),读到的总是完整写入后的内容
// 3. 文件不存在视为空目录;内容损坏时记录日志并视为空目录
type bookRepository struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// Repository JSON文件仓储对外类型
type Repository interface {
	book.Repository
	book.IDAllocator
}

// NewBookRepository 创建JSON文件图书仓储
func NewBookRepository(fs afero.Fs, path string) Repository {
	return &bookRepository{fs: fs, path: path}
}

// List 按写入顺序返回全部图书
// 读取失败时降级为空列表(只记录日志),保证列表页始终可用
func (r *bookRepository) List(ctx context.Context) ([]*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	books, err := r.load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "读取图书文件失败,返回空列表", "path", r.path, "error", err)
		return []*book.Book{}, nil
	}
	return books, nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	books, err := r.load(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "读取图书文件失败")
	}

	if i := indexOf(books, id); i >= 0 {
		return books[i], nil
	}
	return nil, book.ErrBookNotFound
}

// NextID 计算下一个ID(当前最大ID+1,空目录为1)
// 只计算不占用:调用方需要在同一把业务锁内紧接着Create
func (r *bookRepository) NextID(ctx context.Context) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	books, err := r.load(ctx)
	if err != nil {
		return 0, apperrors.Wrap(err, "读取图书文件失败")
	}
	return nextID(books), nil
}

// Create 追加图书
// ID为0时分配max+1;预分配的ID已存在时返回ErrDuplicateID
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	books, err := r.load(ctx)
	if err != nil {
		return apperrors.Wrap(err, "读取图书文件失败")
	}

	if b.ID == 0 {
		b.ID = nextID(books)
	} else if indexOf(books, b.ID) >= 0 {
		return book.ErrDuplicateID
	}

	if err := r.save(append(books, b)); err != nil {
		return apperrors.Wrap(err, "写入图书文件失败")
	}
	return nil
}

// UpdateCover 仅更新封面路径
func (r *bookRepository) UpdateCover(ctx context.Context, id uint, cover string) error {
	return r.mutate(ctx, id, func(books []*book.Book, i int) []*book.Book {
		books[i].Cover = cover
		return books
	})
}

// Update 整体替换
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	return r.mutate(ctx, b.ID, func(books []*book.Book, i int) []*book.Book {
		books[i] = b
		return books
	})
}

// Delete 删除图书
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	return r.mutate(ctx, id, func(books []*book.Book, i int) []*book.Book {
		return append(books[:i], books[i+1:]...)
	})
}

// mutate 读取-修改-重写
func (r *bookRepository) mutate(ctx context.Context, id uint, fn func(books []*book.Book, i int) []*book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	books, err := r.load(ctx)
	if err != nil {
		return apperrors.Wrap(err, "读取图书文件失败")
	}

	i := indexOf(books, id)
	if i < 0 {
		return book.ErrBookNotFound
	}

	if err := r.save(fn(books, i)); err != nil {
		return apperrors.Wrap(err, "写入图书文件失败")
	}
	return nil
}

// load 读取全部图书
// 文件不存在或内容损坏返回空列表;只有IO错误才返回error
func (r *bookRepository) load(ctx context.Context) ([]*book.Book, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*book.Book{}, nil
		}
		return nil, err
	}

	books := make([]*book.Book, 0)
	if len(data) == 0 {
		return books, nil
	}
	if err := json.Unmarshal(data, &books); err != nil {
		slog.WarnContext(ctx, "图书文件内容损坏,按空目录处理", "path", r.path, "error", err)
		return []*book.Book{}, nil
	}

	for _, b := range books {
		if b.Keywords == nil {
			b.Keywords = []string{}
		}
	}
	return books, nil
}

// save 整体重写文件
// 先写同目录下的临时文件再rename,进程中途退出也不会留下半个文件
func (r *bookRepository) save(books []*book.Book) error {
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, 0o644); err != nil {
		return err
	}
	if err := r.fs.Rename(tmp, r.path); err != nil {
		_ = r.fs.Remove(tmp)
		return err
	}
	return nil
}

func indexOf(books []*book.Book, id uint) int {
	for i, b := range books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func nextID(books []*book.Book) uint {
	var maxID uint
	for _, b := range books {
		if b.ID > maxID {
			maxID = b.ID
		}
	}
	return maxID + 1
}
