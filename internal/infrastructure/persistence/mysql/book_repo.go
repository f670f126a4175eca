package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// bookRepository 图书仓储实现(GORM,MySQL/SQLite)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误(如主键冲突),转换为业务错误
// 4. ID由数据库自增分配,因此不实现book.IDAllocator
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// List 查询全部图书,按ID升序
func (r *bookRepository) List(ctx context.Context) ([]*book.Book, error) {
	var models []BookModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询图书列表失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := r.db.WithContext(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrapf(err, "查询图书[%d]失败", id)
	}

	return toBookEntity(&model), nil
}

// Create 创建图书
// ID为0时由数据库自增分配并回填
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	// 1. 领域实体 → GORM模型
	model := toBookModel(b)

	// 2. 插入数据库
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrDuplicateID
		}
		return apperrors.Wrap(err, "创建图书失败")
	}

	// 3. 回填自增ID
	b.ID = model.ID
	return nil
}

// UpdateCover 仅更新封面路径
func (r *bookRepository) UpdateCover(ctx context.Context, id uint, cover string) error {
	result := r.db.WithContext(ctx).
		Model(&BookModel{}).
		Where("id = ?", id).
		Update("cover", cover)

	if result.Error != nil {
		return apperrors.Wrapf(result.Error, "更新图书[%d]封面失败", id)
	}
	if result.RowsAffected == 0 {
		return r.ensureExists(ctx, id)
	}
	return nil
}

// Update 整体替换图书字段
// 学习要点:Select("*")让GORM把零值字段(空字符串、NULL)也写回,实现"整体替换"语义
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)

	result := r.db.WithContext(ctx).
		Model(&BookModel{}).
		Where("id = ?", b.ID).
		Select("*").
		Omit("id", "created_at", "deleted_at").
		Updates(model)

	if result.Error != nil {
		return apperrors.Wrapf(result.Error, "更新图书[%d]失败", b.ID)
	}
	if result.RowsAffected == 0 {
		return r.ensureExists(ctx, b.ID)
	}
	return nil
}

// Delete 删除图书(软删除)
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&BookModel{}, id)

	if result.Error != nil {
		return apperrors.Wrapf(result.Error, "删除图书[%d]失败", id)
	}

	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}

	return nil
}

// ensureExists 更新影响行数为0时确定原因
// MySQL默认返回"实际变更的行数",值未变化时也是0,需要再查一次区分"不存在"
func (r *bookRepository) ensureExists(ctx context.Context, id uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&BookModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询图书失败")
	}
	if count == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toBookModel 领域实体 → GORM模型
func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Category:      b.Category,
		Price:         b.Price,
		OriginalPrice: b.OriginalPrice,
		Rating:        b.Rating,
		Description:   b.Description,
		Keywords:      b.Keywords,
		Cover:         b.Cover,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	keywords := model.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return &book.Book{
		ID:            model.ID,
		Title:         model.Title,
		Author:        model.Author,
		Category:      model.Category,
		Price:         model.Price,
		OriginalPrice: model.OriginalPrice,
		Rating:        model.Rating,
		Description:   model.Description,
		Keywords:      keywords,
		Cover:         model.Cover,
	}
}
