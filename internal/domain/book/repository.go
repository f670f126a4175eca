package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 有两种可互换的实现:关系型数据库(gorm)与JSON文件
// 3. 未找到记录统一返回ErrBookNotFound
type Repository interface {
	// List 查询全部图书
	// 关系型实现按ID升序,JSON文件实现按写入顺序
	List(ctx context.Context) ([]*Book, error)

	// FindByID 根据ID查找图书
	FindByID(ctx context.Context, id uint) (*Book, error)

	// Create 创建图书
	// ID为0时由仓储分配并回填
	Create(ctx context.Context, book *Book) error

	// UpdateCover 仅更新封面路径(先插入后挂封面的创建流程使用)
	UpdateCover(ctx context.Context, id uint, cover string) error

	// Update 整体替换图书的全部字段
	Update(ctx context.Context, book *Book) error

	// Delete 删除图书
	Delete(ctx context.Context, id uint) error
}

// IDAllocator 需要在写入前由调用方确定ID的仓储实现
// 实现了该接口的仓储,服务层会先计算ID、先保存封面,再一次性写入完整记录
type IDAllocator interface {
	NextID(ctx context.Context) (uint, error)
}
