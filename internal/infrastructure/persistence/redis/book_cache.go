package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// ListCacheKey 图书列表缓存Key
const ListCacheKey = "bookshelf:books:list"

// ListGenerationKey 列表版本号,每次写操作INCR
const ListGenerationKey = "bookshelf:books:list:gen"

// DefaultListTTL 列表缓存默认过期时间
const DefaultListTTL = 5 * time.Minute

// EmptyListTTL 空列表只短暂缓存
// JSON文件读取失败时会降级返回空列表,不能让它把目录隐藏整个TTL
const EmptyListTTL = 5 * time.Second

// setIfGeneration 只有版本号与回源前读到的一致时才回填缓存
// KEYS[1]=列表key KEYS[2]=版本key ARGV[1]=版本 ARGV[2]=值 ARGV[3]=过期毫秒
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if not gen then gen = '0' end
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// CachedRepository 带列表缓存的图书仓储(装饰器)
// 设计说明:
// 1. 只缓存List结果,整个目录作为一个JSON值存储
// 2. 任何写操作成功后删除缓存并递增版本号(Cache-Aside),下一次List回源
// 3. 回填时比较版本号:回源期间发生过写操作则放弃回填,避免旧目录写回缓存
// 4. Redis故障时降级为直接访问底层仓储,不影响业务
type CachedRepository struct {
	inner  book.Repository
	client *redis.Client
	ttl    time.Duration
}

// allocatingCachedRepository 底层仓储需要预分配ID时,装饰器同样暴露NextID
// 否则服务层无法识别底层的ID分配能力
type allocatingCachedRepository struct {
	*CachedRepository
	allocator book.IDAllocator
}

func (r *allocatingCachedRepository) NextID(ctx context.Context) (uint, error) {
	return r.allocator.NextID(ctx)
}

// NewCachedRepository 为仓储加上Redis列表缓存
func NewCachedRepository(inner book.Repository, client *redis.Client, ttl time.Duration) book.Repository {
	if ttl <= 0 {
		ttl = DefaultListTTL
	}
	c := &CachedRepository{inner: inner, client: client, ttl: ttl}
	if allocator, ok := inner.(book.IDAllocator); ok {
		return &allocatingCachedRepository{CachedRepository: c, allocator: allocator}
	}
	return c
}

// List 优先读缓存
func (r *CachedRepository) List(ctx context.Context) ([]*book.Book, error) {
	// 版本号必须在回源之前读取
	gen, genErr := r.generation(ctx)

	data, err := r.client.Get(ctx, ListCacheKey).Bytes()
	switch {
	case err == nil:
		var books []*book.Book
		if jsonErr := json.Unmarshal(data, &books); jsonErr == nil {
			metrics.IncCounterVec(metrics.BookCacheRequestsTotal, map[string]string{"result": "hit"})
			return books, nil
		}
		// 缓存内容异常,当作未命中
		metrics.IncCounterVec(metrics.BookCacheRequestsTotal, map[string]string{"result": "miss"})
	case errors.Is(err, redis.Nil):
		metrics.IncCounterVec(metrics.BookCacheRequestsTotal, map[string]string{"result": "miss"})
	default:
		metrics.IncCounterVec(metrics.BookCacheRequestsTotal, map[string]string{"result": "error"})
		slog.WarnContext(ctx, "读取图书列表缓存失败,回源查询", "error", err)
	}

	books, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		r.refill(ctx, gen, books)
	}
	return books, nil
}

// generation 当前列表版本号,不存在时为"0"
func (r *CachedRepository) generation(ctx context.Context) (string, error) {
	gen, err := r.client.Get(ctx, ListGenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// refill 版本号未变化时回填缓存
func (r *CachedRepository) refill(ctx context.Context, gen string, books []*book.Book) {
	data, err := json.Marshal(books)
	if err != nil {
		return
	}

	ttl := r.ttl
	if len(books) == 0 && ttl > EmptyListTTL {
		ttl = EmptyListTTL
	}

	stored, err := setIfGeneration.Run(ctx, r.client,
		[]string{ListCacheKey, ListGenerationKey},
		gen, data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		slog.WarnContext(ctx, "写入图书列表缓存失败", "error", err)
		return
	}
	if stored == 0 {
		slog.DebugContext(ctx, "列表回源期间发生写操作,放弃回填缓存")
	}
}

// FindByID 单本查询不走缓存
func (r *CachedRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	return r.inner.FindByID(ctx, id)
}

func (r *CachedRepository) Create(ctx context.Context, b *book.Book) error {
	if err := r.inner.Create(ctx, b); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) UpdateCover(ctx context.Context, id uint, cover string) error {
	if err := r.inner.UpdateCover(ctx, id, cover); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) Update(ctx context.Context, b *book.Book) error {
	if err := r.inner.Update(ctx, b); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) Delete(ctx context.Context, id uint) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// invalidate 递增版本号并删除列表缓存
// 失败时缓存最多在TTL后过期
func (r *CachedRepository) invalidate(ctx context.Context) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, ListGenerationKey)
		pipe.Del(ctx, ListCacheKey)
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "删除图书列表缓存失败", "error", err)
	}
}
