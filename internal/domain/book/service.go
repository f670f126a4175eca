package book

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/saga"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

const tracerName = "bookshelf/domain/book"

// Service 图书领域服务
// 设计说明:
// 1. 负责表单字段的规范化、封面保存与持久化的编排
// 2. 写操作(创建/更新/删除)在服务内串行执行,保证JSON文件存储的读-改-写不丢更新
// 3. 读操作不加锁,由存储层保证读取到的是完整快照
type Service interface {
	// ListBooks 查询全部图书
	ListBooks(ctx context.Context) ([]*Book, error)

	// GetBook 查询单本图书
	GetBook(ctx context.Context, id uint) (*Book, error)

	// CreateBook 创建图书,cover可为nil
	CreateBook(ctx context.Context, fields Fields, cover *CoverFile) (*Book, error)

	// UpdateBook 整体替换图书字段
	// 未上传新封面时保留原封面
	UpdateBook(ctx context.Context, id uint, fields Fields, cover *CoverFile) (*Book, error)

	// DeleteBook 删除图书(封面文件保留在磁盘上)
	DeleteBook(ctx context.Context, id uint) error
}

// Option 服务可选配置
type Option func(*service)

// WithEventPublisher 设置图书变更事件发布者
func WithEventPublisher(p EventPublisher) Option {
	return func(s *service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithClock 替换时钟(测试使用)
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

type service struct {
	mu     sync.Mutex // 串行化所有写操作
	repo   Repository
	covers CoverStore
	events EventPublisher
	now    func() time.Time
}

// NewService 创建图书服务
func NewService(repo Repository, covers CoverStore, opts ...Option) Service {
	s := &service{
		repo:   repo,
		covers: covers,
		events: noopPublisher{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ListBooks(ctx context.Context) (books []*Book, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookService.ListBooks")
	start := time.Now()
	defer func() {
		tracing.EndSpan(span, err)
		metrics.ObserveBookOperation("list", err, time.Since(start))
	}()

	return s.repo.List(ctx)
}

func (s *service) GetBook(ctx context.Context, id uint) (b *Book, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookService.GetBook")
	start := time.Now()
	defer func() {
		tracing.EndSpan(span, err)
		metrics.ObserveBookOperation("get", err, time.Since(start))
	}()

	return s.repo.FindByID(ctx, id)
}

// CreateBook 创建图书
// 业务规则:
// 1. 标题去除首尾空白后不能为空
// 2. 价格/评分无法解析时视为未填写,评分截断到[0,5]
// 3. 封面写入失败不影响图书创建,只是不挂封面
// 4. 存储层需要预先分配ID时(JSON文件),先算ID、再存封面、最后整条写入;
//    否则先插入拿到自增ID,再存封面并回写封面路径
func (s *service) CreateBook(ctx context.Context, fields Fields, cover *CoverFile) (created *Book, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookService.CreateBook")
	start := time.Now()
	defer func() {
		tracing.EndSpan(span, err)
		metrics.ObserveBookOperation("create", err, time.Since(start))
	}()

	// 1. 标题校验(不需要持锁)
	if err = validateTitle(fields.Title); err != nil {
		return nil, err
	}

	// 2. 规范化字段
	b := newBook(fields)

	s.mu.Lock()
	defer s.mu.Unlock()

	// 3. 按存储实现选择写入顺序
	if allocator, ok := s.repo.(IDAllocator); ok {
		err = s.createWithAllocatedID(ctx, allocator, b, cover)
	} else {
		err = s.createThenAttachCover(ctx, b, cover)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventCreated, b.ID, b)
	return b, nil
}

// createWithAllocatedID 先分配ID再写入完整记录
func (s *service) createWithAllocatedID(ctx context.Context, allocator IDAllocator, b *Book, cover *CoverFile) error {
	id, err := allocator.NextID(ctx)
	if err != nil {
		return err
	}

	b.ID = id
	b.Cover = s.saveCover(ctx, id, cover)
	return s.repo.Create(ctx, b)
}

// createThenAttachCover 先插入后挂封面
// 学习要点:
// 1. 两次写入之间如果回写封面失败,需要补偿删除已插入的记录,否则会留下一条"半成品"
// 2. 补偿由saga统一编排,补偿时使用不可取消的context,客户端断开也能回滚
func (s *service) createThenAttachCover(ctx context.Context, b *Book, cover *CoverFile) error {
	flow := saga.NewSaga(0)

	flow.AddStep("insert-book",
		func(ctx context.Context) error {
			return s.repo.Create(ctx, b)
		},
		func(ctx context.Context) error {
			metrics.IncCounter(metrics.SagaCompensationsTotal)
			return s.repo.Delete(ctx, b.ID)
		},
	)

	flow.AddStep("attach-cover",
		func(ctx context.Context) error {
			path := s.saveCover(ctx, b.ID, cover)
			if path == "" {
				return nil
			}
			if err := s.repo.UpdateCover(ctx, b.ID, path); err != nil {
				return err
			}
			b.Cover = path
			return nil
		},
		nil,
	)

	return flow.Execute(ctx)
}

// UpdateBook 整体替换图书字段
// 业务规则:
// 1. 图书不存在返回ErrBookNotFound(优先于标题校验)
// 2. 所有可选字段都按本次表单重新计算,空值即清空
// 3. 上传了新封面且写入成功才替换封面,否则保留原封面
func (s *service) UpdateBook(ctx context.Context, id uint, fields Fields, cover *CoverFile) (updated *Book, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookService.UpdateBook")
	start := time.Now()
	defer func() {
		tracing.EndSpan(span, err)
		metrics.ObserveBookOperation("update", err, time.Since(start))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = validateTitle(fields.Title); err != nil {
		return nil, err
	}

	b := newBook(fields)
	b.ID = existing.ID
	b.Cover = existing.Cover
	if path := s.saveCover(ctx, id, cover); path != "" {
		b.Cover = path
	}

	if err = s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, EventUpdated, b.ID, b)
	return b, nil
}

// DeleteBook 删除图书
// 封面文件不做清理,其他记录或外部链接可能仍在引用
func (s *service) DeleteBook(ctx context.Context, id uint) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookService.DeleteBook")
	start := time.Now()
	defer func() {
		tracing.EndSpan(span, err)
		metrics.ObserveBookOperation("delete", err, time.Since(start))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err = s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, EventDeleted, id, nil)
	return nil
}

// saveCover 保存封面,失败时降级为不挂封面
func (s *service) saveCover(ctx context.Context, id uint, file *CoverFile) string {
	if file.Empty() {
		return ""
	}

	path, err := s.covers.Save(ctx, id, file)
	if err != nil {
		slog.WarnContext(ctx, "封面保存失败,本次不挂封面",
			"book_id", id,
			"filename", file.Filename,
			"error", err,
		)
		return ""
	}
	return path
}

// publish 发布变更事件
// 变更已经落盘,发布失败只记录日志
func (s *service) publish(ctx context.Context, typ EventType, id uint, b *Book) {
	event := Event{
		Type:       typ,
		BookID:     id,
		Book:       b,
		OccurredAt: s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "图书事件发布失败",
			"type", string(typ),
			"book_id", id,
			"error", err,
		)
	}
}
