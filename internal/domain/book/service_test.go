package book

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// =========================================
// 测试替身
// =========================================

// memRepo 自增ID的内存仓储(对应关系型数据库的行为)
type memRepo struct {
	mu    sync.Mutex
	books []*Book
	seq   uint

	updateCoverErr error
	deleteCalls    int
}

func copyBook(b *Book) *Book {
	cp := *b
	cp.Keywords = append([]string{}, b.Keywords...)
	return &cp
}

func (r *memRepo) List(ctx context.Context) ([]*Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, copyBook(b))
	}
	return out, nil
}

func (r *memRepo) FindByID(ctx context.Context, id uint) (*Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.books {
		if b.ID == id {
			return copyBook(b), nil
		}
	}
	return nil, ErrBookNotFound
}

func (r *memRepo) Create(ctx context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == 0 {
		r.seq++
		b.ID = r.seq
	}
	for _, existing := range r.books {
		if existing.ID == b.ID {
			return ErrDuplicateID
		}
	}
	r.books = append(r.books, copyBook(b))
	return nil
}

func (r *memRepo) UpdateCover(ctx context.Context, id uint, cover string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateCoverErr != nil {
		return r.updateCoverErr
	}
	for _, b := range r.books {
		if b.ID == id {
			b.Cover = cover
			return nil
		}
	}
	return ErrBookNotFound
}

func (r *memRepo) Update(ctx context.Context, book *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, b := range r.books {
		if b.ID == book.ID {
			r.books[i] = copyBook(book)
			return nil
		}
	}
	return ErrBookNotFound
}

func (r *memRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteCalls++
	for i, b := range r.books {
		if b.ID == id {
			r.books = append(r.books[:i], r.books[i+1:]...)
			return nil
		}
	}
	return ErrBookNotFound
}

// allocRepo 写入前分配ID的仓储(对应JSON文件存储的行为)
type allocRepo struct {
	*memRepo
}

func (r allocRepo) NextID(ctx context.Context) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID uint
	for _, b := range r.books {
		if b.ID > maxID {
			maxID = b.ID
		}
	}
	return maxID + 1, nil
}

type coverStub struct {
	mu     sync.Mutex
	err    error
	saved  []uint
	onSave func(id uint)
}

func (c *coverStub) Save(ctx context.Context, id uint, f *CoverFile) (string, error) {
	if f.Empty() {
		return "", nil
	}
	if c.onSave != nil {
		c.onSave(id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return "", c.err
	}
	c.saved = append(c.saved, id)
	return fmt.Sprintf("/image/book_%d_%d.png", id, len(c.saved)), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, e)
	return p.err
}

func png() *CoverFile {
	return &CoverFile{Filename: "cover.png", Data: []byte{0x89, 'P', 'N', 'G'}}
}

// =========================================
// 创建
// =========================================

func TestService_CreateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("标题为空拒绝创建", func(t *testing.T) {
		repo := &memRepo{}
		svc := NewService(repo, &coverStub{})

		_, err := svc.CreateBook(ctx, Fields{Title: "   ", Author: "x"}, png())
		assert.ErrorIs(t, err, ErrTitleRequired)

		books, _ := repo.List(ctx)
		assert.Empty(t, books)
	})

	t.Run("字段规范化", func(t *testing.T) {
		svc := NewService(&memRepo{}, &coverStub{})

		b, err := svc.CreateBook(ctx, Fields{
			Title:    " Go语言圣经 ",
			Price:    "abc",
			Rating:   "7.2",
			Keywords: "a, b；c\nd",
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, uint(1), b.ID)
		assert.Equal(t, "Go语言圣经", b.Title)
		assert.Nil(t, b.Price)
		require.NotNil(t, b.Rating)
		assert.Equal(t, 5.0, *b.Rating)
		assert.Equal(t, []string{"a", "b", "c", "d"}, b.Keywords)
		assert.Empty(t, b.Cover)
	})

	t.Run("先插入后挂封面", func(t *testing.T) {
		repo := &memRepo{}
		covers := &coverStub{}
		svc := NewService(repo, covers)

		b, err := svc.CreateBook(ctx, Fields{Title: "A"}, png())
		require.NoError(t, err)

		assert.Equal(t, "/image/book_1_1.png", b.Cover)
		stored, err := repo.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.Cover, stored.Cover)
	})

	t.Run("预分配ID时先存封面再写入", func(t *testing.T) {
		repo := allocRepo{&memRepo{}}
		covers := &coverStub{}
		covers.onSave = func(id uint) {
			_, err := repo.FindByID(ctx, id)
			assert.ErrorIs(t, err, ErrBookNotFound, "保存封面时记录尚未写入")
		}
		svc := NewService(repo, covers)

		first, err := svc.CreateBook(ctx, Fields{Title: "A"}, png())
		require.NoError(t, err)
		second, err := svc.CreateBook(ctx, Fields{Title: "B"}, nil)
		require.NoError(t, err)

		assert.Equal(t, uint(1), first.ID)
		assert.Equal(t, uint(2), second.ID)
		assert.Equal(t, []uint{1}, covers.saved)

		stored, err := repo.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "/image/book_1_1.png", stored.Cover)
	})

	t.Run("封面写入失败降级为无封面", func(t *testing.T) {
		repo := &memRepo{}
		svc := NewService(repo, &coverStub{err: errors.New("disk full")})

		b, err := svc.CreateBook(ctx, Fields{Title: "A"}, png())
		require.NoError(t, err)
		assert.Empty(t, b.Cover)

		books, _ := repo.List(ctx)
		assert.Len(t, books, 1)
	})

	t.Run("回写封面失败时补偿删除", func(t *testing.T) {
		repo := &memRepo{updateCoverErr: apperrors.Wrap(errors.New("db down"), "更新封面失败")}
		svc := NewService(repo, &coverStub{})

		_, err := svc.CreateBook(ctx, Fields{Title: "A"}, png())
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetAppError(err).Code)

		books, _ := repo.List(ctx)
		assert.Empty(t, books, "插入的记录应被补偿删除")
		assert.Equal(t, 1, repo.deleteCalls)
	})

	t.Run("并发创建ID唯一", func(t *testing.T) {
		repo := allocRepo{&memRepo{}}
		svc := NewService(repo, &coverStub{})

		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := svc.CreateBook(ctx, Fields{Title: fmt.Sprintf("book-%d", i)}, nil)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		books, _ := repo.List(ctx)
		require.Len(t, books, n)
		seen := make(map[uint]bool)
		for _, b := range books {
			assert.False(t, seen[b.ID], "重复ID: %d", b.ID)
			seen[b.ID] = true
		}
	})
}

// =========================================
// 更新
// =========================================

func TestService_UpdateBook(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (Service, *memRepo, *Book) {
		repo := &memRepo{}
		svc := NewService(repo, &coverStub{})
		b, err := svc.CreateBook(ctx, Fields{
			Title:    "原标题",
			Author:   "张三",
			Price:    "10",
			Keywords: "x,y",
		}, png())
		require.NoError(t, err)
		require.NotEmpty(t, b.Cover)
		return svc, repo, b
	}

	t.Run("不存在优先于标题校验", func(t *testing.T) {
		svc := NewService(&memRepo{}, &coverStub{})

		_, err := svc.UpdateBook(ctx, 42, Fields{Title: ""}, nil)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("标题为空拒绝更新", func(t *testing.T) {
		svc, repo, b := setup(t)

		_, err := svc.UpdateBook(ctx, b.ID, Fields{Title: " "}, nil)
		assert.ErrorIs(t, err, ErrTitleRequired)

		stored, _ := repo.FindByID(ctx, b.ID)
		assert.Equal(t, "原标题", stored.Title)
	})

	t.Run("整体替换并保留原封面", func(t *testing.T) {
		svc, repo, b := setup(t)

		updated, err := svc.UpdateBook(ctx, b.ID, Fields{Title: "新标题"}, nil)
		require.NoError(t, err)

		assert.Equal(t, b.ID, updated.ID)
		assert.Equal(t, "新标题", updated.Title)
		assert.Empty(t, updated.Author)
		assert.Nil(t, updated.Price)
		assert.Empty(t, updated.Keywords)
		assert.Equal(t, b.Cover, updated.Cover)

		stored, _ := repo.FindByID(ctx, b.ID)
		assert.Equal(t, updated, stored)
	})

	t.Run("上传新封面替换", func(t *testing.T) {
		svc, _, b := setup(t)

		updated, err := svc.UpdateBook(ctx, b.ID, Fields{Title: "T"}, png())
		require.NoError(t, err)
		assert.NotEqual(t, b.Cover, updated.Cover)
	})

	t.Run("新封面写入失败保留原封面", func(t *testing.T) {
		repo := &memRepo{}
		covers := &coverStub{}
		svc := NewService(repo, covers)
		b, err := svc.CreateBook(ctx, Fields{Title: "A"}, png())
		require.NoError(t, err)

		covers.err = errors.New("read-only fs")
		updated, err := svc.UpdateBook(ctx, b.ID, Fields{Title: "B"}, png())
		require.NoError(t, err)
		assert.Equal(t, b.Cover, updated.Cover)
	})
}

// =========================================
// 删除与查询
// =========================================

func TestService_DeleteBook(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	covers := &coverStub{}
	svc := NewService(repo, covers)

	b, err := svc.CreateBook(ctx, Fields{Title: "A"}, png())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, b.ID))

	_, err = svc.GetBook(ctx, b.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.ErrorIs(t, svc.DeleteBook(ctx, b.ID), ErrBookNotFound)
	assert.Equal(t, []uint{b.ID}, covers.saved, "删除不涉及封面文件")
}

func TestService_ListBooks(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memRepo{}, &coverStub{})

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	for _, title := range []string{"A", "B", "C"} {
		_, err := svc.CreateBook(ctx, Fields{Title: title}, nil)
		require.NoError(t, err)
	}

	books, err = svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "A", books[0].Title)
	assert.Equal(t, "C", books[2].Title)
}

// =========================================
// 事件
// =========================================

func TestService_Events(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewService(&memRepo{}, &coverStub{},
		WithEventPublisher(pub),
		WithClock(func() time.Time { return now }),
	)

	b, err := svc.CreateBook(ctx, Fields{Title: "A"}, nil)
	require.NoError(t, err, "事件发布失败不影响写操作")
	_, err = svc.UpdateBook(ctx, b.ID, Fields{Title: "B"}, nil)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBook(ctx, b.ID))

	_, err = svc.CreateBook(ctx, Fields{Title: ""}, nil)
	require.Error(t, err)

	require.Len(t, pub.events, 3)
	assert.Equal(t, EventCreated, pub.events[0].Type)
	assert.Equal(t, EventUpdated, pub.events[1].Type)
	assert.Equal(t, "B", pub.events[1].Book.Title)
	assert.Equal(t, EventDeleted, pub.events[2].Type)
	assert.Nil(t, pub.events[2].Book)
	assert.Equal(t, b.ID, pub.events[2].BookID)
	assert.Equal(t, now, pub.events[2].OccurredAt)
}
