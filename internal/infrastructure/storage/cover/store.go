// Package cover 图书封面文件存储
//
// 封面按 book_<id>_<毫秒时间戳><扩展名> 命名，依次写入配置的每个根目录：
// 第一个根目录是主目录（/image静态服务指向它），其余是镜像目录。
// 主目录写入失败视为保存失败；镜像目录失败只记录告警。
package cover

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/metrics"
)

const (
	// DefaultURLPrefix 封面对外访问路径前缀
	DefaultURLPrefix = "/image"

	defaultFilename = "cover.jpg"
	fallbackExt     = ".dat"
)

// allowedExts 允许保留的图片扩展名（小写）
var allowedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Store 基于afero文件系统的封面存储
// 生产环境使用afero.NewOsFs()，测试使用afero.NewMemMapFs()
type Store struct {
	fs        afero.Fs
	roots     []string
	urlPrefix string
	now       func() time.Time
}

// NewStore 创建封面存储
// roots至少包含一个目录
func NewStore(fs afero.Fs, roots []string, urlPrefix string) (*Store, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("cover store: at least one root directory is required")
	}
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	return &Store{
		fs:        fs,
		roots:     roots,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		now:       time.Now,
	}, nil
}

// PrimaryRoot 主目录
func (s *Store) PrimaryRoot() string {
	return s.roots[0]
}

// URLPrefix 对外访问路径前缀（不带末尾斜杠）
func (s *Store) URLPrefix() string {
	return s.urlPrefix
}

// Save 保存封面并返回对外访问路径
func (s *Store) Save(ctx context.Context, id uint, file *book.CoverFile) (string, error) {
	if file.Empty() {
		return "", nil
	}

	name := fmt.Sprintf("book_%d_%d%s", id, s.now().UnixMilli(), Extension(file.Filename))

	for i, root := range s.roots {
		err := s.write(root, name, file.Data)
		if i == 0 {
			metrics.IncCounterVec(metrics.CoverWritesTotal, map[string]string{"root": "primary", "result": metrics.Result(err)})
			if err != nil {
				return "", apperrors.ErrStorageError.WithCause(err)
			}
			continue
		}

		metrics.IncCounterVec(metrics.CoverWritesTotal, map[string]string{"root": "mirror", "result": metrics.Result(err)})
		if err != nil {
			slog.WarnContext(ctx, "封面镜像目录写入失败", "root", root, "file", name, "error", err)
		}
	}

	return s.urlPrefix + "/" + name, nil
}

func (s *Store) write(root, name string, data []byte) error {
	if err := s.fs.MkdirAll(root, 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, filepath.Join(root, name), data, 0o644)
}

// Extension 根据上传文件名得到保存时使用的扩展名
// 规则：
// 1. 只看文件名部分（去掉客户端可能带上的路径）
// 2. 文件名为空或不含"."时按cover.jpg处理
// 3. 最后一个"."之后的后缀转小写，不在白名单内一律使用.dat
func Extension(filename string) string {
	name := strings.TrimSpace(filename)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || !strings.Contains(name, ".") {
		name = defaultFilename
	}

	ext := strings.ToLower(name[strings.LastIndex(name, "."):])
	if allowedExts[ext] {
		return ext
	}
	return fallbackExt
}
