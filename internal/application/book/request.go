package book

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// DefaultMaxUploadSize 默认封面大小上限
const DefaultMaxUploadSize = 5 << 20

// Config 图书用例配置
type Config struct {
	MaxUploadSize int64 // 单个封面文件上限(字节)
}

func (c Config) maxUploadSize() int64 {
	if c.MaxUploadSize <= 0 {
		return DefaultMaxUploadSize
	}
	return c.MaxUploadSize
}

// SaveBookRequest 创建/更新图书请求DTO
// 数值字段保持字符串,由领域层解析;Cover为nil表示未上传封面
type SaveBookRequest struct {
	Title         string
	Author        string
	Category      string
	Price         string
	OriginalPrice string
	Rating        string
	Description   string
	Keywords      string
	Cover         *multipart.FileHeader
}

// validate 标题为空(含纯空白)直接拒绝,不进入领域层
func (r SaveBookRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return book.ErrTitleRequired
	}
	return nil
}

// toFields 请求DTO → 领域字段
func (r SaveBookRequest) toFields() book.Fields {
	return book.Fields{
		Title:         r.Title,
		Author:        r.Author,
		Category:      r.Category,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Rating:        r.Rating,
		Description:   r.Description,
		Keywords:      r.Keywords,
	}
}

// readCover 读取上传的封面,未上传时返回nil
func readCover(fh *multipart.FileHeader, maxSize int64) (*book.CoverFile, error) {
	if fh == nil {
		return nil, nil
	}
	if fh.Size > maxSize {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "封面文件过大")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.Wrap(err, "读取封面失败")
	}
	defer f.Close()

	// 多读1字节,Size不可信时也能发现超限
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, apperrors.Wrap(err, "读取封面失败")
	}
	if int64(len(data)) > maxSize {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "封面文件过大")
	}

	return &book.CoverFile{Filename: fh.Filename, Data: data}, nil
}
