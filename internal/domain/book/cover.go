package book

import (
	"context"
)

// CoverFile 上传的封面文件
type CoverFile struct {
	Filename string // 原始文件名(可能为空)
	Data     []byte
}

// Empty 未上传文件或文件为空
func (f *CoverFile) Empty() bool {
	return f == nil || len(f.Data) == 0
}

// CoverStore 封面存储
// Save在没有文件时返回("", nil)且不做任何IO;
// 主目录写入失败返回错误,服务层降级为"不挂封面"
type CoverStore interface {
	Save(ctx context.Context, id uint, file *CoverFile) (string, error)
}
