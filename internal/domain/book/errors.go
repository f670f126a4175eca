package book

import (
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrTitleRequired 标题为空(含纯空白)
	ErrTitleRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "标题不能为空")

	// ErrDuplicateID 预分配的图书ID已被占用
	ErrDuplicateID = apperrors.New(apperrors.ErrCodeDuplicateEntry, "图书ID已存在")
)
