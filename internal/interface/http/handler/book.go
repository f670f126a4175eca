package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// coverFormField 封面文件的表单字段名
const coverFormField = "cover"

// formOverhead 除封面文件外,表单其他字段允许的大小
const formOverhead = 1 << 20

// Options 图书处理器配置
type Options struct {
	MaxUploadSize int64 // 单个封面文件上限(字节),用于限制请求体大小
}

// BookHandler 图书HTTP处理器
type BookHandler struct {
	listBooksUseCase  *appbook.ListBooksUseCase
	getBookUseCase    *appbook.GetBookUseCase
	createBookUseCase *appbook.CreateBookUseCase
	updateBookUseCase *appbook.UpdateBookUseCase
	deleteBookUseCase *appbook.DeleteBookUseCase
	maxBodySize       int64
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	listBooksUseCase *appbook.ListBooksUseCase,
	getBookUseCase *appbook.GetBookUseCase,
	createBookUseCase *appbook.CreateBookUseCase,
	updateBookUseCase *appbook.UpdateBookUseCase,
	deleteBookUseCase *appbook.DeleteBookUseCase,
	opts Options,
) *BookHandler {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = appbook.DefaultMaxUploadSize
	}
	return &BookHandler{
		listBooksUseCase:  listBooksUseCase,
		getBookUseCase:    getBookUseCase,
		createBookUseCase: createBookUseCase,
		updateBookUseCase: updateBookUseCase,
		deleteBookUseCase: deleteBookUseCase,
		maxBodySize:       opts.MaxUploadSize + formOverhead,
	}
}

// RegisterRoutes 注册图书路由
func (h *BookHandler) RegisterRoutes(r gin.IRouter) {
	books := r.Group("/api/books")
	{
		books.GET("", h.ListBooks)
		books.GET("/:id", h.GetBook)
		books.POST("", h.CreateBook)
		books.PUT("/:id", h.UpdateBook)
		books.DELETE("/:id", h.DeleteBook)
	}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  返回全部图书(JSON数组),空值字段省略
// @Tags         图书
// @Produce      json
// @Success      200 {array} book.Book
// @Failure      500 {object} response.Response "存储异常"
// @Router       /api/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	books, err := h.listBooksUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, books)
}

// GetBook 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} book.Book
// @Failure      400 {object} response.Response "ID格式错误"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := h.getBookUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, b)
}

// CreateBook 创建图书
// @Summary      创建图书
// @Description  表单提交图书信息,可选上传封面
// @Tags         图书
// @Accept       multipart/form-data
// @Produce      json
// @Param        title formData string true "书名"
// @Param        author formData string false "作者"
// @Param        category formData string false "分类"
// @Param        price formData string false "售价"
// @Param        originalPrice formData string false "原价"
// @Param        rating formData string false "评分(0-5)"
// @Param        desc formData string false "简介"
// @Param        keywords formData string false "关键词(逗号/分号/空白分隔)"
// @Param        cover formData file false "封面图片"
// @Success      200 {object} book.Book
// @Failure      400 {object} response.Response "标题为空或参数错误"
// @Failure      500 {object} response.Response "存储异常"
// @Router       /api/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	req, ok := h.bindForm(c)
	if !ok {
		return
	}

	b, err := h.createBookUseCase.Execute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, b)
}

// UpdateBook 更新图书(整体替换)
// @Summary      更新图书
// @Description  整体替换图书字段;未上传封面时保留原封面
// @Tags         图书
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path int true "图书ID"
// @Param        title formData string true "书名"
// @Param        author formData string false "作者"
// @Param        category formData string false "分类"
// @Param        price formData string false "售价"
// @Param        originalPrice formData string false "原价"
// @Param        rating formData string false "评分(0-5)"
// @Param        desc formData string false "简介"
// @Param        keywords formData string false "关键词"
// @Param        cover formData file false "封面图片"
// @Success      200 {object} book.Book
// @Failure      400 {object} response.Response "标题为空或参数错误"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	req, ok := h.bindForm(c)
	if !ok {
		return
	}

	b, err := h.updateBookUseCase.Execute(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, b)
}

// DeleteBook 删除图书
// @Summary      删除图书
// @Description  删除图书记录,封面文件保留
// @Tags         图书
// @Param        id path int true "图书ID"
// @Success      200 "删除成功"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.deleteBookUseCase.Execute(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// bindForm 绑定表单与封面文件,转换为用例请求
func (h *BookHandler) bindForm(c *gin.Context) (appbook.SaveBookRequest, bool) {
	var form dto.BookForm

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)

	if err := c.ShouldBind(&form); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数格式错误: "+err.Error())
		return appbook.SaveBookRequest{}, false
	}

	cover, err := coverHeader(c)
	if err != nil {
		response.Error(c, err)
		return appbook.SaveBookRequest{}, false
	}

	return form.ToRequest(cover), true
}

// coverHeader 取上传的封面文件头,未上传时返回nil
func coverHeader(c *gin.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(coverFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperrors.ErrBindError.WithCause(err)
	}
	return fh, nil
}

// parseID 解析路径中的图书ID
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "无效的图书ID")
		return 0, false
	}
	return uint(id), true
}
