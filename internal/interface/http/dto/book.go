package dto

import (
	"mime/multipart"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
)

// BookForm 创建/更新图书的表单
// 说明:
// 1. 以multipart/form-data提交(可同时上传封面文件cover),也接受x-www-form-urlencoded
// 2. 数值字段按字符串接收,非法数值由领域层视为"未填写",而不是返回400
// 3. 标题非空校验由应用层用例完成,与"全空白"的判断保持一致
type BookForm struct {
	Title         string `form:"title" example:"Go语言圣经"`
	Author        string `form:"author" example:"Alan A. A. Donovan"`
	Category      string `form:"category" example:"编程"`
	Price         string `form:"price" example:"79"`
	OriginalPrice string `form:"originalPrice" example:"99"`
	Rating        string `form:"rating" example:"4.8"`
	Desc          string `form:"desc" example:"Go语言经典教程"`
	Keywords      string `form:"keywords" example:"go,编程;并发"`
}

// ToRequest 表单 + 封面 → 用例请求
func (f BookForm) ToRequest(cover *multipart.FileHeader) appbook.SaveBookRequest {
	return appbook.SaveBookRequest{
		Title:         f.Title,
		Author:        f.Author,
		Category:      f.Category,
		Price:         f.Price,
		OriginalPrice: f.OriginalPrice,
		Rating:        f.Rating,
		Description:   f.Desc,
		Keywords:      f.Keywords,
		Cover:         cover,
	}
}
