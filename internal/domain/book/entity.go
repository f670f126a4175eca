package book

// Book 图书实体(聚合根)
// 设计说明:
// 1. ID由存储层分配(自增ID或JSON文件中的max+1),分配后不可变
// 2. 数值字段使用指针表达"可空",序列化时省略空值而不是输出null
// 3. Cover保存对外访问路径(/image/...),不是磁盘路径
type Book struct {
	ID            uint     `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author,omitempty"`
	Category      string   `json:"category,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Rating        *float64 `json:"rating,omitempty"` // 0-5
	Description   string   `json:"desc,omitempty"`
	Keywords      []string `json:"keywords"`
	Cover         string   `json:"cover,omitempty"`
}

// Fields 表单原始字段
// 除Title外全部可空,数值类字段保留为字符串,由服务层统一解析与容错
type Fields struct {
	Title         string
	Author        string
	Category      string
	Price         string
	OriginalPrice string
	Rating        string
	Description   string
	Keywords      string
}

// newBook 由表单字段构建图书(不含ID与封面)
// 调用方需先完成标题校验
func newBook(f Fields) *Book {
	return &Book{
		Title:         normalizeTitle(f.Title),
		Author:        f.Author,
		Category:      f.Category,
		Price:         ParseOptionalNumber(f.Price),
		OriginalPrice: ParseOptionalNumber(f.OriginalPrice),
		Rating:        ClampRating(ParseOptionalNumber(f.Rating)),
		Description:   f.Description,
		Keywords:      TokenizeKeywords(f.Keywords),
	}
}
