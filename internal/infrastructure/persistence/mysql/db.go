package mysql

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架，storage.driver决定方言：mysql或sqlite（纯Go实现，无需CGO）
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	// 1. 选择方言
	var dialector gorm.Dialector
	pool := cfg.Database
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(pool.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("创建SQLite目录失败: %w", err)
			}
		}
		dialector = sqlite.Open(pool.SQLitePath)
		// SQLite只允许一个写连接，串行化避免"database is locked"
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
	default:
		dialector = mysql.Open(pool.DSN())
	}

	// 2. 配置GORM日志
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	return Open(dialector, pool, logLevel)
}

// Open 使用指定方言建立连接并迁移表结构
func Open(dialector gorm.Dialector, pool config.DatabaseConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	// 1. 连接数据库
	// TranslateError让唯一键冲突统一返回gorm.ErrDuplicatedKey（MySQL与SQLite一致）
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 2. 配置连接池
	// 学习要点：合理的连接池配置对性能至关重要
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	// 3. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	slog.Info("数据库连接成功", "dialect", dialector.Name())

	// 4. 自动迁移表结构
	// 注意：生产环境应使用专门的迁移工具（如golang-migrate）
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// 学习要点：
// 1. AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
// 2. 生产环境应使用版本化的迁移脚本，不要依赖AutoMigrate
func autoMigrate(db *gorm.DB) error {
	// 注意：这里需要使用GORM的模型定义（带tag），不是domain层的实体
	return db.AutoMigrate(&BookModel{})
}

// BookModel GORM图书模型
// 设计说明:
// 1. 可空数值使用指针,对应数据库NULL(不能用0代替"未填写")
// 2. 关键词以JSON数组存入text列,保持顺序
// 3. 删除为软删除,自增ID不会被复用
// 4. 书名、作者、分类不限长度,使用text列
type BookModel struct {
	ID            uint           `gorm:"primaryKey"`
	Title         string         `gorm:"type:text;not null;comment:书名"`
	Author        string         `gorm:"type:text;comment:作者"`
	Category      string         `gorm:"type:text;comment:分类"`
	Price         *float64       `gorm:"comment:售价"`
	OriginalPrice *float64       `gorm:"comment:原价"`
	Rating        *float64       `gorm:"comment:评分(0-5)"`
	Description   string         `gorm:"type:text;comment:简介"`
	Keywords      []string       `gorm:"serializer:json;type:text;comment:关键词(JSON数组)"`
	Cover         string         `gorm:"size:500;comment:封面访问路径"`
	CreatedAt     time.Time      `gorm:"comment:创建时间"`
	UpdatedAt     time.Time      `gorm:"comment:更新时间"`
	DeletedAt     gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}
