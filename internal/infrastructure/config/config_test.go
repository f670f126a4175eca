package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverJSON, cfg.Storage.Driver)
	assert.Equal(t, "data/books.json", cfg.Storage.JSONPath)
	assert.Equal(t, []string{"data/images"}, cfg.Assets.Roots)
	assert.Equal(t, "/image", cfg.Assets.URLPrefix)
	assert.Equal(t, int64(5<<20), cfg.Assets.MaxUploadSize)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.MQ.Enabled)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9090
storage:
  driver: sqlite
database:
  sqlite_path: /tmp/books.db
assets:
  roots:
    - /srv/images
    - /srv/mirror
redis:
  enabled: true
  list_ttl: 30s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("BOOKSHELF_SERVER_PORT", "7070")
	t.Setenv("BOOKSHELF_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "环境变量覆盖配置文件")
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/books.db", cfg.Database.SQLitePath)
	assert.Equal(t, []string{"/srv/images", "/srv/mirror"}, cfg.Assets.Roots)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.ListTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080, Mode: "release"},
			Storage: StorageConfig{Driver: DriverJSON, JSONPath: "books.json"},
			Assets:  AssetsConfig{Roots: []string{"img"}, URLPrefix: "/image", MaxUploadSize: 1024},
			Tracing: TracingConfig{SampleRatio: 1},
		}
	}

	require.NoError(t, validate(valid()))

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }},
		{"未知运行模式", func(c *Config) { c.Server.Mode = "prod" }},
		{"未知驱动", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"JSON路径为空", func(c *Config) { c.Storage.JSONPath = "" }},
		{"没有封面目录", func(c *Config) { c.Assets.Roots = nil }},
		{"封面前缀为根路径", func(c *Config) { c.Assets.URLPrefix = "/" }},
		{"封面上限非法", func(c *Config) { c.Assets.MaxUploadSize = 0 }},
		{"采样率越界", func(c *Config) { c.Tracing.SampleRatio = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, validate(cfg))
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 3306, User: "u", Password: "p", DBName: "books",
		Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Shanghai",
	}
	assert.Equal(t, "u:p@tcp(db:3306)/books?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai", d.DSN())
}
