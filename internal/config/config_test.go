package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDefaultConfig 内置默认值齐全可用
func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 60, cfg.LLM.QPM)
	assert.Equal(t, 3, cfg.Resume.MaxRetries)
	assert.Equal(t, 3, cfg.Job.MaxRetries)
	assert.Equal(t, 4000, cfg.Normalizer.ChunkSize)
	assert.Equal(t, 200, cfg.Normalizer.ChunkOverlap)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "tirenohire", cfg.MySQL.Database)
	assert.False(t, cfg.MinIO.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
}

// TestLoadConfigFromFile 文件值覆盖默认值，未出现的字段保持默认
func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
llm:
  model: qwen-plus
  qpm: 30
server:
  address: ":9090"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "qwen-plus", cfg.LLM.Model)
	assert.Equal(t, 30, cfg.LLM.QPM)
	assert.Equal(t, ":9090", cfg.Server.Address)
	// 未覆盖的配置保留默认值
	assert.Equal(t, 4000, cfg.Normalizer.ChunkSize)
	assert.Equal(t, 3, cfg.Resume.MaxRetries)
}

// TestLoadConfigMissingFile 指定路径不存在时报错
func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestLoadConfigEnvOverrides 环境变量覆盖凭据类配置
func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  api_key: from-file\n"), 0644))

	t.Setenv("LLM_API_KEY", "from-env")
	t.Setenv("MYSQL_PASSWORD", "secret")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "secret", cfg.MySQL.Password)
}

// TestGetModelForTask 任务专用模型优先，未配置回退默认
func TestGetModelForTask(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.LLM.Model = "default-model"
	cfg.LLM.TaskModels = map[string]string{"analyzer": "strong-model"}

	assert.Equal(t, "strong-model", cfg.GetModelForTask("analyzer"))
	assert.Equal(t, "default-model", cfg.GetModelForTask("resume"))
}

// TestGetDuration 时长字符串解析与回退
func TestGetDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, GetDuration("30s", time.Minute))
	assert.Equal(t, 2*time.Hour, GetDuration("2h", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute))
}

// TestCreateSampleConfig 样例配置可以被重新加载
func TestCreateSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Server.Address, cfg.Server.Address)
}
