/*
 * @module service/config/config
 * @description 服务配置：环境变量读取与 YAML 查找表目录加载
 * @architecture 分层架构 - 配置层
 * @documentReference dev_docs/deployment.md
 * @stateFlow 进程启动 -> 读取环境变量 -> 加载目录文件 -> 校验 -> 只读使用
 * @rules 环境变量缺省时使用默认值；目录文件不存在时使用内置目录，格式错误则启动失败
 * @dependencies gopkg.in/yaml.v3, github.com/spf13/cast
 * @refs service/reference/catalog.go, service/init.go
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"scrap-quality-service/service/reference"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config 服务配置
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Kafka     KafkaConfig     `json:"kafka" yaml:"kafka"`
	MQTT      MQTTConfig      `json:"mqtt" yaml:"mqtt"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Security  SecurityConfig  `json:"security" yaml:"security"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int    `json:"port" yaml:"port"`
	BaseContext string `json:"base_context" yaml:"base_context"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	URL      string `json:"url" yaml:"url"`
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Name     string `json:"name" yaml:"name"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode"`
	Schema   string `json:"schema" yaml:"schema"`
}

// RedisConfig Redis 配置，Host 为空表示不启用限流
type RedisConfig struct {
	Host               string `json:"host" yaml:"host"`
	Port               string `json:"port" yaml:"port"`
	Password           string `json:"password" yaml:"password"`
	DB                 int    `json:"db" yaml:"db"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// MQTTConfig MQTT 配置
type MQTTConfig struct {
	Broker   string `json:"broker" yaml:"broker"`
	ClientID string `json:"client_id" yaml:"client_id"`
	Topic    string `json:"topic" yaml:"topic"`
}

// SchedulerConfig 定时巡检配置
type SchedulerConfig struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	MismatchScanCron string `json:"mismatch_scan_cron" yaml:"mismatch_scan_cron"`
}

// SecurityConfig 管理员口令配置
type SecurityConfig struct {
	AdminKeyHash string `json:"-" yaml:"admin_key_hash"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// CatalogConfig 查找表目录配置
type CatalogConfig struct {
	Path string `json:"path" yaml:"path"`
}

// Load 从环境变量读取配置
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        cast.ToInt(GetEnvWithDefault("LISTEN_PORT", "80")),
			BaseContext: os.Getenv("BASE_CONTEXT"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     GetEnvWithDefault("DB_HOST", "localhost"),
			Port:     GetEnvWithDefault("DB_PORT", "5432"),
			User:     GetEnvWithDefault("DB_USER", "postgres"),
			Password: GetEnvWithDefault("DB_PASSWORD", "postgres"),
			Name:     GetEnvWithDefault("DB_NAME", "postgres"),
			SSLMode:  GetEnvWithDefault("DB_SSLMODE", "disable"),
			Schema:   GetEnvWithDefault("DB_SCHEMA", "public"),
		},
		Redis: RedisConfig{
			Host:               os.Getenv("REDIS_HOST"),
			Port:               GetEnvWithDefault("REDIS_PORT", "6379"),
			Password:           os.Getenv("REDIS_PASSWORD"),
			DB:                 cast.ToInt(GetEnvWithDefault("REDIS_DB", "0")),
			RateLimitPerMinute: cast.ToInt(GetEnvWithDefault("RATE_LIMIT_PER_MINUTE", "120")),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   GetEnvWithDefault("KAFKA_MISMATCH_TOPIC", "scrap.mismatches"),
		},
		MQTT: MQTTConfig{
			Broker:   os.Getenv("MQTT_BROKER"),
			ClientID: GetEnvWithDefault("MQTT_CLIENT_ID", "scrap-quality-service"),
			Topic:    GetEnvWithDefault("MQTT_MISMATCH_TOPIC", "scrap/mismatches"),
		},
		Scheduler: SchedulerConfig{
			Enabled:          cast.ToBool(GetEnvWithDefault("MISMATCH_SCAN_ENABLED", "true")),
			MismatchScanCron: GetEnvWithDefault("MISMATCH_SCAN_CRON", "0 0 6 * * *"),
		},
		Security: SecurityConfig{
			AdminKeyHash: os.Getenv("ADMIN_KEY_HASH"),
		},
		Logging: LoggingConfig{
			Level: GetEnvWithDefault("LOG_LEVEL", "debug"),
		},
		Catalog: CatalogConfig{
			Path: GetEnvWithDefault("CATALOG_PATH", "config/catalog.yaml"),
		},
	}
}

// DSN 构建 PostgreSQL 连接串，优先使用 DATABASE_URL
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Schema)
}

// Addr Redis 地址
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// LoadCatalog 加载查找表目录；文件不存在时返回内置目录
func LoadCatalog(path string) (*reference.Catalog, error) {
	catalog := reference.DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return catalog, nil
		}
		return nil, fmt.Errorf("读取目录文件失败: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog 在内置目录基础上覆盖 YAML 中给出的字段
func ParseCatalog(data []byte) (*reference.Catalog, error) {
	catalog := reference.DefaultCatalog()
	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("解析目录文件失败: %w", err)
	}
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

func validateCatalog(c *reference.Catalog) error {
	if c.TeamCount <= 0 {
		return fmt.Errorf("目录配置错误: team_count 必须大于0")
	}
	if len(c.Weekdays) != 7 {
		return fmt.Errorf("目录配置错误: weekdays 必须包含7天，实际 %d", len(c.Weekdays))
	}
	for _, name := range []int{reference.ShiftMorning, reference.ShiftAfternoon, reference.ShiftNight} {
		if c.ShiftName(name) == "" {
			return fmt.Errorf("目录配置错误: 缺少班次 %d 的名称", name)
		}
	}
	return nil
}

// GetEnvWithDefault 获取环境变量，如果不存在则返回默认值
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
