package config

import (
	"log"
	"os"
	"time"

	"github.com/code-100-precent/TableEcho/pkg/cache"
	"github.com/code-100-precent/TableEcho/pkg/logger"
	"github.com/code-100-precent/TableEcho/pkg/utils"
)

// Config System CommonConfig
type Config struct {
	ServerName string `env:"SERVER_NAME"`
	Addr       string `env:"ADDR"`
	Mode       string `env:"MODE"`
	APIPrefix  string `env:"API_PREFIX"`

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	Log logger.LogConfig

	// LLM配置
	LLMApiKey  string `env:"LLM_API_KEY"`
	LLMBaseURL string `env:"LLM_BASE_URL"`
	LLMModel   string `env:"LLM_MODEL"`

	// TTS配置
	TTSBaseURL string `env:"TTS_BASE_URL"`
	TTSApiKey  string `env:"TTS_API_KEY"`
	TTSVoice   string `env:"TTS_VOICE"`

	// 餐厅业务配置
	BusinessName  string `env:"BUSINESS_NAME"`
	OpeningHour   int    `env:"OPENING_HOUR"`   // 营业开始（小时，24h制）
	ClosingHour   int    `env:"CLOSING_HOUR"`   // 营业结束（小时，24h制）
	MaxPartySize  int    `env:"MAX_PARTY_SIZE"` // 单桌最大人数
	TransferPhone string `env:"TRANSFER_PHONE"` // 人工座席号码

	// 会话配置
	SessionTTL         time.Duration `env:"SESSION_TTL"`
	MinFinalConfidence float64       `env:"MIN_FINAL_CONFIDENCE"` // 最终识别结果置信度下限
	Cache              cache.Config
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件（如果不存在也不报错，使用默认值）
	env := os.Getenv("APP_ENV")
	err := utils.LoadEnv(env)
	if err != nil {
		// .env文件不存在时只记录日志，不影响启动
		log.Printf("Note: .env file not found or failed to load: %v (using default values)", err)
	}

	// 2. 加载全局配置（所有配置都有默认值，确保无.env文件也能启动）
	GlobalConfig = &Config{
		ServerName: getStringOrDefault("SERVER_NAME", "TableEcho"),
		Addr:       getStringOrDefault("ADDR", ":7073"),
		Mode:       getStringOrDefault("MODE", "development"),
		APIPrefix:  getStringOrDefault("API_PREFIX", "/api"),
		DBDriver:   getStringOrDefault("DB_DRIVER", "sqlite"),
		DSN:        getStringOrDefault("DSN", "./tableecho.db"),
		Log: logger.LogConfig{
			Level:      getStringOrDefault("LOG_LEVEL", "info"),
			Filename:   getStringOrDefault("LOG_FILENAME", "./logs/app.log"),
			MaxSize:    getIntOrDefault("LOG_MAX_SIZE", 100),
			MaxAge:     getIntOrDefault("LOG_MAX_AGE", 30),
			MaxBackups: getIntOrDefault("LOG_MAX_BACKUPS", 5),
			Daily:      getBoolOrDefault("LOG_DAILY", true),
		},
		LLMApiKey:  getStringOrDefault("LLM_API_KEY", ""),
		LLMBaseURL: getStringOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:   getStringOrDefault("LLM_MODEL", "gpt-4o-mini"),

		TTSBaseURL: getStringOrDefault("TTS_BASE_URL", ""),
		TTSApiKey:  getStringOrDefault("TTS_API_KEY", ""),
		TTSVoice:   getStringOrDefault("TTS_VOICE", "alloy"),

		BusinessName:  getStringOrDefault("BUSINESS_NAME", "Bella Vista"),
		OpeningHour:   getIntOrDefault("OPENING_HOUR", 11),
		ClosingHour:   getIntOrDefault("CLOSING_HOUR", 22),
		MaxPartySize:  getIntOrDefault("MAX_PARTY_SIZE", 12),
		TransferPhone: getStringOrDefault("TRANSFER_PHONE", ""),

		SessionTTL:         parseDurationOrDefault("SESSION_TTL", time.Hour),
		MinFinalConfidence: parseFloatOrDefault("MIN_FINAL_CONFIDENCE", 0.4),
		Cache:              loadCacheConfig(),
	}
	return nil
}

// getStringOrDefault 获取环境变量值，如果为空则返回默认值
func getStringOrDefault(key, defaultValue string) string {
	value := utils.GetEnv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getBoolOrDefault 获取布尔环境变量值，如果为空则返回默认值
func getBoolOrDefault(key string, defaultValue bool) bool {
	value := utils.GetEnv(key)
	if value == "" {
		return defaultValue
	}
	return utils.GetBoolEnv(key)
}

// getIntOrDefault 获取整数环境变量值，如果为空则返回默认值
func getIntOrDefault(key string, defaultValue int) int {
	value := utils.GetIntEnv(key)
	if value == 0 {
		return defaultValue
	}
	return int(value)
}

// parseDurationOrDefault 解析时间环境变量，解析失败返回默认值
func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := utils.GetEnv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// parseFloatOrDefault 解析浮点环境变量，如果为空则返回默认值
func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if utils.GetEnv(key) == "" {
		return defaultValue
	}
	return utils.GetFloatEnv(key)
}

// loadCacheConfig 加载缓存配置，设置所有默认值
func loadCacheConfig() cache.Config {
	cacheType := utils.GetEnv("CACHE_TYPE")
	if cacheType == "" {
		cacheType = "local"
	}

	parseDuration := func(s string, defaultVal time.Duration) time.Duration {
		if s == "" {
			return defaultVal
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return defaultVal
		}
		return d
	}

	redisAddr := utils.GetEnv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisPoolSize := int(utils.GetIntEnv("REDIS_POOL_SIZE"))
	if redisPoolSize == 0 {
		redisPoolSize = 10
	}

	redisMinIdleConns := int(utils.GetIntEnv("REDIS_MIN_IDLE_CONNS"))
	if redisMinIdleConns == 0 {
		redisMinIdleConns = 5
	}

	localMaxSize := int(utils.GetIntEnv("LOCAL_CACHE_MAX_SIZE"))
	if localMaxSize == 0 {
		localMaxSize = 1000
	}

	return cache.Config{
		Type: cacheType,
		Redis: cache.RedisConfig{
			Addr:         redisAddr,
			Password:     utils.GetEnv("REDIS_PASSWORD"),
			DB:           int(utils.GetIntEnv("REDIS_DB")),
			PoolSize:     redisPoolSize,
			MinIdleConns: redisMinIdleConns,
			DialTimeout:  parseDuration(utils.GetEnv("REDIS_DIAL_TIMEOUT"), 5*time.Second),
			ReadTimeout:  parseDuration(utils.GetEnv("REDIS_READ_TIMEOUT"), 3*time.Second),
			WriteTimeout: parseDuration(utils.GetEnv("REDIS_WRITE_TIMEOUT"), 3*time.Second),
		},
		Local: cache.LocalConfig{
			MaxSize:           localMaxSize,
			DefaultExpiration: parseDuration(utils.GetEnv("LOCAL_CACHE_DEFAULT_EXPIRATION"), 5*time.Minute),
			CleanupInterval:   parseDuration(utils.GetEnv("LOCAL_CACHE_CLEANUP_INTERVAL"), 10*time.Minute),
		},
	}
}
