package utils

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// LoadEnv 按环境加载 .env 文件，优先加载 .env.<env>，回退到 .env
func LoadEnv(env string) error {
	if env != "" {
		name := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(name); err == nil {
			return godotenv.Load(name)
		}
	}
	return godotenv.Load()
}

// GetEnv 获取环境变量字符串值
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetIntEnv 获取整数环境变量值，解析失败返回 0
func GetIntEnv(key string) int64 {
	return cast.ToInt64(os.Getenv(key))
}

// GetBoolEnv 获取布尔环境变量值
func GetBoolEnv(key string) bool {
	return cast.ToBool(os.Getenv(key))
}

// GetFloatEnv 获取浮点环境变量值，解析失败返回 0
func GetFloatEnv(key string) float64 {
	return cast.ToFloat64(os.Getenv(key))
}

const randChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandText 生成指定长度的随机字符串
func RandText(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = randChars[int(b)%len(randChars)]
	}
	return string(buf)
}
