package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotConfigured TTS服务未配置地址
var ErrNotConfigured = errors.New("synthesizer: base url not configured")

const speechPath = "/v1/audio/speech"

// HTTPConfig HTTP TTS服务配置，兼容OpenAI speech接口
type HTTPConfig struct {
	BaseURL string  `json:"base_url"`
	APIKey  string  `json:"api_key"`
	Model   string  `json:"model"`
	Voice   string  `json:"voice"`
	Speed   float64 `json:"speed"`
	Timeout int     `json:"timeout"` // 秒
}

// speechRequest speech接口请求体
type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format,omitempty"`
	Speed          float64 `json:"speed,omitempty"`
}

// HTTPService 基于HTTP接口的语音合成实现
type HTTPService struct {
	opt    HTTPConfig
	client *resty.Client
}

// NewHTTPService 创建HTTP TTS服务，填充默认参数
func NewHTTPService(opt HTTPConfig) *HTTPService {
	if opt.Model == "" {
		opt.Model = "tts-1"
	}
	if opt.Voice == "" {
		opt.Voice = "alloy"
	}
	if opt.Speed == 0 {
		opt.Speed = 1.0
	}
	if opt.Timeout == 0 {
		opt.Timeout = 30
	}

	client := resty.New().
		SetBaseURL(opt.BaseURL).
		SetTimeout(time.Duration(opt.Timeout) * time.Second)
	if opt.APIKey != "" {
		client.SetAuthToken(opt.APIKey)
	}

	return &HTTPService{opt: opt, client: client}
}

// Synthesize 清洗文本后调用speech接口，返回音频字节
func (s *HTTPService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.opt.BaseURL == "" {
		return nil, ErrNotConfigured
	}

	text = SanitizeText(text)
	if text == "" {
		return nil, errors.New("synthesizer: empty text after sanitize")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(speechRequest{
			Model: s.opt.Model,
			Input: text,
			Voice: s.opt.Voice,
			Speed: s.opt.Speed,
		}).
		Post(speechPath)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("synthesizer: upstream status %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

// Close 关闭服务
func (s *HTTPService) Close() error {
	return nil
}
