package synthesizer

import (
	"context"
	"regexp"
	"strings"
)

// Service 语音合成服务接口
// 输入经过清洗的纯文本，返回可直接下发的音频数据
type Service interface {
	// Synthesize 合成一段语音，返回音频字节
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// Close 释放底层连接
	Close() error
}

var emojiRegex = regexp.MustCompile(`[\x{00A9}\x{00AE}\x{203C}\x{2049}\x{2122}\x{2139}\x{2194}-\x{2199}\x{21A9}-\x{21AA}\x{231A}-\x{231B}\x{2328}\x{23CF}\x{23E9}-\x{23F3}\x{23F8}-\x{23FA}\x{24C2}\x{25AA}-\x{25AB}\x{25B6}\x{25C0}\x{25FB}-\x{25FE}\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{2B05}-\x{2B07}\x{2B1B}-\x{2B1C}\x{2B50}\x{2B55}\x{3030}\x{303D}\x{3297}\x{3299}\x{1F004}\x{1F0CF}\x{1F170}-\x{1F251}\x{1F300}-\x{1F5FF}\x{1F600}-\x{1F64F}\x{1F680}-\x{1F6FF}\x{1F910}-\x{1F93E}\x{1F940}-\x{1F94C}\x{1F950}-\x{1F96B}\x{1F980}-\x{1F997}\x{1F9C0}-\x{1F9E6}\x{1FA70}-\x{1FA74}\x{1FA78}-\x{1FA7A}\x{1FA80}-\x{1FA86}\x{1FA90}-\x{1FAA8}\x{1FAB0}-\x{1FAB6}\x{1FAC0}-\x{1FAC2}\x{1FAD0}-\x{1FAD6}\x{1F1E6}-\x{1F1FF}\x{200D}\x{FE0F}]`)

// markupRegex 匹配Markdown标记字符
var markupRegex = regexp.MustCompile("[*_#`~>]+")

// spaceRegex 匹配连续空白
var spaceRegex = regexp.MustCompile(`\s+`)

// SanitizeText 清洗待合成文本：去掉Markdown标记和表情符号，折叠空白
// 推理引擎的输出会被朗读，任何标记字符都会被TTS念出来
func SanitizeText(text string) string {
	text = emojiRegex.ReplaceAllString(text, "")
	text = markupRegex.ReplaceAllString(text, "")
	text = spaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
