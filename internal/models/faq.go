package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// FAQEntry 常见问题条目
type FAQEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Question string `json:"question" gorm:"size:500;not null"`
	Answer   string `json:"answer" gorm:"type:text;not null"`
	Keywords string `json:"keywords,omitempty" gorm:"size:500"` // 逗号分隔的关键词
	Enabled  bool   `json:"enabled" gorm:"default:true"`
}

// TableName 指定表名
func (FAQEntry) TableName() string {
	return "faq_entries"
}

// CreateFAQEntry 创建FAQ条目
func CreateFAQEntry(db *gorm.DB, entry *FAQEntry) error {
	return db.Create(entry).Error
}

// SearchFAQ 检索最匹配的FAQ条目，无匹配时返回 nil（不是错误）
// 按命中关键词数量打分，取最高分
func SearchFAQ(db *gorm.DB, question string) (*FAQEntry, error) {
	var entries []FAQEntry
	if err := db.Where("enabled = ?", true).Find(&entries).Error; err != nil {
		return nil, err
	}

	normalized := strings.ToLower(question)
	var best *FAQEntry
	bestScore := 0

	for i := range entries {
		score := faqScore(&entries[i], normalized)
		if score > bestScore {
			bestScore = score
			best = &entries[i]
		}
	}

	return best, nil
}

// faqScore 计算问题与FAQ条目的匹配分
func faqScore(entry *FAQEntry, normalizedQuestion string) int {
	score := 0
	for _, keyword := range strings.Split(entry.Keywords, ",") {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(normalizedQuestion, keyword) {
			score++
		}
	}
	return score
}
