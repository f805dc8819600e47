package models

import (
	"time"

	"gorm.io/gorm"
)

// CallStatus 通话状态
type CallStatus string

const (
	CallStatusInProgress  CallStatus = "in-progress" // 进行中
	CallStatusCompleted   CallStatus = "completed"   // 已结束
	CallStatusTransferred CallStatus = "transferred" // 已转人工
	CallStatusFailed      CallStatus = "failed"      // 异常结束
)

// CallRecord 通话记录，随通话开始创建、随通话结束补全
type CallRecord struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt *time.Time `json:"-" gorm:"index"`

	CallID      string     `json:"callId" gorm:"size:128;uniqueIndex;not null"`
	CallerPhone string     `json:"callerPhone,omitempty" gorm:"size:64;index"`
	CustomerID  *uint      `json:"customerId,omitempty" gorm:"index"`
	Customer    Customer   `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Status      CallStatus `json:"status" gorm:"size:20;index"`

	StartedAt   time.Time  `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
	DurationSec int        `json:"durationSec" gorm:"default:0"`
	EndReason   string     `json:"endReason,omitempty" gorm:"size:200"`

	// 结束后的分析结果
	Transcript string `json:"transcript,omitempty" gorm:"type:text"`
	Summary    string `json:"summary,omitempty" gorm:"type:text"`
	Intent     string `json:"intent,omitempty" gorm:"size:100"`
	Sentiment  string `json:"sentiment,omitempty" gorm:"size:50"`

	// 转人工信息
	TransferReason string `json:"transferReason,omitempty" gorm:"size:500"`
	TransferNotes  string `json:"transferNotes,omitempty" gorm:"type:text"`

	// 本次通话产生的预订
	ReservationID *uint `json:"reservationId,omitempty" gorm:"index"`
}

// TableName 指定表名
func (CallRecord) TableName() string {
	return "call_records"
}

// CreateCallRecord 创建通话记录
func CreateCallRecord(db *gorm.DB, record *CallRecord) error {
	if record.Status == "" {
		record.Status = CallStatusInProgress
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = time.Now()
	}
	return db.Create(record).Error
}

// GetCallRecordByCallID 根据CallID查询通话记录
func GetCallRecordByCallID(db *gorm.DB, callID string) (*CallRecord, error) {
	var record CallRecord
	err := db.Where("call_id = ?", callID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// LinkReservationToCall 将预订关联到通话记录
func LinkReservationToCall(db *gorm.DB, callID string, reservationID uint) error {
	return db.Model(&CallRecord{}).Where("call_id = ?", callID).
		Update("reservation_id", reservationID).Error
}

// SetCallTransfer 记录转人工原因
func SetCallTransfer(db *gorm.DB, callID, reason, notes string) error {
	return db.Model(&CallRecord{}).Where("call_id = ?", callID).
		Updates(map[string]interface{}{
			"transfer_reason": reason,
			"transfer_notes":  notes,
		}).Error
}

// CallCompletion 通话结束时的补全内容
type CallCompletion struct {
	Status      CallStatus
	DurationSec int
	EndReason   string
	Transcript  string
	Summary     string
	Intent      string
	Sentiment   string
}

// CompleteCallRecord 补全通话记录，只对未结束的记录生效
// 重复调用不会覆盖已写入的时长和分析结果，返回值表示本次是否真正写入
func CompleteCallRecord(db *gorm.DB, callID string, completion CallCompletion) (bool, error) {
	now := time.Now()
	result := db.Model(&CallRecord{}).
		Where("call_id = ? AND ended_at IS NULL", callID).
		Updates(map[string]interface{}{
			"status":       completion.Status,
			"ended_at":     &now,
			"duration_sec": completion.DurationSec,
			"end_reason":   completion.EndReason,
			"transcript":   completion.Transcript,
			"summary":      completion.Summary,
			"intent":       completion.Intent,
			"sentiment":    completion.Sentiment,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetRecentCallRecords 查询最近的通话记录
func GetRecentCallRecords(db *gorm.DB, limit int) ([]CallRecord, error) {
	var records []CallRecord
	query := db.Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}
