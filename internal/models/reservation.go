package models

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid"
	"gorm.io/gorm"
)

// ReservationStatus 预订状态
type ReservationStatus string

const (
	ReservationStatusConfirmed ReservationStatus = "confirmed" // 已确认
	ReservationStatusCancelled ReservationStatus = "cancelled" // 已取消
	ReservationStatusCompleted ReservationStatus = "completed" // 已完成
)

// 确认码字符集，去掉易混淆的 0/O/1/I
const confirmationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Reservation 餐桌预订记录
type Reservation struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt *time.Time `json:"-" gorm:"index"`

	ConfirmationCode string `json:"confirmationCode" gorm:"size:16;uniqueIndex;not null"`

	CustomerID uint     `json:"customerId" gorm:"index"`
	Customer   Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`

	Date            string            `json:"date" gorm:"size:10;index;not null"` // YYYY-MM-DD
	Time            string            `json:"time" gorm:"size:5;not null"`        // HH:MM
	PartySize       int               `json:"partySize" gorm:"not null"`
	SpecialRequests string            `json:"specialRequests,omitempty" gorm:"type:text"`
	Status          ReservationStatus `json:"status" gorm:"size:20;index;default:'confirmed'"`

	// 关联的来电
	CallID string `json:"callId,omitempty" gorm:"size:128;index"`
}

// TableName 指定表名
func (Reservation) TableName() string {
	return "reservations"
}

// CreateReservation 创建预订记录并生成确认码
func CreateReservation(db *gorm.DB, reservation *Reservation) error {
	if reservation.ConfirmationCode == "" {
		code, err := gonanoid.Generate(confirmationAlphabet, 8)
		if err != nil {
			return err
		}
		reservation.ConfirmationCode = code
	}
	if reservation.Status == "" {
		reservation.Status = ReservationStatusConfirmed
	}
	return db.Create(reservation).Error
}

// GetReservationByID 根据ID查询预订
func GetReservationByID(db *gorm.DB, id uint) (*Reservation, error) {
	var reservation Reservation
	err := db.Where("id = ?", id).First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetReservationByCode 根据确认码查询预订
func GetReservationByCode(db *gorm.DB, code string) (*Reservation, error) {
	var reservation Reservation
	err := db.Where("confirmation_code = ?", code).First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// UpdateReservationFields 按字段补丁更新预订，未提供的字段保持不变
func UpdateReservationFields(db *gorm.DB, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return db.Model(&Reservation{}).Where("id = ?", id).Updates(fields).Error
}

// CancelReservation 取消预订
func CancelReservation(db *gorm.DB, id uint) error {
	return db.Model(&Reservation{}).Where("id = ?", id).
		Update("status", ReservationStatusCancelled).Error
}

// GetCustomerReservations 查询顾客的有效预订，按日期时间排序
func GetCustomerReservations(db *gorm.DB, customerID uint, limit int) ([]Reservation, error) {
	var reservations []Reservation
	query := db.Where("customer_id = ? AND status = ?", customerID, ReservationStatusConfirmed).
		Order("date ASC, time ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&reservations).Error
	return reservations, err
}

// GetUpcomingReservations 查询顾客指定日期之后（含当日）的有效预订
func GetUpcomingReservations(db *gorm.DB, customerID uint, fromDate string, limit int) ([]Reservation, error) {
	var reservations []Reservation
	query := db.Where("customer_id = ? AND status = ? AND date >= ?",
		customerID, ReservationStatusConfirmed, fromDate).
		Order("date ASC, time ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&reservations).Error
	return reservations, err
}

// GetReservationsByDate 查询指定日期的全部有效预订，按时间排序
func GetReservationsByDate(db *gorm.DB, date string) ([]Reservation, error) {
	var reservations []Reservation
	err := db.Where("date = ? AND status = ?", date, ReservationStatusConfirmed).
		Order("time ASC").
		Find(&reservations).Error
	return reservations, err
}

// CountReservationsInWindow 统计指定日期内 [fromTime, toTime] 时间窗内的有效预订数
// 时间为零填充的 HH:MM 字符串，可直接按字典序比较
func CountReservationsInWindow(db *gorm.DB, date, fromTime, toTime string) (int64, error) {
	var count int64
	err := db.Model(&Reservation{}).
		Where("date = ? AND status = ? AND time >= ? AND time <= ?",
			date, ReservationStatusConfirmed, fromTime, toTime).
		Count(&count).Error
	return count, err
}
