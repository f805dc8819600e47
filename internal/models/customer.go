package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer 顾客档案，以来电号码为主索引
type Customer struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt *time.Time `json:"-" gorm:"index"`

	Phone string `json:"phone" gorm:"size:64;uniqueIndex;not null"` // 来电号码
	Name  string `json:"name,omitempty" gorm:"size:128"`

	// 统计信息
	ReservationCount int        `json:"reservationCount" gorm:"default:0"` // 累计预订次数
	LastCallAt       *time.Time `json:"lastCallAt,omitempty"`              // 最近来电时间

	Notes string `json:"notes,omitempty" gorm:"type:text"`
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// GetCustomerByPhone 根据来电号码查询顾客，不存在时返回 gorm.ErrRecordNotFound
func GetCustomerByPhone(db *gorm.DB, phone string) (*Customer, error) {
	var customer Customer
	err := db.Where("phone = ?", phone).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetOrCreateCustomer 查询顾客，不存在时按号码建档
func GetOrCreateCustomer(db *gorm.DB, phone string) (*Customer, error) {
	customer, err := GetCustomerByPhone(db, phone)
	if err == nil {
		return customer, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	customer = &Customer{Phone: phone}
	if err := db.Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// UpdateCustomerName 更新顾客姓名
func UpdateCustomerName(db *gorm.DB, customerID uint, name string) error {
	return db.Model(&Customer{}).Where("id = ?", customerID).
		Update("name", name).Error
}

// TouchCustomerLastCall 更新顾客最近来电时间
func TouchCustomerLastCall(db *gorm.DB, customerID uint, at time.Time) error {
	return db.Model(&Customer{}).Where("id = ?", customerID).
		Update("last_call_at", at).Error
}

// IncrementReservationCount 累加顾客预订次数
func IncrementReservationCount(db *gorm.DB, customerID uint) error {
	return db.Model(&Customer{}).Where("id = ?", customerID).
		UpdateColumn("reservation_count", gorm.Expr("reservation_count + 1")).Error
}
