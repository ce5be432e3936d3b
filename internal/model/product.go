package model

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品基础信息；秒杀价与秒杀库存挂在 Activity 上，不在这里。
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"size:128;not null" json:"name"`
	Description string `gorm:"size:512" json:"description"`
	Price       int64  `gorm:"not null" json:"price"` // 原价，单位分
}

func (Product) TableName() string { return "products" }
