package entity

import (
	"time"
)

// User 登录用户，仅用于认证，与合同无外键关联
type User struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username   string    `json:"username" gorm:"size:50;not null;uniqueIndex"`
	Password   string    `json:"-" gorm:"size:255;not null"`
	Realname   string    `json:"realname" gorm:"size:100"`
	Department string    `json:"department" gorm:"size:50"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_date"`
}

func (User) TableName() string {
	return "users"
}
