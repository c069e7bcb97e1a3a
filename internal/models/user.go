package models

import "time"

type Business struct {
	ID        int64     `json:"id" example:"1"`
	Name      string    `json:"name" example:"Acme Trading"`
	Currency  string    `json:"currency" example:"USD"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID           int64     `json:"id" example:"1"`
	BusinessID   int64     `json:"businessId" example:"1"`
	Name         string    `json:"name" example:"Jane Doe"`
	Email        string    `json:"email" example:"jane@example.com"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role" example:"owner"`
	CreatedAt    time.Time `json:"createdAt"`
}
