package models

import "gorm.io/gorm"

// Product represents a product in the store.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	SellerID    string  `json:"seller_id" gorm:"index;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`

	// Rating and ReviewCount are denormalized aggregates maintained by the
	// rating aggregator from approved reviews; never written directly.
	Rating      float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	ReviewCount int     `json:"review_count" validate:"gte=0"`

	gorm.Model // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
