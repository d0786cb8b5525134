package models

// Counter is a named atomic sequence backing order and invoice numbering.
// Incrementing the row instead of counting documents keeps numbers unique
// under concurrent creators.
type Counter struct {
	Name  string `gorm:"primaryKey;type:varchar(64)"`
	Value int64  `gorm:"not null;default:0"`
}
