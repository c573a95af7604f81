package model

// Supplier is reference data; every product links to exactly one supplier.
type Supplier struct {
	BaseModel
	Name    string  `gorm:"type:varchar(255);not null" json:"name"`
	Email   *string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone   *string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Address *string `gorm:"type:varchar(255)" json:"address,omitempty"`
}
