package models

type Job struct {
	BaseModel
	CustomerID   string    `gorm:"type:uuid;not null;index"`
	CustomerName string    `gorm:"not null"`
	ProjectType  string    `gorm:"not null"`
	Description  string    `gorm:"not null"`
	BudgetRange  string
	Timeline     string
	City         string
	Community    string
	Address      string
	Status       JobStatus `gorm:"type:varchar(15);not null;default:'open'"`
}
