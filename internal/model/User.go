package model

type User struct {
	BaseModel
	Email          string `gorm:"unique;not null;type:citext" json:"email" form:"email" binding:"required"`
	FirstName      string `gorm:"type:varchar(30);not null;" json:"firstName" form:"firstName" binding:"required"`
	LastName       string `gorm:"type:varchar(30);not null;" json:"lastName" form:"lastName" binding:"required"`
	ProfileURL     string `gorm:"type:text;default:null" json:"profileURL" form:"profileURL"`
	OrganizationID string `gorm:"type:text;not null;index" json:"organizationId" form:"organizationId"`

	DepartmentID *string     `gorm:"type:text" json:"departmentId" form:"departmentId"`
	Department   *Department `gorm:"constraint:OnDelete:SET NULL" json:"department,omitempty"`
	RoleID       *string     `gorm:"type:text" json:"roleId" form:"roleId"`
	Role         *Role       `gorm:"constraint:OnDelete:SET NULL" json:"role,omitempty"`
}

func (u User) TableName() string {
	return "users"
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
