package model

// OrgSharePointConfig is the Azure AD app registration of an organization.
// ClientSecret holds the sealed secret, never the plain text.
type OrgSharePointConfig struct {
	BaseModel
	OrganizationID  string `gorm:"type:text;not null;uniqueIndex" json:"organizationId"`
	TenantID        string `gorm:"type:text;not null" json:"tenantId"`
	ClientID        string `gorm:"type:text;not null" json:"clientId"`
	ClientSecret    string `gorm:"type:text;not null" json:"-"`
	DocumentLibrary string `gorm:"type:text;not null;default:'Documents'" json:"documentLibrary"`
}

func (c OrgSharePointConfig) TableName() string {
	return "sharepoint_configs"
}

// ProjectSharePointConfig is one upload destination of a project.
type ProjectSharePointConfig struct {
	BaseModel
	ProjectID             string `gorm:"type:text;not null;index" json:"projectId"`
	Name                  string `gorm:"type:varchar(100);not null" json:"name"`
	SiteURL               string `gorm:"type:text;not null" json:"siteUrl"`
	DocumentLibrary       string `gorm:"type:text;not null" json:"documentLibrary"`
	FolderPath            string `gorm:"type:text" json:"folderPath"`
	ExcelSheetPath        string `gorm:"type:text" json:"excelSheetPath"`
	IsExcelLoggingEnabled bool   `gorm:"type:boolean;not null" json:"isExcelLoggingEnabled"`
	IsEnabled             bool   `gorm:"type:boolean;not null" json:"isEnabled"`
	// Position keeps destinations in configuration order.
	Position int `gorm:"not null;default:0" json:"position"`

	Project Project `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (c ProjectSharePointConfig) TableName() string {
	return "project_sharepoint_configs"
}
