package constant

type Permission string

const (
	PermissionDocumentRead    Permission = "documents:read"
	PermissionDocumentUpload  Permission = "documents:upload"
	PermissionDocumentUpdate  Permission = "documents:update"
	PermissionProjectManage   Permission = "projects:manage"
	PermissionSharePointAdmin Permission = "sharepoint:admin"
	PermissionUserAdmin       Permission = "users:admin"
)

var AllPermissions = []Permission{
	PermissionDocumentRead,
	PermissionDocumentUpload,
	PermissionDocumentUpdate,
	PermissionProjectManage,
	PermissionSharePointAdmin,
	PermissionUserAdmin,
}
