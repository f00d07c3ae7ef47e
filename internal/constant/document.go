package constant

type StorageProvider string

const (
	StorageProviderSharePoint  StorageProvider = "sharepoint"
	StorageProviderObjectStore StorageProvider = "object_store"
)

type VersionType string

const (
	VersionTypeMinor VersionType = "minor"
	VersionTypeMajor VersionType = "major"
)

const InitialDocumentVersion = "1.0"

type DocumentAction string

const (
	DocumentActionUploaded        DocumentAction = "uploaded"
	DocumentActionVersionUploaded DocumentAction = "version_uploaded"
	DocumentActionUpdated         DocumentAction = "updated"
)
