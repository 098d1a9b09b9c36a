package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 文件上传相关常量
const (
	MimeImage = "image/"
)

var (
	AllowedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}
)

// Context keys
const (
	ContextPrincipalKey = "principal"
	ContextRequestIDKey = "requestId"
)

const HeaderRequestID = "X-Request-ID"
