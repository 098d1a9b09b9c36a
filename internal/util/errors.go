package util

import (
	"errors"
	"net/http"
)

// AppError 带 HTTP 状态码和稳定错误码的业务错误
type AppError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func BadRequestError(code, message string) *AppError {
	return NewAppError(http.StatusBadRequest, code, message)
}

func NotFoundError(code, message string) *AppError {
	return NewAppError(http.StatusNotFound, code, message)
}

func ConflictError(code, message string) *AppError {
	return NewAppError(http.StatusConflict, code, message)
}

// InternalError 包装未预期的底层错误，对外只暴露通用信息
func InternalError(err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: "SERVER_ERROR", Message: "Internal server error", Err: err}
}

// AsAppError 从错误链中取出 AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// 认证相关
var (
	ErrNotAuthenticated   = NewAppError(http.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated. Please log in.")
	ErrInvalidToken       = NewAppError(http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token. Please log in again.")
	ErrInvalidCredentials = NewAppError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrNotAuthorized      = NewAppError(http.StatusForbidden, "NOT_AUTHORIZED", "Not authorized. Admin access required.")
	ErrUserNotFound       = NotFoundError("USER_NOT_FOUND", "User not found")
	ErrEmailRegistered    = ConflictError("EMAIL_REGISTERED", "Email is already registered")
)

// ErrUnlinkedIdentity 外部令牌有效但没有关联的本地用户
var ErrUnlinkedIdentity = NewAppError(http.StatusUnauthorized, "USER_NOT_FOUND", "No local user is linked to this identity. Please sync your account.")

// 资源相关
var (
	ErrResourceNotFound   = NotFoundError("RESOURCE_NOT_FOUND", "Resource not found")
	ErrMissingFields      = BadRequestError("MISSING_FIELDS", "Please provide all required fields")
	ErrInvalidURL         = BadRequestError("INVALID_URL", "Please provide a valid http(s) URL")
	ErrInvalidPrice       = BadRequestError("INVALID_PRICE", "Paid resources must have a price greater than 0")
	ErrInvalidStatus      = BadRequestError("INVALID_STATUS", "Status must be one of: pending, approved, rejected")
	ErrInvalidPricingType = BadRequestError("INVALID_PRICING_TYPE", "Pricing type must be one of: free, paid")
	ErrInvalidDifficulty  = BadRequestError("INVALID_DIFFICULTY", "Difficulty must be one of: beginner, intermediate, advanced")
	ErrInvalidID          = BadRequestError("INVALID_ID", "Invalid identifier")
	ErrInvalidPagination  = BadRequestError("INVALID_PAGINATION", "page and limit must be positive integers")
	ErrTooManyTags        = BadRequestError("TOO_MANY_TAGS", "A resource can have at most 10 tags")
	ErrFieldTooLong       = BadRequestError("FIELD_TOO_LONG", "One or more fields exceed the maximum length")
	ErrInvalidImage       = BadRequestError("INVALID_IMAGE", "Please upload a valid image file")
	ErrInvalidCategory    = BadRequestError("INVALID_CATEGORY", "Category does not exist")
	ErrInvalidType        = BadRequestError("INVALID_TYPE", "Resource type does not exist")
)

// 投票与互动
var (
	ErrInvalidVoteType   = BadRequestError("INVALID_VOTE_TYPE", "Vote value must be one of: up, down, none")
	ErrNoVoteToRemove    = BadRequestError("NO_VOTE_TO_REMOVE", "You have not voted on this resource")
	ErrVoteConflict      = ConflictError("VOTE_CONFLICT", "Another vote for this resource is in progress, please retry")
	ErrMissingIDs        = BadRequestError("MISSING_IDS", "Please provide a non-empty list of resource ids")
	ErrTooManyIDs        = BadRequestError("TOO_MANY_IDS", "Too many resource ids in one request")
	ErrAlreadyBookmarked = BadRequestError("ALREADY_BOOKMARKED", "Resource already bookmarked")
	ErrBookmarkNotFound  = NotFoundError("BOOKMARK_NOT_FOUND", "Bookmark not found")
	ErrMissingContent    = BadRequestError("MISSING_CONTENT", "Comment content is required")
	ErrContentTooLong    = BadRequestError("CONTENT_TOO_LONG", "Comment content is too long")
)

// 分类与类型
var (
	ErrCategoryNotFound  = NotFoundError("CATEGORY_NOT_FOUND", "Category not found")
	ErrDuplicateCategory = ConflictError("DUPLICATE_CATEGORY", "A category with this name already exists")
	ErrCategoryInUse     = ConflictError("CATEGORY_IN_USE", "Category is still referenced by resources")
	ErrTypeNotFound      = NotFoundError("TYPE_NOT_FOUND", "Resource type not found")
	ErrDuplicateType     = ConflictError("DUPLICATE_TYPE", "A resource type with this name already exists")
	ErrTypeInUse         = ConflictError("TYPE_IN_USE", "Resource type is still referenced by resources")
)
