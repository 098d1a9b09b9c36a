package util

import (
	"errors"
	"math"
	"net/http"

	"jsr_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response 统一响应结构
type Response struct {
	Status     string      `json:"status"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Pagination 分页信息
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(page, limit int, total int64) *Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return &Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Status: StatusSuccess,
		Data:   data,
	})
}

func SuccessWithMessage(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{
		Status:  StatusSuccess,
		Data:    data,
		Message: message,
	})
}

func Paginated(c *gin.Context, data interface{}, pagination *Pagination) {
	c.JSON(http.StatusOK, Response{
		Status:     StatusSuccess,
		Data:       data,
		Pagination: pagination,
	})
}

func Created(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, Response{
		Status:  StatusSuccess,
		Data:    data,
		Message: message,
	})
}

func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Status: StatusError,
		Error:  &ErrorBody{Message: message, Code: code},
	})
}

// Abort 中间件中使用，终止后续处理
func Abort(c *gin.Context, err *AppError) {
	c.AbortWithStatusJSON(err.Status, Response{
		Status: StatusError,
		Error:  &ErrorBody{Message: err.Message, Code: err.Code},
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "SERVER_ERROR", "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.Error(err),
		zap.String("path", c.FullPath()),
		zap.String("requestId", c.GetString(ContextRequestIDKey)),
	)
	InternalServerError(c)
}

// HandleError 将服务层错误映射为统一错误响应
func HandleError(c *gin.Context, err error) {
	if appErr, ok := AsAppError(err); ok {
		if appErr.Status >= http.StatusInternalServerError {
			LogInternalError(c, err)
			return
		}
		Error(c, appErr.Status, appErr.Code, appErr.Message)
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		Error(c, http.StatusNotFound, "NOT_FOUND", "Not found")
		return
	}
	LogInternalError(c, err)
}
