// Package errs 定义领域错误哨兵及其到 HTTP 状态码的映射.
//
// 业务层以 fmt.Errorf("%w: ...", errs.ErrNotFound) 包装，handler 通过 HTTPStatus 统一翻译.
package errs

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound 目标不存在或已被软删除.
	ErrNotFound = errors.New("not found")
	// ErrConflict 同一父目录下存在同名文件夹.
	ErrConflict = errors.New("conflict")
	// ErrLocked 存储配置已锁定.
	ErrLocked = errors.New("storage configuration is locked")
	// ErrProvider 存储提供商拒绝或不可达.
	ErrProvider = errors.New("storage provider error")
	// ErrDecryption 凭据密文被篡改或密钥不匹配.
	ErrDecryption = errors.New("failed to decrypt credentials")
	// ErrCircularReference 文件夹父链出现环.
	ErrCircularReference = errors.New("circular folder reference")
	// ErrValidation 请求参数不合法.
	ErrValidation = errors.New("validation failed")
)

// InternalMessage 内部错误对外展示的统一文案.
const InternalMessage = "internal server error"

// HTTPStatus 把错误映射为 HTTP 状态码，未知错误为 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrLocked):
		return http.StatusLocked
	case errors.Is(err, ErrProvider), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage 返回可以直接返回给客户端的错误信息，内部错误不泄露细节.
func PublicMessage(err error) string {
	if HTTPStatus(err) >= http.StatusInternalServerError {
		return InternalMessage
	}

	return err.Error()
}
