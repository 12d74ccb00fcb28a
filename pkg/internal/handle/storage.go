package handle

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/types"
	"github.com/yeisme/docvault/pkg/middleware"
)

// HeaderUser 上游网关注入的操作者标识，用于记录解锁人.
const HeaderUser = "X-User"

// ConfigureStorage 测试连接后保存并锁定存储配置.
//
//	@Router	/api/storage/configure [post]
func (h *Handlers) ConfigureStorage(c *gin.Context) {
	var req types.StorageConfigureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.storage.Configure(c.Request.Context(), req.Provider, req.Credentials)
	if err != nil {
		fail(c, "storage.configure", err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// TestStorage 测试连接. 请求体可省略，此时测试已保存的配置.
// 测试未通过返回 400，响应体仍是完整的诊断结果.
//
//	@Router	/api/storage/test [post]
func (h *Handlers) TestStorage(c *gin.Context) {
	var req types.StorageTestRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.storage.Test(c.Request.Context(), &req)
	if err != nil {
		fail(c, "storage.test", err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}

	c.JSON(status, result)
}

// StorageStatus 返回配置状态.
//
//	@Router	/api/storage/status [get]
func (h *Handlers) StorageStatus(c *gin.Context) {
	st, err := h.storage.Status(c.Request.Context())
	if err != nil {
		fail(c, "storage.status", err)
		return
	}

	c.JSON(http.StatusOK, st)
}

// RemoveStorageLock 解除配置锁，需要 admin API Key.
// 解锁人依次取 X-User、网关认证身份、角色名.
//
//	@Router	/api/storage/lock [delete]
func (h *Handlers) RemoveStorageLock(c *gin.Context) {
	by := strings.TrimSpace(c.GetHeader(HeaderUser))
	if by == "" {
		by = middleware.GetPrincipal(c)
	}

	if by == "" {
		by = middleware.GetRole(c).String()
	}

	if err := h.storage.RemoveLock(c.Request.Context(), by); err != nil {
		fail(c, "storage.unlock", err)
		return
	}

	c.JSON(http.StatusOK, types.RemoveLockResponse{
		Success: true,
		Message: "Storage configuration unlocked",
	})
}
