package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/types"
)

// PresignedUpload 签发上传 URL 并记录待上传的文件.
//
//	@Summary	申请上传 URL
//	@Tags		文件管理
//	@Accept		json
//	@Produce	json
//	@Param		req	body		types.PresignedUploadRequest	true	"文件信息"
//	@Success	201	{object}	types.PresignedUploadResponse
//	@Failure	404	{object}	types.ErrorResponse	"未配置存储或目标文件夹不存在"
//	@Router		/api/files/presigned-url [post]
func (h *Handlers) PresignedUpload(c *gin.Context) {
	var req types.PresignedUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.presign.UploadURL(c.Request.Context(), req)
	if err != nil {
		fail(c, "files.presign_upload", err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// DownloadURL 签发附件下载 URL.
func (h *Handlers) DownloadURL(c *gin.Context) {
	var req types.PresignedURLRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.presign.DownloadURL(c.Request.Context(), c.Param("id"), req.ExpiresIn)
	if err != nil {
		fail(c, "files.download_url", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PreviewURL 签发内联预览 URL.
func (h *Handlers) PreviewURL(c *gin.Context) {
	var req types.PresignedURLRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.presign.PreviewURL(c.Request.Context(), c.Param("id"), req.ExpiresIn)
	if err != nil {
		fail(c, "files.preview_url", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListFiles 按目录、关键字、收藏过滤文件并分页.
//
//	@Summary	文件列表
//	@Tags		文件管理
//	@Param		folderId	query	string	false	"文件夹ID，root 表示根目录"
//	@Param		search		query	string	false	"名称关键字"
//	@Param		starred		query	bool	false	"只看收藏"
//	@Param		sortBy		query	string	false	"name|size|createdAt|updatedAt"
//	@Param		sortOrder	query	string	false	"asc|desc"
//	@Param		page		query	int		false	"页码"
//	@Param		limit		query	int		false	"每页数量"
//	@Success	200			{object}	types.FileListResponse
//	@Router		/api/files/list [get]
func (h *Handlers) ListFiles(c *gin.Context) {
	var q types.FileListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.files.List(c.Request.Context(), q)
	if err != nil {
		fail(c, "files.list", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetFile 读取文件元数据.
func (h *Handlers) GetFile(c *gin.Context) {
	f, err := h.files.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "files.get", err)
		return
	}

	c.JSON(http.StatusOK, f)
}

// UpdateFile 重命名、移动或收藏文件.
func (h *Handlers) UpdateFile(c *gin.Context) {
	var req types.UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	f, err := h.files.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, "files.update", err)
		return
	}

	c.JSON(http.StatusOK, f)
}

// DeleteFile 软删除文件元数据，存储中的对象保留.
func (h *Handlers) DeleteFile(c *gin.Context) {
	if err := h.files.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, "files.delete", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "File deleted successfully"})
}

// BulkDeleteFiles 批量软删除.
func (h *Handlers) BulkDeleteFiles(c *gin.Context) {
	var req types.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	n, err := h.files.BulkDelete(c.Request.Context(), req.FileIDs)
	if err != nil {
		fail(c, "files.bulk_delete", err)
		return
	}

	c.JSON(http.StatusOK, types.BulkResult{Affected: n})
}

// BulkMoveFiles 批量移动到目标文件夹.
func (h *Handlers) BulkMoveFiles(c *gin.Context) {
	var req types.BulkMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	n, err := h.files.BulkMove(c.Request.Context(), req.FileIDs, req.TargetFolderID)
	if err != nil {
		fail(c, "files.bulk_move", err)
		return
	}

	c.JSON(http.StatusOK, types.BulkResult{Affected: n})
}
