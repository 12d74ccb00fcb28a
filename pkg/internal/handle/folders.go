package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/types"
)

// CreateFolder 创建文件夹，parentId 省略时创建在根目录.
//
//	@Summary	创建文件夹
//	@Tags		文件夹管理
//	@Accept		json
//	@Produce	json
//	@Param		folder	body		types.CreateFolderRequest	true	"创建文件夹请求"
//	@Success	201		{object}	model.Folder
//	@Failure	404		{object}	types.ErrorResponse	"父文件夹不存在"
//	@Failure	409		{object}	types.ErrorResponse	"同级重名"
//	@Router		/api/folders [post]
func (h *Handlers) CreateFolder(c *gin.Context) {
	var req types.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	folder, err := h.folders.Create(c.Request.Context(), req.Name, req.ParentID)
	if err != nil {
		fail(c, "folders.create", err)
		return
	}

	c.JSON(http.StatusCreated, folder)
}

// ListFolders 列出 parentId 下的直接子文件夹（带条目数），缺省为根目录.
func (h *Handlers) ListFolders(c *gin.Context) {
	var parentID *string
	if p, ok := c.GetQuery("parentId"); ok {
		parentID = &p
	}

	folders, err := h.folders.ListChildren(c.Request.Context(), parentID)
	if err != nil {
		fail(c, "folders.list", err)
		return
	}

	out := make([]types.FolderSummary, 0, len(folders))

	for i := range folders {
		n, err := h.folders.ItemCount(c.Request.Context(), folders[i].ID)
		if err != nil {
			fail(c, "folders.list", err)
			return
		}

		out = append(out, types.NewFolderSummary(&folders[i], n))
	}

	c.JSON(http.StatusOK, gin.H{"folders": out})
}

// GetFolder 读取文件夹.
func (h *Handlers) GetFolder(c *gin.Context) {
	folder, err := h.folders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "folders.get", err)
		return
	}

	c.JSON(http.StatusOK, folder)
}

// RenameFolder 重命名文件夹并重算子树路径.
//
//	@Summary	重命名文件夹
//	@Tags		文件夹管理
//	@Param		id		path		string						true	"文件夹ID"
//	@Param		folder	body		types.RenameFolderRequest	true	"新名称"
//	@Success	200		{object}	model.Folder
//	@Router		/api/folders/{id} [put]
func (h *Handlers) RenameFolder(c *gin.Context) {
	var req types.RenameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	folder, err := h.folders.Rename(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		fail(c, "folders.rename", err)
		return
	}

	c.JSON(http.StatusOK, folder)
}

// StarFolder 设置收藏状态.
func (h *Handlers) StarFolder(c *gin.Context) {
	var req types.StarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	folder, err := h.folders.SetStarred(c.Request.Context(), c.Param("id"), *req.Starred)
	if err != nil {
		fail(c, "folders.star", err)
		return
	}

	c.JSON(http.StatusOK, folder)
}

// DeleteFolder 级联软删除文件夹.
//
//	@Summary	删除文件夹
//	@Tags		文件夹管理
//	@Param		id	path	string	true	"文件夹ID"
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/folders/{id} [delete]
func (h *Handlers) DeleteFolder(c *gin.Context) {
	id := c.Param("id")

	deleted, err := h.folders.SoftDelete(c.Request.Context(), id)
	if err != nil {
		fail(c, "folders.delete", err)
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: errs.ErrNotFound.Error() + ": folder " + id})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Folder deleted successfully"})
}

// FolderContents 返回文件夹内容，id 为 root 时返回根目录.
func (h *Handlers) FolderContents(c *gin.Context) {
	contents, err := h.folders.Contents(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "folders.contents", err)
		return
	}

	c.JSON(http.StatusOK, contents)
}

// Breadcrumb 返回从根到当前文件夹的路径.
func (h *Handlers) Breadcrumb(c *gin.Context) {
	crumbs, err := h.folders.Breadcrumb(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "folders.breadcrumb", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"breadcrumb": crumbs})
}
