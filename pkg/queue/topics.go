// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：dv.<域>.<动作>，域为 folder / file / storage.
const (
	// 文件夹领域.
	TopicFolderCreated = "dv.folder.created"
	TopicFolderRenamed = "dv.folder.renamed" // 含子树路径重算的数量
	TopicFolderDeleted = "dv.folder.deleted" // 级联软删除，含全部后代 ID

	// 文件领域.
	TopicFilePending = "dv.file.pending" // 已签发上传 URL，对象可能尚未写入
	TopicFileUpdated = "dv.file.updated"
	TopicFileMoved   = "dv.file.moved"
	TopicFileDeleted = "dv.file.deleted" // 仅元数据软删除，存储中的对象保留

	// 存储配置领域.
	TopicStorageConfigured = "dv.storage.configured"
	TopicStorageUnlocked   = "dv.storage.unlocked"
	TopicStorageTested     = "dv.storage.tested"
)

// AllTopics 返回全部主题.
func AllTopics() []string {
	return []string{
		TopicFolderCreated, TopicFolderRenamed, TopicFolderDeleted,
		TopicFilePending, TopicFileUpdated, TopicFileMoved, TopicFileDeleted,
		TopicStorageConfigured, TopicStorageUnlocked, TopicStorageTested,
	}
}
