package queue

import "github.com/ThreeDotsLabs/watermill/message"

// ParseFolderRenamed 将 Watermill 消息解析为 FolderRenamedPayload.
func ParseFolderRenamed(msg *message.Message) (Message[FolderRenamedPayload], error) {
	return ParseWatermillMessage[FolderRenamedPayload](msg)
}

// ParseFolderDeleted 将 Watermill 消息解析为 FolderDeletedPayload.
func ParseFolderDeleted(msg *message.Message) (Message[FolderDeletedPayload], error) {
	return ParseWatermillMessage[FolderDeletedPayload](msg)
}

// ParseFileChanged 将 Watermill 消息解析为 FileChangedPayload.
func ParseFileChanged(msg *message.Message) (Message[FileChangedPayload], error) {
	return ParseWatermillMessage[FileChangedPayload](msg)
}

// ParseStorage 将 Watermill 消息解析为 StoragePayload.
func ParseStorage(msg *message.Message) (Message[StoragePayload], error) {
	return ParseWatermillMessage[StoragePayload](msg)
}
