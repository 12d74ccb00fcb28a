package provider

import (
	"regexp"
	"strconv"
	"time"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeFileName 把 [A-Za-z0-9.-] 之外的每个字符替换为 "_".
func SanitizeFileName(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}

// ObjectKey 生成对象键：{folderID}/{毫秒时间戳}-{清洗后的文件名}，根目录下不带前缀.
//
// 对象键创建后不可变，文件重命名只修改元数据中的名称.
func ObjectKey(folderID, fileName string, now time.Time) string {
	key := strconv.FormatInt(now.UnixMilli(), 10) + "-" + SanitizeFileName(fileName)
	if folderID == "" {
		return key
	}

	return folderID + "/" + key
}
