package chat

import "strings"

// Normalize 用户标识规范化：去首尾空白并转小写。
// 注册表的 key 以及所有查找都必须经过它。
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
