package dataurl

import "encoding/base64"

// DefaultMIMEType 是未指定 MIME 类型时的兜底值。
const DefaultMIMEType = "application/octet-stream"

// Encode 把原始字节编码为 data URL：data:<mime>;base64,<base64(data)>。
// 纯函数：无状态、无失败路径。
func Encode(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
