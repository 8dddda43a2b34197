// Package types 定义流水线各环节共享的领域数据结构。
// 所有结构均可直接 JSON 序列化，字段命名与存储层 parsed_data 保持一致。
package types

// DocumentChunk 归一化产物：原始文本、切分块与内容指纹。
type DocumentChunk struct {
	// RawText 合并后的完整纯文本
	RawText string `json:"raw_text"`
	// Chunks 按 4000/200 递归切分后的文本块
	Chunks []string `json:"chunks"`
	// ContentHash 原始输入字节的 SHA-256（十六进制小写）
	ContentHash string `json:"content_hash"`
	// SourceType file / text / url
	SourceType string `json:"source_type"`
	// SourceName 文件名、URL 或文本标签
	SourceName string `json:"source_name"`
	// Metadata 载体相关元信息（页数、MIME、抓取耗时等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
