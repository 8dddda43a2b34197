package constants

import "fmt"

// 缓存键命名空间统一定义。
// 所有键均以内容哈希（SHA-256 十六进制小写）为主键，
// URL 映射键以 URL 字符串的哈希为主键，避免超长键。
//
// 命名空间:
//   url:<sha256(url)>       -> 该 URL 抓取内容的 content hash
//   meta:<hash>             -> 归一化元数据 JSON
//   content:<hash>          -> 归一化后的纯文本
//   extracted:<hash>        -> 结构化提取结果 JSON
const (
	CacheKeyURLFormat       = "url:%s"
	CacheKeyMetaFormat      = "meta:%s"
	CacheKeyContentFormat   = "content:%s"
	CacheKeyExtractedFormat = "extracted:%s"
)

// URLCacheKey 返回 URL -> 内容哈希的映射键
func URLCacheKey(urlHash string) string {
	return fmt.Sprintf(CacheKeyURLFormat, urlHash)
}

// MetaCacheKey 返回元数据缓存键
func MetaCacheKey(contentHash string) string {
	return fmt.Sprintf(CacheKeyMetaFormat, contentHash)
}

// ContentCacheKey 返回归一化文本缓存键
func ContentCacheKey(contentHash string) string {
	return fmt.Sprintf(CacheKeyContentFormat, contentHash)
}

// ExtractedCacheKey 返回结构化提取结果缓存键
func ExtractedCacheKey(contentHash string) string {
	return fmt.Sprintf(CacheKeyExtractedFormat, contentHash)
}
