package parser

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/utkarsh5026/TireNoHire/internal/config"
	"github.com/utkarsh5026/TireNoHire/internal/constants"
	"github.com/utkarsh5026/TireNoHire/internal/logger"
	"github.com/utkarsh5026/TireNoHire/internal/types"
)

// ContentNormalizer 把文件/文本/URL 归一化为 DocumentChunk。
// 同一输入字节永远得到同一 ContentHash，URL 本身不参与哈希。
type ContentNormalizer struct {
	splitter     textsplitter.RecursiveCharacter
	pdf          *pdfLoader
	probeClient  *http.Client
	fetchClient  *http.Client
	maxDownload  int64
	chunkSize    int
	chunkOverlap int
	log          zerolog.Logger
}

// NewContentNormalizer 创建归一化器。cfg 为 nil 时使用默认参数。
func NewContentNormalizer(ctx context.Context, cfg *config.NormalizerConfig) (*ContentNormalizer, error) {
	chunkSize := constants.ChunkSize
	chunkOverlap := constants.ChunkOverlap
	probeTimeout := time.Duration(constants.URLProbeTimeoutSeconds) * time.Second
	fetchTimeout := time.Duration(constants.URLDownloadTimeoutSeconds) * time.Second
	var maxDownload int64 = 32 << 20

	if cfg != nil {
		if cfg.ChunkSize > 0 {
			chunkSize = cfg.ChunkSize
		}
		if cfg.ChunkOverlap > 0 {
			chunkOverlap = cfg.ChunkOverlap
		}
		probeTimeout = config.GetDuration(cfg.URLProbeTimeout, probeTimeout)
		fetchTimeout = config.GetDuration(cfg.URLFetchTimeout, fetchTimeout)
		if cfg.MaxDownloadBytes > 0 {
			maxDownload = cfg.MaxDownloadBytes
		}
	}

	pdfLoader, err := newPDFLoader(ctx)
	if err != nil {
		return nil, err
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
	)

	return &ContentNormalizer{
		splitter:     splitter,
		pdf:          pdfLoader,
		probeClient:  &http.Client{Timeout: probeTimeout},
		fetchClient:  &http.Client{Timeout: fetchTimeout},
		maxDownload:  maxDownload,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		log:          logger.WithComponent("normalizer"),
	}, nil
}

// HashBytes 计算原始字节的 SHA-256 指纹（十六进制小写）
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashString 计算字符串 UTF-8 字节的指纹
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// NormalizeFile 按扩展名分发加载器，返回归一化结果。
// ContentHash 始终基于 data 原始字节，与提取出的文本无关。
func (n *ContentNormalizer) NormalizeFile(ctx context.Context, data []byte, filename string) (*types.DocumentChunk, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("空文件输入: %s", filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = n.pdf.Load(ctx, data, filename)
	case ".docx", ".doc":
		text, err = extractWordText(data)
	case ".txt", ".md":
		text = string(data)
	case ".html", ".htm":
		text, err = extractHTMLText(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	return n.finalize(text, HashBytes(data), constants.SourceTypeFile, filename, map[string]interface{}{
		"file_extension": ext,
		"file_size":      len(data),
	})
}

// NormalizeText 处理直接提交的纯文本
func (n *ContentNormalizer) NormalizeText(_ context.Context, text, label string) (*types.DocumentChunk, error) {
	return n.finalize(text, HashString(text), constants.SourceTypeText, label, nil)
}

// NormalizeURL 抓取并归一化 URL 内容。
// 流程：HEAD 探测 Content-Type -> PDF/DOCX 下载后走文件路径，
// 其余按 HTML 抓取正文。哈希基于抓取到的载荷字节。
func (n *ContentNormalizer) NormalizeURL(ctx context.Context, rawURL string) (*types.DocumentChunk, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("无效的 URL: %s", rawURL)
	}

	contentType := n.probeContentType(ctx, rawURL)
	urlPath := strings.ToLower(parsed.Path)

	switch {
	case strings.Contains(contentType, "application/pdf") || strings.HasSuffix(urlPath, ".pdf"):
		data, err := n.download(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		chunk, err := n.NormalizeFile(ctx, data, fileNameFromURL(parsed, ".pdf"))
		if err != nil {
			return nil, err
		}
		return n.asURLChunk(chunk, rawURL, contentType), nil

	case strings.Contains(contentType, "wordprocessingml") || strings.HasSuffix(urlPath, ".docx"):
		data, err := n.download(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		chunk, err := n.NormalizeFile(ctx, data, fileNameFromURL(parsed, ".docx"))
		if err != nil {
			return nil, err
		}
		return n.asURLChunk(chunk, rawURL, contentType), nil

	default:
		data, err := n.download(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		text, err := extractHTMLText(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return n.finalize(text, HashBytes(data), constants.SourceTypeURL, rawURL, map[string]interface{}{
			"content_type": contentType,
			"url":          rawURL,
		})
	}
}

// probeContentType HEAD 探测，失败时返回空串走通用 HTML 路径
func (n *ContentNormalizer) probeContentType(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return ""
	}
	resp, err := n.probeClient.Do(req)
	if err != nil {
		n.log.Warn().Err(err).Str("url", rawURL).Msg("HEAD 探测失败，按 HTML 处理")
		return ""
	}
	defer resp.Body.Close()
	return strings.ToLower(resp.Header.Get("Content-Type"))
}

func (n *ContentNormalizer) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败 %s: %w", rawURL, err)
	}
	resp, err := n.fetchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("抓取 URL 失败 %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("抓取 URL 返回 %d: %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, n.maxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败 %s: %w", rawURL, err)
	}
	if int64(len(data)) > n.maxDownload {
		return nil, fmt.Errorf("响应体超过大小上限 %d: %s", n.maxDownload, rawURL)
	}
	return data, nil
}

// finalize 过滤空文本、切分并组装 DocumentChunk
func (n *ContentNormalizer) finalize(text, hash, sourceType, sourceName string, meta map[string]interface{}) (*types.DocumentChunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("归一化结果为空文本: %s", sourceName)
	}

	chunks, err := n.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("文本切分失败 %s: %w", sourceName, err)
	}

	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["text_length"] = len(text)
	meta["chunk_count"] = len(chunks)

	n.log.Debug().
		Str("source", sourceName).
		Str("hash", hash).
		Int("chunks", len(chunks)).
		Msg("内容归一化完成")

	return &types.DocumentChunk{
		RawText:     text,
		Chunks:      chunks,
		ContentHash: hash,
		SourceType:  sourceType,
		SourceName:  sourceName,
		Metadata:    meta,
	}, nil
}

// asURLChunk 把文件路径的归一化结果转回 URL 来源标记，保持载荷哈希不变
func (n *ContentNormalizer) asURLChunk(chunk *types.DocumentChunk, rawURL, contentType string) *types.DocumentChunk {
	chunk.SourceType = constants.SourceTypeURL
	chunk.SourceName = rawURL
	chunk.Metadata["url"] = rawURL
	if contentType != "" {
		chunk.Metadata["content_type"] = contentType
	}
	return chunk
}

func fileNameFromURL(u *url.URL, fallbackExt string) string {
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "download" + fallbackExt
	}
	if filepath.Ext(name) == "" {
		name += fallbackExt
	}
	return name
}
