// Package parser 负责把各种载体（PDF/DOCX/TXT/HTML/URL）归一化为纯文本与切分块。
package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// ErrUnsupportedFormat 输入扩展名/内容类型不在支持范围内
var ErrUnsupportedFormat = errors.New("unsupported file format")

// pdfLoader 基于 Eino PDF Parser 的文本提取器。
// ToPages 关闭，整份文档合并为单个字符串。
type pdfLoader struct {
	parser *pdf.PDFParser
}

func newPDFLoader(ctx context.Context) (*pdfLoader, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 PDF 解析器失败: %w", err)
	}
	return &pdfLoader{parser: p}, nil
}

// Load 从内存中的 PDF 字节提取全文
func (l *pdfLoader) Load(ctx context.Context, data []byte, uri string) (string, error) {
	docs, err := l.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(uri),
	)
	if err != nil {
		return "", fmt.Errorf("PDF 解析失败 %s: %w", uri, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("PDF 解析无内容: %s", uri)
	}

	var sb strings.Builder
	for i, doc := range docs {
		sb.WriteString(doc.Content)
		if i < len(docs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String(), nil
}

// extractWordText 从 OOXML (.docx) 字节中提取正文。
// 只读取 word/document.xml，按段落输出换行，忽略样式信息。
// 旧版二进制 .doc 不是 zip 容器，会在打开归档时报不支持。
func extractWordText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: 非 OOXML 文档", ErrUnsupportedFormat)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("%w: 归档中缺少 word/document.xml", ErrUnsupportedFormat)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("打开 word/document.xml 失败: %w", err)
	}
	defer rc.Close()

	var sb strings.Builder
	decoder := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("解析 word/document.xml 失败: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// extractHTMLText 用 goquery 提取 HTML 正文文本。
// 先剔除 script/style/noscript 节点，再折叠多余空白。
func extractHTMLText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("解析 HTML 失败: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var lines []string
	for _, raw := range strings.Split(root.Text(), "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
