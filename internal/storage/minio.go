package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/utkarsh5026/TireNoHire/internal/config"
)

// MinIO 原始上传文件的归档存储。
// 对象键为内容哈希加原始扩展名，同一内容重复上传自然幂等。
type MinIO struct {
	client       *minio.Client
	resumeBucket string
	jobBucket    string
}

// NewMinIO 创建客户端并保证目标桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO 配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	m := &MinIO{
		client:       client,
		resumeBucket: cfg.ResumeBucket,
		jobBucket:    cfg.JobBucket,
	}
	for _, bucket := range []string{m.resumeBucket, m.jobBucket} {
		if bucket == "" {
			continue
		}
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("检查桶失败 %s: %w", bucket, err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: cfg.Location}); err != nil {
				return nil, fmt.Errorf("创建桶失败 %s: %w", bucket, err)
			}
		}
	}
	return m, nil
}

// ArchiveResumeRaw 归档简历原始字节，返回对象键
func (m *MinIO) ArchiveResumeRaw(ctx context.Context, contentHash, ext string, data []byte) (string, error) {
	return m.put(ctx, m.resumeBucket, contentHash+ext, data)
}

// ArchiveJobRaw 归档职位原始字节，返回对象键
func (m *MinIO) ArchiveJobRaw(ctx context.Context, contentHash, ext string, data []byte) (string, error) {
	return m.put(ctx, m.jobBucket, contentHash+ext, data)
}

func (m *MinIO) put(ctx context.Context, bucket, objectKey string, data []byte) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("未配置归档桶")
	}
	_, err := m.client.PutObject(ctx, bucket, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("归档对象失败 %s/%s: %w", bucket, objectKey, err)
	}
	return objectKey, nil
}
