package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/utkarsh5026/TireNoHire/internal/config"
	"github.com/utkarsh5026/TireNoHire/internal/storage/models"
)

var mysqlTracer = otel.Tracer("tirenohire/storage/mysql")

// MySQL 文档库，持久化简历、职位与匹配记录
type MySQL struct {
	db *gorm.DB
}

// NewMySQL 建立连接、配置连接池并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL 配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	logLevel := gormlogger.LogLevel(cfg.LogLevel)
	if logLevel < gormlogger.Silent || logLevel > gormlogger.Info {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接 MySQL 失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接池失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := db.Use(NewGormTracingPlugin(mysqlTracer, cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册 GORM 追踪插件失败: %w", err)
	}

	if err := db.AutoMigrate(&models.Resume{}, &models.Job{}, &models.MatchRecord{}); err != nil {
		return nil, fmt.Errorf("表结构迁移失败: %w", err)
	}

	return &MySQL{db: db}, nil
}

// DB 暴露底层 *gorm.DB，供需要事务的调用方使用
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Ping 连通性检查
func (m *MySQL) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭连接池
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- 简历 ---

// SaveResume 插入或按主键更新简历记录
func (m *MySQL) SaveResume(ctx context.Context, resume *models.Resume) error {
	if err := m.db.WithContext(ctx).Save(resume).Error; err != nil {
		return fmt.Errorf("保存简历记录失败 %s: %w", resume.ResumeID, err)
	}
	return nil
}

// FindResumeByID 按主键查找，未找到返回 (nil, nil)
func (m *MySQL) FindResumeByID(ctx context.Context, resumeID string) (*models.Resume, error) {
	var resume models.Resume
	err := m.db.WithContext(ctx).Where("resume_id = ?", resumeID).First(&resume).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询简历失败 %s: %w", resumeID, err)
	}
	return &resume, nil
}

// FindResumeByContentHash 按内容哈希查找，未找到返回 (nil, nil)
func (m *MySQL) FindResumeByContentHash(ctx context.Context, contentHash string) (*models.Resume, error) {
	var resume models.Resume
	err := m.db.WithContext(ctx).Where("content_hash = ?", contentHash).First(&resume).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("按哈希查询简历失败 %s: %w", contentHash, err)
	}
	return &resume, nil
}

// ListResumes 按创建时间倒序返回全部简历
func (m *MySQL) ListResumes(ctx context.Context) ([]models.Resume, error) {
	var resumes []models.Resume
	if err := m.db.WithContext(ctx).Order("created_at DESC").Find(&resumes).Error; err != nil {
		return nil, fmt.Errorf("列举简历失败: %w", err)
	}
	return resumes, nil
}

// --- 职位 ---

// SaveJob 插入或按主键更新职位记录
func (m *MySQL) SaveJob(ctx context.Context, job *models.Job) error {
	if err := m.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("保存职位记录失败 %s: %w", job.JobID, err)
	}
	return nil
}

// FindJobByID 按主键查找，未找到返回 (nil, nil)
func (m *MySQL) FindJobByID(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	err := m.db.WithContext(ctx).Where("job_id = ?", jobID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询职位失败 %s: %w", jobID, err)
	}
	return &job, nil
}

// FindJobByContentHash 按内容哈希查找，未找到返回 (nil, nil)
func (m *MySQL) FindJobByContentHash(ctx context.Context, contentHash string) (*models.Job, error) {
	var job models.Job
	err := m.db.WithContext(ctx).Where("content_hash = ?", contentHash).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("按哈希查询职位失败 %s: %w", contentHash, err)
	}
	return &job, nil
}

// ListJobs 按创建时间倒序返回全部职位
func (m *MySQL) ListJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	if err := m.db.WithContext(ctx).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("列举职位失败: %w", err)
	}
	return jobs, nil
}

// --- 匹配记录 ---

// SaveMatch 插入或覆盖匹配记录
func (m *MySQL) SaveMatch(ctx context.Context, record *models.MatchRecord) error {
	if err := m.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("保存匹配记录失败 %s: %w", record.MatchID, err)
	}
	return nil
}

// FindMatchByPair 按 (resume_id, job_id) 查找，未找到返回 (nil, nil)
func (m *MySQL) FindMatchByPair(ctx context.Context, resumeID, jobID string) (*models.MatchRecord, error) {
	var record models.MatchRecord
	err := m.db.WithContext(ctx).
		Where("resume_id = ? AND job_id = ?", resumeID, jobID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询匹配记录失败 %s/%s: %w", resumeID, jobID, err)
	}
	return &record, nil
}

// ListMatchesByJob 返回某职位下的全部匹配记录，按总分倒序
func (m *MySQL) ListMatchesByJob(ctx context.Context, jobID string) ([]models.MatchRecord, error) {
	var records []models.MatchRecord
	if err := m.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("overall_score DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("列举匹配记录失败 %s: %w", jobID, err)
	}
	return records, nil
}
