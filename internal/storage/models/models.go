// Package models 定义文档库的 GORM 模型。
// 主键为应用层生成的 UUID (char(36))，content_hash 唯一索引承担幂等去重，
// 结构化提取结果以 JSON 列存储。
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Resume 简历记录。
// 状态机: processing -> ready | error。
// 不变式: ready 当且仅当 parsed_data 非空；error 当且仅当 error_message 非空。
type Resume struct {
	ResumeID     string         `gorm:"column:resume_id;type:char(36);primaryKey" json:"resume_id"`
	ContentHash  string         `gorm:"column:content_hash;type:char(64);uniqueIndex:idx_resume_hash;not null" json:"content_hash"`
	SourceType   string         `gorm:"column:source_type;type:varchar(16);not null" json:"source_type"`
	SourceName   string         `gorm:"column:source_name;type:varchar(512)" json:"source_name"`
	TextContent  string         `gorm:"column:text_content;type:longtext" json:"-"`
	ParsedData   datatypes.JSON `gorm:"column:parsed_data;type:json" json:"parsed_data,omitempty"`
	Status       string         `gorm:"column:status;type:varchar(16);index;not null" json:"status"`
	ErrorMessage string         `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	RawObjectKey string         `gorm:"column:raw_object_key;type:varchar(512)" json:"-"`
	CreatedAt    time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (Resume) TableName() string {
	return "resumes"
}

// Job 职位记录，生命周期与 Resume 相同
type Job struct {
	JobID        string         `gorm:"column:job_id;type:char(36);primaryKey" json:"job_id"`
	ContentHash  string         `gorm:"column:content_hash;type:char(64);uniqueIndex:idx_job_hash;not null" json:"content_hash"`
	SourceType   string         `gorm:"column:source_type;type:varchar(16);not null" json:"source_type"`
	SourceName   string         `gorm:"column:source_name;type:varchar(512)" json:"source_name"`
	Title        string         `gorm:"column:title;type:varchar(255)" json:"title"`
	TextContent  string         `gorm:"column:text_content;type:longtext" json:"-"`
	ParsedData   datatypes.JSON `gorm:"column:parsed_data;type:json" json:"parsed_data,omitempty"`
	Status       string         `gorm:"column:status;type:varchar(16);index;not null" json:"status"`
	ErrorMessage string         `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	RawObjectKey string         `gorm:"column:raw_object_key;type:varchar(512)" json:"-"`
	CreatedAt    time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (Job) TableName() string {
	return "jobs"
}

// MatchRecord 一对 (resume_id, job_id) 的匹配分析结果。
// 组合唯一索引保证同一对只保留一条记录，force_refresh 时原地覆盖。
type MatchRecord struct {
	MatchID      string         `gorm:"column:match_id;type:char(36);primaryKey" json:"match_id"`
	ResumeID     string         `gorm:"column:resume_id;type:char(36);uniqueIndex:idx_resume_job;not null" json:"resume_id"`
	JobID        string         `gorm:"column:job_id;type:char(36);uniqueIndex:idx_resume_job;index;not null" json:"job_id"`
	Analysis     datatypes.JSON `gorm:"column:analysis;type:json" json:"analysis"`
	OverallScore float64        `gorm:"column:overall_score" json:"overall_score"`
	AnalyzedAt   time.Time      `gorm:"column:analyzed_at" json:"analyzed_at"`
	CreatedAt    time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (MatchRecord) TableName() string {
	return "match_records"
}
