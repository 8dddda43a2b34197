package constants

// 文档处理状态常量
// 状态机: PROCESSING -> READY | ERROR
const (
	// StatusProcessing 记录已落库，解析/提取尚未完成
	StatusProcessing = "processing"
	// StatusReady 提取完成，parsed_data 非空
	StatusReady = "ready"
	// StatusError 处理失败，error_message 非空
	StatusError = "error"
)

// 文档来源类型
const (
	SourceTypeFile = "file"
	SourceTypeText = "text"
	SourceTypeURL  = "url"
)

// 文本切分参数（递归字符切分器）
const (
	ChunkSize    = 4000
	ChunkOverlap = 200
)

// LLM 调用与重试参数
const (
	// ExtractorMaxAttempts 结构化提取最大尝试次数（含首次）
	ExtractorMaxAttempts = 3
	// ExtractorBackoffBaseSeconds 指数退避基础秒数
	ExtractorBackoffBaseSeconds = 1
	// ExtractorBackoffCapSeconds 指数退避上限秒数
	ExtractorBackoffCapSeconds = 10
)

// 匹配分析各维度权重，总和为 1
const (
	WeightSkills     = 0.40
	WeightExperience = 0.30
	WeightEducation  = 0.15
	WeightKeywords   = 0.15
)

// 改进建议优先级
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// JobTitleFallback 职位提取完全失败时的兜底标题
const JobTitleFallback = "Unknown Position"

// 对比排名维度名
const (
	RankingOverall    = "overall"
	RankingSkills     = "skills"
	RankingExperience = "experience"
	RankingEducation  = "education"
	RankingFewestGaps = "fewest_gaps"
)

// LLM 任务名，对应配置 llm.task_models 的键
const (
	TaskResumeExtraction = "resume"
	TaskJobExtraction    = "job"
	TaskMatchAnalysis    = "analyzer"
)

// HTTP 抓取超时
const (
	URLProbeTimeoutSeconds    = 10
	URLDownloadTimeoutSeconds = 30
)

// MinIO 对象归档
const (
	MinioResumeBucket = "resume-uploads"
	MinioJobBucket    = "job-uploads"
)
