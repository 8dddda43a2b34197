package types

// JobRequirement 职位要求条目
type JobRequirement struct {
	Description string `json:"description"`
	// Required 为 false 表示加分项
	Required bool `json:"required"`
	// Category 如 technical / soft / experience / education
	Category string `json:"category,omitempty"`
	// Importance 重要程度 1-10
	Importance int `json:"importance"`
}

// JobData 职位描述结构化提取结果
type JobData struct {
	Title                   string           `json:"title"`
	Company                 string           `json:"company,omitempty"`
	Location                string           `json:"location,omitempty"`
	Type                    string           `json:"type,omitempty"`
	Description             string           `json:"description"`
	Requirements            []JobRequirement `json:"requirements"`
	Responsibilities        []string         `json:"responsibilities"`
	PreferredQualifications []string         `json:"preferred_qualifications"`
	Benefits                []string         `json:"benefits"`
	SalaryRange             string           `json:"salary_range,omitempty"`
	Industry                string           `json:"industry,omitempty"`
}

// DegradedJobData 返回兜底的职位结构：标题使用固定占位值，
// 描述原样保留输入文本，集合字段为空但已初始化。
func DegradedJobData(title, description string) *JobData {
	if title == "" {
		title = "Unknown Position"
	}
	return &JobData{
		Title:                   title,
		Description:             description,
		Requirements:            []JobRequirement{},
		Responsibilities:        []string{},
		PreferredQualifications: []string{},
		Benefits:                []string{},
	}
}
