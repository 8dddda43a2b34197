package types

// ContactInfo 简历联系方式
type ContactInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Education 教育经历条目
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	GPA         string `json:"gpa,omitempty"`
}

// Experience 工作经历条目
type Experience struct {
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
}

// Project 项目经历条目
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// Certification 证书条目
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// ResumeData 简历结构化提取结果。
// 提取完全失败时返回各字段为空的有效零值，而不是 panic 或 nil。
type ResumeData struct {
	ContactInfo    ContactInfo     `json:"contact_info"`
	Summary        string          `json:"summary,omitempty"`
	Education      []Education     `json:"education"`
	Experience     []Experience    `json:"experience"`
	Skills         []string        `json:"skills"`
	Certifications []Certification `json:"certifications"`
	Projects       []Project       `json:"projects"`
	Languages      []string        `json:"languages"`
}

// EmptyResumeData 返回所有集合字段已初始化的空简历结构，
// 作为提取兜底结果，保证序列化出 [] 而不是 null。
func EmptyResumeData() *ResumeData {
	return &ResumeData{
		Education:      []Education{},
		Experience:     []Experience{},
		Skills:         []string{},
		Certifications: []Certification{},
		Projects:       []Project{},
		Languages:      []string{},
	}
}
