package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/utkarsh5026/TireNoHire/internal/config"
	"github.com/utkarsh5026/TireNoHire/internal/constants"
	"github.com/utkarsh5026/TireNoHire/internal/extractor"
	"github.com/utkarsh5026/TireNoHire/internal/parser"
	"github.com/utkarsh5026/TireNoHire/internal/storage"
	"github.com/utkarsh5026/TireNoHire/internal/storage/models"
	"github.com/utkarsh5026/TireNoHire/internal/types"
)

// --- 内存版组件替身 ---

// stubNormalizer 确定性归一化：文本原样保留，指纹用真实 SHA-256
type stubNormalizer struct {
	urlContent map[string]string
	err        error
	urlCalls   int
}

func (s *stubNormalizer) chunkFor(text, sourceType, sourceName string) *types.DocumentChunk {
	return &types.DocumentChunk{
		RawText:     text,
		Chunks:      []string{text},
		ContentHash: parser.HashString(text),
		SourceType:  sourceType,
		SourceName:  sourceName,
		Metadata:    map[string]interface{}{"text_length": len(text)},
	}
}

func (s *stubNormalizer) NormalizeFile(_ context.Context, data []byte, filename string) (*types.DocumentChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !strings.HasSuffix(filename, ".txt") {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedFormat, filename)
	}
	return s.chunkFor(string(data), constants.SourceTypeFile, filename), nil
}

func (s *stubNormalizer) NormalizeText(_ context.Context, text, label string) (*types.DocumentChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.chunkFor(text, constants.SourceTypeText, label), nil
}

func (s *stubNormalizer) NormalizeURL(_ context.Context, rawURL string) (*types.DocumentChunk, error) {
	s.urlCalls++
	if s.err != nil {
		return nil, s.err
	}
	content, ok := s.urlContent[rawURL]
	if !ok {
		return nil, fmt.Errorf("抓取 URL 失败: %s", rawURL)
	}
	return s.chunkFor(content, constants.SourceTypeURL, rawURL), nil
}

type spyResumeExtractor struct {
	data  *types.ResumeData
	err   error
	calls int
}

func (s *spyResumeExtractor) Extract(context.Context, string) (*types.ResumeData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.data != nil {
		return s.data, nil
	}
	return types.EmptyResumeData(), nil
}

type spyJobExtractor struct {
	data  *types.JobData
	err   error
	calls int
}

func (s *spyJobExtractor) Extract(_ context.Context, jobText string) (*types.JobData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.data != nil {
		return s.data, nil
	}
	return types.DegradedJobData("", jobText), nil
}

// stubAnalyzer 按调用顺序返回预设总分
type stubAnalyzer struct {
	scores []float64
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(context.Context, *types.ResumeData, *types.JobData) (*types.MatchAnalysis, error) {
	idx := s.calls
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	score := 75.0
	if idx < len(s.scores) {
		score = s.scores[idx]
	}
	return &types.MatchAnalysis{
		OverallScore: score,
		Summary:      "stub analysis",
		KeyGaps:      []string{"gap"},
		SectionScores: map[string]types.SectionScore{
			"skills":     {Score: score, Weight: constants.WeightSkills},
			"experience": {Score: score, Weight: constants.WeightExperience},
			"education":  {Score: score, Weight: constants.WeightEducation},
			"keywords":   {Score: score, Weight: constants.WeightKeywords},
		},
	}, nil
}

// fakeResumeStore 记录每次落库时的状态序列，便于断言两阶段写入
type fakeResumeStore struct {
	mu            sync.Mutex
	byID          map[string]*models.Resume
	statusHistory map[string][]string
	saveErr       error
}

func newFakeResumeStore() *fakeResumeStore {
	return &fakeResumeStore{
		byID:          map[string]*models.Resume{},
		statusHistory: map[string][]string{},
	}
}

func (f *fakeResumeStore) SaveResume(_ context.Context, resume *models.Resume) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	snapshot := *resume
	f.byID[resume.ResumeID] = &snapshot
	f.statusHistory[resume.ResumeID] = append(f.statusHistory[resume.ResumeID], resume.Status)
	return nil
}

func (f *fakeResumeStore) FindResumeByID(_ context.Context, resumeID string) (*models.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[resumeID]; ok {
		snapshot := *r
		return &snapshot, nil
	}
	return nil, nil
}

func (f *fakeResumeStore) FindResumeByContentHash(_ context.Context, contentHash string) (*models.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if r.ContentHash == contentHash {
			snapshot := *r
			return &snapshot, nil
		}
	}
	return nil, nil
}

func (f *fakeResumeStore) ListResumes(context.Context) ([]models.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Resume, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, *r)
	}
	return out, nil
}

type fakeJobStore struct {
	mu            sync.Mutex
	byID          map[string]*models.Job
	statusHistory map[string][]string
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		byID:          map[string]*models.Job{},
		statusHistory: map[string][]string{},
	}
}

func (f *fakeJobStore) SaveJob(_ context.Context, job *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := *job
	f.byID[job.JobID] = &snapshot
	f.statusHistory[job.JobID] = append(f.statusHistory[job.JobID], job.Status)
	return nil
}

func (f *fakeJobStore) FindJobByID(_ context.Context, jobID string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.byID[jobID]; ok {
		snapshot := *j
		return &snapshot, nil
	}
	return nil, nil
}

func (f *fakeJobStore) FindJobByContentHash(_ context.Context, contentHash string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.byID {
		if j.ContentHash == contentHash {
			snapshot := *j
			return &snapshot, nil
		}
	}
	return nil, nil
}

func (f *fakeJobStore) ListJobs(context.Context) ([]models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Job, 0, len(f.byID))
	for _, j := range f.byID {
		out = append(out, *j)
	}
	return out, nil
}

type fakeMatchStore struct {
	mu      sync.Mutex
	byPair  map[string]*models.MatchRecord
	saveErr error
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{byPair: map[string]*models.MatchRecord{}}
}

func pairKey(resumeID, jobID string) string { return resumeID + "|" + jobID }

func (f *fakeMatchStore) SaveMatch(_ context.Context, record *models.MatchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	snapshot := *record
	f.byPair[pairKey(record.ResumeID, record.JobID)] = &snapshot
	return nil
}

func (f *fakeMatchStore) FindMatchByPair(_ context.Context, resumeID, jobID string) (*models.MatchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byPair[pairKey(resumeID, jobID)]; ok {
		snapshot := *r
		return &snapshot, nil
	}
	return nil, nil
}

func (f *fakeMatchStore) ListMatchesByJob(_ context.Context, jobID string) ([]models.MatchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.MatchRecord{}
	for _, r := range f.byPair {
		if r.JobID == jobID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// fakeCache 内存缓存，按命名空间分 map
type fakeCache struct {
	mu        sync.Mutex
	urls      map[string]string
	content   map[string]string
	meta      map[string]string
	extracted map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		urls:      map[string]string{},
		content:   map[string]string{},
		meta:      map[string]string{},
		extracted: map[string]string{},
	}
}

var errFakeCacheMiss = errors.New("fake cache miss")

func (f *fakeCache) get(m map[string]string, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := m[key]; ok {
		return v, nil
	}
	return "", errFakeCacheMiss
}

func (f *fakeCache) set(m map[string]string, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m[key] = value
	return nil
}

func (f *fakeCache) GetURLContentHash(_ context.Context, urlHash string) (string, error) {
	return f.get(f.urls, urlHash)
}
func (f *fakeCache) SetURLContentHash(_ context.Context, urlHash, contentHash string) error {
	return f.set(f.urls, urlHash, contentHash)
}
func (f *fakeCache) GetContent(_ context.Context, contentHash string) (string, error) {
	return f.get(f.content, contentHash)
}
func (f *fakeCache) SetContent(_ context.Context, contentHash, text string) error {
	return f.set(f.content, contentHash, text)
}
func (f *fakeCache) GetMeta(_ context.Context, contentHash string) (string, error) {
	return f.get(f.meta, contentHash)
}
func (f *fakeCache) SetMeta(_ context.Context, contentHash, metaJSON string) error {
	return f.set(f.meta, contentHash, metaJSON)
}
func (f *fakeCache) GetExtracted(_ context.Context, contentHash string) (string, error) {
	return f.get(f.extracted, contentHash)
}
func (f *fakeCache) SetExtracted(_ context.Context, contentHash, dataJSON string) error {
	return f.set(f.extracted, contentHash, dataJSON)
}

// testEnv 一套可注入的流水线测试环境
type testEnv struct {
	pipeline    *Pipeline
	normalizer  *stubNormalizer
	resumes     *fakeResumeStore
	jobs        *fakeJobStore
	matches     *fakeMatchStore
	cache       *fakeCache
	resumeExtr  *spyResumeExtractor
	jobExtr     *spyJobExtractor
	analyzerSpy *stubAnalyzer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		normalizer:  &stubNormalizer{urlContent: map[string]string{}},
		resumes:     newFakeResumeStore(),
		jobs:        newFakeJobStore(),
		matches:     newFakeMatchStore(),
		cache:       newFakeCache(),
		resumeExtr:  &spyResumeExtractor{},
		jobExtr:     &spyJobExtractor{},
		analyzerSpy: &stubAnalyzer{},
	}
	pipeline, err := NewPipeline(&Components{
		Normalizer:      env.normalizer,
		ResumeExtractor: env.resumeExtr,
		JobExtractor:    env.jobExtr,
		Analyzer:        env.analyzerSpy,
		ResumeStore:     env.resumes,
		JobStore:        env.jobs,
		MatchStore:      env.matches,
		Cache:           env.cache,
	}, WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	env.pipeline = pipeline
	return env
}

// seedReadyResume 直接落一条就绪简历
func (env *testEnv) seedReadyResume(t *testing.T, resumeID, name string) {
	t.Helper()
	data := types.EmptyResumeData()
	data.ContactInfo.Name = name
	blob, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, env.resumes.SaveResume(context.Background(), &models.Resume{
		ResumeID:    resumeID,
		ContentHash: parser.HashString("resume:" + resumeID),
		SourceType:  constants.SourceTypeText,
		TextContent: "text of " + resumeID,
		ParsedData:  datatypes.JSON(blob),
		Status:      constants.StatusReady,
	}))
}

// seedReadyJob 直接落一条就绪职位
func (env *testEnv) seedReadyJob(t *testing.T, jobID, title string) {
	t.Helper()
	blob, err := json.Marshal(types.DegradedJobData(title, "description"))
	require.NoError(t, err)
	require.NoError(t, env.jobs.SaveJob(context.Background(), &models.Job{
		JobID:       jobID,
		ContentHash: parser.HashString("job:" + jobID),
		Title:       title,
		SourceType:  constants.SourceTypeText,
		TextContent: "text of " + jobID,
		ParsedData:  datatypes.JSON(blob),
		Status:      constants.StatusReady,
	}))
}

// --- 装配校验 ---

func TestNewPipelineRequiresComponents(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.Error(t, err)

	_, err = NewPipeline(&Components{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Normalizer")
}

type stubArchiver struct {
	archived int
}

func (s *stubArchiver) ArchiveResumeRaw(context.Context, string, string, []byte) (string, error) {
	s.archived++
	return "resume-uploads/obj", nil
}

func (s *stubArchiver) ArchiveJobRaw(context.Context, string, string, []byte) (string, error) {
	s.archived++
	return "job-uploads/obj", nil
}

// TestNewComponentsOptions 选项式装配与字面量装配等价
func TestNewComponentsOptions(t *testing.T) {
	normalizer := &stubNormalizer{urlContent: map[string]string{}}
	resumes := newFakeResumeStore()
	jobs := newFakeJobStore()
	matches := newFakeMatchStore()
	cache := newFakeCache()
	archiver := &stubArchiver{}
	resumeExtr := &spyResumeExtractor{}
	jobExtr := &spyJobExtractor{}
	analyzerSpy := &stubAnalyzer{}

	components := NewComponents(
		WithNormalizer(normalizer),
		WithResumeExtractor(resumeExtr),
		WithJobExtractor(jobExtr),
		WithAnalyzer(analyzerSpy),
		WithResumeStore(resumes),
		WithJobStore(jobs),
		WithMatchStore(matches),
		WithCache(cache),
		WithArchiver(archiver),
	)

	assert.Equal(t, ContentNormalizer(normalizer), components.Normalizer)
	assert.Equal(t, CacheStore(cache), components.Cache)
	assert.Equal(t, RawArchiver(archiver), components.Archiver)

	pipeline, err := NewPipeline(components, WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	assert.NotNil(t, pipeline)
}

// TestCreatePipelineFromConfigTaskModels 按任务选模型，同名模型复用同一客户端
func TestCreatePipelineFromConfigTaskModels(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.LLM.TaskModels = map[string]string{constants.TaskMatchAnalysis: "strong-model"}

	var requested []string
	factory := func(modelName string) (model.BaseChatModel, error) {
		requested = append(requested, modelName)
		return &extractor.MockChatModel{}, nil
	}

	pipeline, err := CreatePipelineFromConfig(context.Background(), cfg, factory, &storage.Storage{},
		WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.NotNil(t, pipeline)

	// 简历与职位共用默认模型，只建一次客户端；分析任务走专用模型
	assert.Equal(t, []string{cfg.LLM.Model, "strong-model"}, requested)
}

func TestCreatePipelineFromConfigRequiresFactory(t *testing.T) {
	cfg := config.NewDefaultConfig()

	_, err := CreatePipelineFromConfig(context.Background(), cfg, nil, &storage.Storage{})
	assert.Error(t, err)

	_, err = CreatePipelineFromConfig(context.Background(), cfg,
		func(string) (model.BaseChatModel, error) { return nil, errors.New("无可用模型") },
		&storage.Storage{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "任务模型")
}

// --- 简历入库 ---

func TestIngestResumeTextSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.resumeExtr.data = &types.ResumeData{
		ContactInfo: types.ContactInfo{Name: "Zhang Wei"},
		Skills:      []string{"Go"},
	}

	record, err := env.pipeline.IngestResumeText(context.Background(), "resume text", "label")
	require.NoError(t, err)

	assert.Equal(t, constants.StatusReady, record.Status)
	assert.NotNil(t, record.ParsedData)
	assert.Empty(t, record.ErrorMessage)
	assert.Equal(t, parser.HashString("resume text"), record.ContentHash)
	assert.Equal(t, 1, env.resumeExtr.calls)

	// 两阶段落库：先 processing 再 ready
	assert.Equal(t, []string{constants.StatusProcessing, constants.StatusReady},
		env.resumes.statusHistory[record.ResumeID])

	var parsed types.ResumeData
	require.NoError(t, json.Unmarshal(record.ParsedData, &parsed))
	assert.Equal(t, "Zhang Wei", parsed.ContactInfo.Name)
}

func TestIngestResumeTextIdempotent(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.pipeline.IngestResumeText(context.Background(), "same resume", "a")
	require.NoError(t, err)
	second, err := env.pipeline.IngestResumeText(context.Background(), "same resume", "b")
	require.NoError(t, err)

	assert.Equal(t, first.ResumeID, second.ResumeID)
	assert.Equal(t, 1, env.resumeExtr.calls, "重复内容不应再次触发提取")
}

func TestIngestResumeTextValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.pipeline.IngestResumeText(context.Background(), "   ", "label")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.pipeline.IngestResumeFile(context.Background(), nil, "resume.txt")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.pipeline.IngestResumeFile(context.Background(), []byte("data"), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIngestResumeFileUnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.pipeline.IngestResumeFile(context.Background(), []byte("%PDF-fake"), "resume.exe")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, 0, env.resumeExtr.calls)
}

func TestIngestResumeExtractorHardError(t *testing.T) {
	env := newTestEnv(t)
	env.resumeExtr.err = errors.New("提取硬失败")

	_, err := env.pipeline.IngestResumeText(context.Background(), "resume text", "label")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)

	// 记录应落为 error 状态并带失败原因
	records, listErr := env.resumes.ListResumes(context.Background())
	require.NoError(t, listErr)
	require.Len(t, records, 1)
	assert.Equal(t, constants.StatusError, records[0].Status)
	assert.NotEmpty(t, records[0].ErrorMessage)
	assert.Nil(t, records[0].ParsedData)
}

func TestIngestResumeExtractedCacheHit(t *testing.T) {
	env := newTestEnv(t)

	cached := types.EmptyResumeData()
	cached.ContactInfo.Name = "Cached Candidate"
	blob, err := json.Marshal(cached)
	require.NoError(t, err)
	contentHash := parser.HashString("resume text")
	require.NoError(t, env.cache.SetExtracted(context.Background(), contentHash, string(blob)))

	record, err := env.pipeline.IngestResumeText(context.Background(), "resume text", "label")
	require.NoError(t, err)

	assert.Equal(t, constants.StatusReady, record.Status)
	assert.Equal(t, 0, env.resumeExtr.calls, "提取缓存命中时不应调用 LLM")

	var parsed types.ResumeData
	require.NoError(t, json.Unmarshal(record.ParsedData, &parsed))
	assert.Equal(t, "Cached Candidate", parsed.ContactInfo.Name)
}

func TestIngestResumeURLCacheShortcut(t *testing.T) {
	env := newTestEnv(t)

	// 预置已就绪记录与 url -> 内容哈希映射
	rawURL := "https://example.com/resume"
	contentHash := parser.HashString("fetched resume")
	env.normalizer.urlContent[rawURL] = "fetched resume"

	first, err := env.pipeline.IngestResumeURL(context.Background(), rawURL)
	require.NoError(t, err)
	assert.Equal(t, contentHash, first.ContentHash)
	assert.Equal(t, 1, env.normalizer.urlCalls)

	// 第二次命中 url: 缓存，跳过抓取
	second, err := env.pipeline.IngestResumeURL(context.Background(), rawURL)
	require.NoError(t, err)
	assert.Equal(t, first.ResumeID, second.ResumeID)
	assert.Equal(t, 1, env.normalizer.urlCalls, "URL 缓存命中后不应重新抓取")
}

func TestGetResumeNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.pipeline.GetResume(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- 职位入库 ---

func TestIngestJobTextSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.jobExtr.data = &types.JobData{Title: "Senior Go Engineer", Description: "Build services."}

	record, err := env.pipeline.IngestJobText(context.Background(), &JobTextInput{
		Title:       "Senior Go Engineer",
		Company:     "Acme",
		Description: "Build services.",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.StatusReady, record.Status)
	assert.Equal(t, "Senior Go Engineer", record.Title)
	assert.Equal(t, []string{constants.StatusProcessing, constants.StatusReady},
		env.jobs.statusHistory[record.JobID])
}

func TestIngestJobTextCanonicalHash(t *testing.T) {
	env := newTestEnv(t)

	input := &JobTextInput{Title: "Engineer", Description: "Build things."}
	first, err := env.pipeline.IngestJobText(context.Background(), input)
	require.NoError(t, err)

	// 字段相同的结构化提交得到同一内容哈希，幂等返回
	second, err := env.pipeline.IngestJobText(context.Background(), &JobTextInput{
		Title:       "Engineer",
		Description: "Build things.",
	})
	require.NoError(t, err)
	assert.Equal(t, first.JobID, second.JobID)
	assert.Equal(t, 1, env.jobExtr.calls)
}

func TestIngestJobTextTitleHint(t *testing.T) {
	env := newTestEnv(t)
	// 提取降级为占位标题时，用提交的标题回填
	env.jobExtr.data = types.DegradedJobData("", "whatever")

	record, err := env.pipeline.IngestJobText(context.Background(), &JobTextInput{
		Title:       "Platform Engineer",
		Description: "Run the platform.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", record.Title)
}

func TestIngestJobTextValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.pipeline.IngestJobText(context.Background(), nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.pipeline.IngestJobText(context.Background(), &JobTextInput{})
	assert.ErrorIs(t, err, ErrValidation)
}

// --- 匹配 ---

func TestMatchNotFoundAndNotReady(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyJob(t, "job-1", "Engineer")

	_, err := env.pipeline.Match(context.Background(), "missing-resume", "job-1", false)
	assert.ErrorIs(t, err, ErrNotFound)

	// processing 状态的简历不可参与匹配
	require.NoError(t, env.resumes.SaveResume(context.Background(), &models.Resume{
		ResumeID:    "r-processing",
		ContentHash: "hash-processing",
		Status:      constants.StatusProcessing,
	}))
	_, err = env.pipeline.Match(context.Background(), "r-processing", "job-1", false)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestMatchReusesPersistedRecord(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyResume(t, "r-1", "Zhang Wei")
	env.seedReadyJob(t, "job-1", "Engineer")

	first, err := env.pipeline.Match(context.Background(), "r-1", "job-1", false)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1, env.analyzerSpy.calls)

	second, err := env.pipeline.Match(context.Background(), "r-1", "job-1", false)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.MatchID, second.MatchID)
	assert.Equal(t, 1, env.analyzerSpy.calls, "命中既有记录不应重新分析")
}

func TestMatchCachedRecordSurvivesUnreadyResume(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyResume(t, "r-1", "Zhang Wei")
	env.seedReadyJob(t, "job-1", "Engineer")

	first, err := env.pipeline.Match(context.Background(), "r-1", "job-1", false)
	require.NoError(t, err)

	// 简历临时回到 processing 状态，非强制匹配仍返回既有分析
	require.NoError(t, env.resumes.SaveResume(context.Background(), &models.Resume{
		ResumeID:    "r-1",
		ContentHash: "hash-r-1",
		Status:      constants.StatusProcessing,
	}))
	cached, err := env.pipeline.Match(context.Background(), "r-1", "job-1", false)
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Equal(t, first.MatchID, cached.MatchID)
	assert.Equal(t, 1, env.analyzerSpy.calls)

	// 强制刷新要重新分析，此时就绪检查照常生效
	_, err = env.pipeline.Match(context.Background(), "r-1", "job-1", true)
	assert.ErrorIs(t, err, ErrNotReady)

	// 简历记录整个消失也不影响既有分析的读取
	delete(env.resumes.byID, "r-1")
	cached, err = env.pipeline.Match(context.Background(), "r-1", "job-1", false)
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
}

func TestMatchForceRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyResume(t, "r-1", "Zhang Wei")
	env.seedReadyJob(t, "job-1", "Engineer")

	first, err := env.pipeline.Match(context.Background(), "r-1", "job-1", false)
	require.NoError(t, err)

	refreshed, err := env.pipeline.Match(context.Background(), "r-1", "job-1", true)
	require.NoError(t, err)
	assert.False(t, refreshed.FromCache)
	assert.Equal(t, first.MatchID, refreshed.MatchID, "强制刷新复用既有记录 ID")
	assert.Equal(t, 2, env.analyzerSpy.calls)
}

func TestMatchAnalyzerFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyResume(t, "r-1", "Zhang Wei")
	env.seedReadyJob(t, "job-1", "Engineer")
	env.analyzerSpy.err = errors.New("分析器故障")

	_, err := env.pipeline.Match(context.Background(), "r-1", "job-1", false)
	assert.ErrorIs(t, err, ErrAnalysis)
}

func TestMatchPersistFailureStillReturnsResult(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyResume(t, "r-1", "Zhang Wei")
	env.seedReadyJob(t, "job-1", "Engineer")
	env.matches.saveErr = errors.New("数据库不可用")

	result, err := env.pipeline.Match(context.Background(), "r-1", "job-1", false)
	require.NoError(t, err, "持久化失败不应影响返回结果")
	require.NotNil(t, result.Analysis)
	assert.False(t, result.FromCache)
}

func TestGetMatchReadOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyResume(t, "r-1", "Zhang Wei")
	env.seedReadyJob(t, "job-1", "Engineer")

	_, err := env.pipeline.GetMatch(context.Background(), "r-1", "job-1")
	assert.ErrorIs(t, err, ErrNotFound, "查询不应触发分析")
	assert.Equal(t, 0, env.analyzerSpy.calls)

	_, err = env.pipeline.Match(context.Background(), "r-1", "job-1", false)
	require.NoError(t, err)

	result, err := env.pipeline.GetMatch(context.Background(), "r-1", "job-1")
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, 1, env.analyzerSpy.calls)
}

// --- 批量匹配与候选人对比 ---

func TestBatchMatchSortsAndSkipsFailures(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyResume(t, "r-low", "Chen Jie")
	env.seedReadyResume(t, "r-high", "Wang Fang")
	env.seedReadyJob(t, "job-1", "Engineer")
	env.analyzerSpy.scores = []float64{55, 90}

	results, err := env.pipeline.BatchMatch(context.Background(),
		[]string{"r-low", "r-high", "r-missing"}, "job-1")
	require.NoError(t, err)

	// 缺失的简历被跳过，结果按总分倒序
	require.Len(t, results, 2)
	assert.Equal(t, "r-high", results[0].ResumeID)
	assert.Equal(t, "r-low", results[1].ResumeID)
	assert.Greater(t, results[0].Analysis.OverallScore, results[1].Analysis.OverallScore)
}

func TestBatchMatchJobErrorsPropagate(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyResume(t, "r-1", "Zhang Wei")

	_, err := env.pipeline.BatchMatch(context.Background(), []string{"r-1"}, "missing-job")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.pipeline.BatchMatch(context.Background(), nil, "missing-job")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCompareCandidatesPipeline(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyResume(t, "r-a", "Zhang Wei")
	env.seedReadyResume(t, "r-b", "Li Na")
	env.seedReadyJob(t, "job-1", "Engineer")
	env.analyzerSpy.scores = []float64{88, 66}

	report, err := env.pipeline.CompareCandidates(context.Background(), []string{"r-a", "r-b"}, "job-1")
	require.NoError(t, err)

	assert.Equal(t, "job-1", report.JobID)
	assert.Equal(t, 2, report.CandidateCount)
	require.Len(t, report.Candidates, 2)

	// 候选人姓名来自简历结构化数据
	names := map[string]string{}
	for _, c := range report.Candidates {
		names[c.ResumeID] = c.CandidateName
	}
	assert.Equal(t, "Zhang Wei", names["r-a"])
	assert.Equal(t, "Li Na", names["r-b"])
}

func TestCompareCandidatesRequiresTwoIDs(t *testing.T) {
	env := newTestEnv(t)
	env.seedReadyResume(t, "r-a", "Zhang Wei")
	env.seedReadyJob(t, "job-1", "Engineer")

	_, err := env.pipeline.CompareCandidates(context.Background(), []string{"r-a"}, "job-1")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, env.analyzerSpy.calls)
}
