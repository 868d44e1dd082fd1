package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
	"github.com/custodia-labs/readwell/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyOCRProvider = "ocr.provider"
	keyOCRModel    = "ocr.model"
	keyOCRBaseURL  = "ocr.base_url"
	keyOCRAPIKey   = "ocr.api_key"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"
	keyLLMRPM      = "llm.requests_per_minute"

	keyChunkSize     = "pipeline.chunk_size"
	keyLookahead     = "pipeline.lookahead"
	keyMinTextLength = "pipeline.min_text_length"
	keyFlushEvery    = "pipeline.flush_every"
	keyPreviewLength = "pipeline.preview_length"
	keyMaxAttempts   = "pipeline.max_attempts"
	keyRetryBackoff  = "pipeline.retry_backoff"
	keyTemperature   = "pipeline.temperature"
	keyMaxTokens     = "pipeline.max_tokens"
	keyProcessors    = "pipeline.processors"

	keyStorageBackend = "storage.backend"
	keyStorageDSN     = "storage.dsn"

	keyBlobBackend = "blob.backend"
	keyBlobPath    = "blob.path"

	keyS3Bucket     = "s3.bucket"
	keyS3Region     = "s3.region"
	keyS3Endpoint   = "s3.endpoint"
	keyS3AccessKey  = "s3.access_key_id"
	keyS3SecretKey  = "s3.secret_access_key"
	keyS3PresignTTL = "s3.presign_ttl"

	keyCacheBackend    = "cache.backend"
	keyCacheRedisAddr  = "cache.redis_addr"
	keyCacheRedisPass  = "cache.redis_password"
	keyCacheRedisDB    = "cache.redis_db"
	keyCacheTTL        = "cache.ttl"
	keyCacheMaxEntries = "cache.max_entries"

	keyJobWorkers = "jobs.workers"
	keyJobTimeout = "jobs.timeout"

	keyAllowedHosts = "upload.allowed_hosts"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindDuration
	kindList
	kindFloat
)

// maxTemperature is the highest sampling temperature providers accept.
const maxTemperature = 2.0

// settingKeys lists every key Set accepts.
var settingKeys = map[string]keyKind{
	keyOCRProvider: kindString, keyOCRModel: kindString, keyOCRBaseURL: kindString, keyOCRAPIKey: kindString,
	keyLLMProvider: kindString, keyLLMModel: kindString, keyLLMBaseURL: kindString, keyLLMAPIKey: kindString,
	keyLLMRPM: kindInt,

	keyChunkSize: kindInt, keyLookahead: kindInt, keyMinTextLength: kindInt, keyFlushEvery: kindInt,
	keyPreviewLength: kindInt, keyMaxAttempts: kindInt, keyRetryBackoff: kindDuration, keyProcessors: kindList,
	keyTemperature: kindFloat, keyMaxTokens: kindInt,

	keyStorageBackend: kindString, keyStorageDSN: kindString,
	keyBlobBackend: kindString, keyBlobPath: kindString,

	keyS3Bucket: kindString, keyS3Region: kindString, keyS3Endpoint: kindString,
	keyS3AccessKey: kindString, keyS3SecretKey: kindString, keyS3PresignTTL: kindDuration,

	keyCacheBackend: kindString, keyCacheRedisAddr: kindString, keyCacheRedisPass: kindString,
	keyCacheRedisDB: kindInt, keyCacheTTL: kindDuration, keyCacheMaxEntries: kindInt,

	keyJobWorkers: kindInt, keyJobTimeout: kindDuration,
	keyAllowedHosts: kindList,
}

// apiKeyEnv names the environment variable consulted when no key is configured.
var apiKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderGroq:      "GROQ_API_KEY",
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
	domain.AIProviderGemini:    "GEMINI_API_KEY",
}

const mistralAPIKeyEnv = "MISTRAL_API_KEY"

// refinerTemperatureEnv overrides the refinement temperature when
// pipeline.temperature is not configured.
const refinerTemperatureEnv = "GROQ_REFINER_TEMPERATURE"

// SettingKeys returns every configurable key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnvLookup replaces os.LookupEnv for API key fallbacks.
func WithEnvLookup(lookup func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		s.lookupEnv = lookup
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings.
// API keys fall back to the provider's environment variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	llmProvider := s.getAIProvider(defaults.LLM.Provider)
	llmModel := s.configStore.GetString(keyLLMModel)
	if llmModel == "" {
		llmModel = domain.DefaultLLMModels()[llmProvider]
	}

	ocrProvider := s.getOCRProvider(defaults.OCR.Provider)
	ocrKey := s.configStore.GetString(keyOCRAPIKey)
	if ocrKey == "" && ocrProvider == domain.OCRProviderMistral {
		ocrKey = s.env(mistralAPIKeyEnv)
	}

	llmKey := s.configStore.GetString(keyLLMAPIKey)
	if llmKey == "" {
		llmKey = s.env(apiKeyEnv[llmProvider])
	}

	settings := &domain.AppSettings{
		OCR: domain.OCRSettings{
			Provider: ocrProvider,
			Model:    s.getString(keyOCRModel, defaults.OCR.Model),
			BaseURL:  s.configStore.GetString(keyOCRBaseURL),
			APIKey:   ocrKey,
		},
		LLM: domain.LLMSettings{
			Provider:          llmProvider,
			Model:             llmModel,
			BaseURL:           s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:            llmKey,
			RequestsPerMinute: s.configStore.GetInt(keyLLMRPM),
		},
		Processing: domain.ProcessingSettings{
			ChunkSize:     s.getInt(keyChunkSize, defaults.Processing.ChunkSize),
			Lookahead:     s.getInt(keyLookahead, defaults.Processing.Lookahead),
			MinTextLength: s.getInt(keyMinTextLength, defaults.Processing.MinTextLength),
			FlushEvery:    s.getInt(keyFlushEvery, defaults.Processing.FlushEvery),
			PreviewLength: s.getInt(keyPreviewLength, defaults.Processing.PreviewLength),
			MaxAttempts:   s.getInt(keyMaxAttempts, defaults.Processing.MaxAttempts),
			RetryBackoff:  s.getDuration(keyRetryBackoff, defaults.Processing.RetryBackoff),
			Temperature:   s.temperature(defaults.Processing.Temperature),
			MaxTokens:     s.getInt(keyMaxTokens, defaults.Processing.MaxTokens),
		},
		Storage: domain.StorageSettings{
			Backend: domain.StorageBackend(s.getString(keyStorageBackend, string(defaults.Storage.Backend))),
			DSN:     s.configStore.GetString(keyStorageDSN),
		},
		Blob: domain.BlobSettings{
			Backend: domain.BlobBackend(s.getString(keyBlobBackend, string(defaults.Blob.Backend))),
			Path:    s.configStore.GetString(keyBlobPath),
			S3: domain.S3Settings{
				Bucket:          s.configStore.GetString(keyS3Bucket),
				Region:          s.getString(keyS3Region, defaults.Blob.S3.Region),
				Endpoint:        s.configStore.GetString(keyS3Endpoint),
				AccessKeyID:     s.configStore.GetString(keyS3AccessKey),
				SecretAccessKey: s.configStore.GetString(keyS3SecretKey),
				PresignTTL:      s.getDuration(keyS3PresignTTL, defaults.Blob.S3.PresignTTL),
			},
		},
		Cache: domain.CacheSettings{
			Backend:       domain.CacheBackend(s.getString(keyCacheBackend, string(defaults.Cache.Backend))),
			RedisAddr:     s.configStore.GetString(keyCacheRedisAddr),
			RedisPassword: s.configStore.GetString(keyCacheRedisPass),
			RedisDB:       s.configStore.GetInt(keyCacheRedisDB),
			TTL:           s.getDuration(keyCacheTTL, defaults.Cache.TTL),
			MaxEntries:    s.getInt(keyCacheMaxEntries, defaults.Cache.MaxEntries),
		},
		Dispatch: domain.DispatchSettings{
			Workers: s.getInt(keyJobWorkers, defaults.Dispatch.Workers),
			Timeout: s.getDuration(keyJobTimeout, defaults.Dispatch.Timeout),
		},
		Upload: domain.UploadSettings{
			AllowedHosts: defaults.Upload.AllowedHosts,
		},
	}

	// An explicitly empty list allows any host.
	if _, ok := s.configStore.Get(keyAllowedHosts); ok {
		settings.Upload.AllowedHosts = s.configStore.GetStringSlice(keyAllowedHosts)
	}

	return settings, nil
}

// Set parses value according to the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	value = strings.TrimSpace(value)
	if err := validateEnum(key, value); err != nil {
		return err
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("%w: %s must be a duration such as 90s or 5m", domain.ErrInvalidInput, key)
		}
		parsed = d.String()
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > maxTemperature {
			return fmt.Errorf("%w: %s must be a number between 0 and %g", domain.ErrInvalidInput, key, maxTemperature)
		}
		parsed = f
	case kindList:
		parsed = splitList(value)
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: LLM provider %s", domain.ErrInvalidInput, provider)
	}

	// An API key may also come from the environment.
	if provider.RequiresAPIKey() && apiKey == "" && s.env(apiKeyEnv[provider]) == "" {
		return fmt.Errorf("API key required for %s (or set %s)", provider, apiKeyEnv[provider])
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	baseURL := ""
	if provider.IsLocal() {
		baseURL = s.configStore.GetString(keyLLMBaseURL)
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
	}

	updates := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, provider.String()},
		{keyLLMModel, model},
		{keyLLMBaseURL, baseURL},
		{keyLLMAPIKey, apiKey},
	}
	for _, u := range updates {
		if err := s.configStore.Set(u.key, u.value); err != nil {
			return fmt.Errorf("save %s: %w", u.key, err)
		}
	}
	return nil
}

// Validate checks that processing can run with the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.OCR.IsConfigured() {
		return fmt.Errorf("%w: OCR provider %q needs %s or %s",
			domain.ErrMissingCredentials, settings.OCR.Provider, keyOCRAPIKey, mistralAPIKeyEnv)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %q needs %s or %s",
			domain.ErrMissingCredentials, settings.LLM.Provider, keyLLMAPIKey, apiKeyEnv[settings.LLM.Provider])
	}

	p := settings.Processing
	positive := []struct {
		key   string
		value int
	}{
		{keyChunkSize, p.ChunkSize},
		{keyFlushEvery, p.FlushEvery},
		{keyPreviewLength, p.PreviewLength},
		{keyMaxAttempts, p.MaxAttempts},
		{keyMaxTokens, p.MaxTokens},
		{keyJobWorkers, settings.Dispatch.Workers},
	}
	for _, v := range positive {
		if v.value <= 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, v.key)
		}
	}
	if p.Temperature < 0 || p.Temperature > maxTemperature {
		return fmt.Errorf("%w: %s must be between 0 and %g", domain.ErrInvalidInput, keyTemperature, maxTemperature)
	}
	if settings.Dispatch.Timeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyJobTimeout)
	}

	switch {
	case !settings.Storage.Backend.IsValid():
		return fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedType, settings.Storage.Backend)
	case settings.Storage.Backend == domain.StoragePostgres && settings.Storage.DSN == "":
		return fmt.Errorf("%w: postgres storage needs %s", domain.ErrInvalidInput, keyStorageDSN)
	case !settings.Blob.Backend.IsValid():
		return fmt.Errorf("%w: blob backend %q", domain.ErrUnsupportedType, settings.Blob.Backend)
	case settings.Blob.Backend == domain.BlobS3 && settings.Blob.S3.Bucket == "":
		return fmt.Errorf("%w: s3 blob storage needs %s", domain.ErrInvalidInput, keyS3Bucket)
	case !settings.Cache.Backend.IsValid():
		return fmt.Errorf("%w: cache backend %q", domain.ErrUnsupportedType, settings.Cache.Backend)
	case settings.Cache.Backend == domain.CacheRedis && settings.Cache.RedisAddr == "":
		return fmt.Errorf("%w: redis cache needs %s", domain.ErrInvalidInput, keyCacheRedisAddr)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetPipelineConfig returns the chunking pipeline configuration.
// The chunker is configured from the pipeline.chunk_size and pipeline.lookahead keys.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()

	if processors := s.configStore.GetStringSlice(keyProcessors); len(processors) > 0 {
		cfg.Processors = processors
	}

	defaults := domain.DefaultProcessingSettings()
	cfg.ProcessorConfigs["chunker"] = map[string]any{
		"chunk_size": s.getInt(keyChunkSize, defaults.ChunkSize),
		"lookahead":  s.getInt(keyLookahead, defaults.Lookahead),
	}

	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// temperature reads pipeline.temperature, then the environment override.
func (s *SettingsService) temperature(defaultVal float64) float64 {
	if raw, ok := s.configStore.Get(keyTemperature); ok {
		if f, ok := toFloat(raw); ok {
			return f
		}
		return defaultVal
	}
	if f, ok := toFloat(s.env(refinerTemperatureEnv)); ok {
		return f
	}
	return defaultVal
}

// toFloat accepts the numeric shapes TOML and callers store.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func (s *SettingsService) getAIProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyLLMProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getOCRProvider(defaultVal domain.OCRProvider) domain.OCRProvider {
	provider := domain.OCRProvider(s.configStore.GetString(keyOCRProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) env(name string) string {
	if name == "" || s.lookupEnv == nil {
		return ""
	}
	val, _ := s.lookupEnv(name)
	return val
}

// validateEnum rejects unknown provider and backend names.
func validateEnum(key, value string) error {
	var ok bool
	switch key {
	case keyLLMProvider:
		ok = domain.AIProvider(value).IsValid()
	case keyOCRProvider:
		ok = domain.OCRProvider(value).IsValid()
	case keyStorageBackend:
		ok = domain.StorageBackend(value).IsValid()
	case keyBlobBackend:
		ok = domain.BlobBackend(value).IsValid()
	case keyCacheBackend:
		ok = domain.CacheBackend(value).IsValid()
	default:
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: %q is not a valid %s", domain.ErrInvalidInput, value, key)
	}
	return nil
}

func splitList(value string) []string {
	out := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
