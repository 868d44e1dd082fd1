package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGroq is Groq's OpenAI-compatible cloud API.
	AIProviderGroq AIProvider = "groq"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google's Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGroq, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p.IsValid() && !p.IsLocal()
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGroq:
		return "Groq (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// OCRProvider identifies an OCR backend.
type OCRProvider string

// Available OCR providers.
const (
	// OCRProviderMistral calls the Mistral OCR API.
	OCRProviderMistral OCRProvider = "mistral"

	// OCRProviderJSONFile reads pre-computed OCR results from disk.
	OCRProviderJSONFile OCRProvider = "jsonfile"
)

// IsValid returns true if the OCR provider is recognised.
func (p OCRProvider) IsValid() bool {
	return p == OCRProviderMistral || p == OCRProviderJSONFile
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible hosts).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// RequestsPerMinute throttles outbound calls. Zero disables throttling.
	RequestsPerMinute int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// OCRSettings holds OCR provider configuration.
type OCRSettings struct {
	Provider OCRProvider
	Model    string

	// BaseURL is the API endpoint, or the result directory for the jsonfile provider.
	BaseURL string

	APIKey string
}

// IsConfigured returns true if the OCR provider is set up.
func (o OCRSettings) IsConfigured() bool {
	if !o.Provider.IsValid() {
		return false
	}
	if o.Provider == OCRProviderMistral && o.APIKey == "" {
		return false
	}
	return true
}

// ProcessingSettings tunes the ingestion pipeline.
type ProcessingSettings struct {
	// ChunkSize is the target chunk length in characters.
	ChunkSize int

	// Lookahead is how many lines the chunker may scan past an unsafe break.
	Lookahead int

	// MinTextLength is the minimum normalised OCR text length.
	MinTextLength int

	// FlushEvery is how many refined chunks are written per batch.
	FlushEvery int

	// PreviewLength is the size of the initial unrefined preview.
	PreviewLength int

	// MaxAttempts bounds LLM calls per chunk.
	MaxAttempts int

	// RetryBackoff is the base delay between refinement attempts.
	RetryBackoff time.Duration

	// Temperature is the sampling temperature for refinement calls.
	Temperature float64

	// MaxTokens caps each refinement completion.
	MaxTokens int
}

// StorageBackend identifies where document records live.
type StorageBackend string

// Available storage backends.
const (
	StorageSQLite   StorageBackend = "sqlite"
	StoragePostgres StorageBackend = "postgres"
	StorageMemory   StorageBackend = "memory"
)

// IsValid returns true if the storage backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageSQLite || b == StoragePostgres || b == StorageMemory
}

// StorageSettings holds document record store configuration.
type StorageSettings struct {
	Backend StorageBackend

	// DSN is the postgres connection string or the sqlite file path.
	DSN string
}

// BlobBackend identifies where content and image blobs live.
type BlobBackend string

// Available blob backends.
const (
	BlobFilesystem BlobBackend = "filesystem"
	BlobS3         BlobBackend = "s3"
	BlobMemory     BlobBackend = "memory"
)

// IsValid returns true if the blob backend is recognised.
func (b BlobBackend) IsValid() bool {
	return b == BlobFilesystem || b == BlobS3 || b == BlobMemory
}

// S3Settings holds S3-compatible object storage configuration.
type S3Settings struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

// BlobSettings holds blob store configuration.
type BlobSettings struct {
	Backend BlobBackend

	// Path is the root directory for the filesystem backend.
	Path string

	S3 S3Settings
}

// CacheBackend identifies the explanation cache backend.
type CacheBackend string

// Available cache backends.
const (
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

// IsValid returns true if the cache backend is recognised.
func (b CacheBackend) IsValid() bool {
	return b == CacheMemory || b == CacheRedis
}

// CacheSettings holds explanation cache configuration.
type CacheSettings struct {
	Backend       CacheBackend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration

	// MaxEntries bounds the in-memory cache.
	MaxEntries int
}

// DispatchSettings controls background job execution.
type DispatchSettings struct {
	// Workers is the number of runs allowed at once.
	Workers int

	// Timeout is the wall-clock budget for a single run.
	Timeout time.Duration
}

// UploadSettings controls which source URLs are accepted.
type UploadSettings struct {
	// AllowedHosts are host suffixes remote URLs must match. Empty allows any host.
	AllowedHosts []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	OCR        OCRSettings
	LLM        LLMSettings
	Processing ProcessingSettings
	Storage    StorageSettings
	Blob       BlobSettings
	Cache      CacheSettings
	Dispatch   DispatchSettings
	Upload     UploadSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// OCR and LLM credentials are left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		OCR: OCRSettings{
			Provider: OCRProviderMistral,
			Model:    "mistral-ocr-latest",
		},
		LLM: LLMSettings{
			Provider: AIProviderGroq,
			Model:    DefaultLLMModels()[AIProviderGroq],
		},
		Processing: DefaultProcessingSettings(),
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Blob: BlobSettings{
			Backend: BlobFilesystem,
			S3: S3Settings{
				Region:     "us-east-1",
				PresignTTL: 15 * time.Minute,
			},
		},
		Cache: CacheSettings{
			Backend:    CacheMemory,
			TTL:        24 * time.Hour,
			MaxEntries: 100,
		},
		Dispatch: DispatchSettings{
			Workers: 2,
			Timeout: 5 * time.Minute,
		},
		Upload: UploadSettings{
			AllowedHosts: []string{"uploadthing.com", "utfs.io", "ufs.sh"},
		},
	}
}

// DefaultProcessingSettings returns the pipeline tuning defaults.
func DefaultProcessingSettings() ProcessingSettings {
	return ProcessingSettings{
		ChunkSize:     8000,
		Lookahead:     10,
		MinTextLength: 50,
		FlushEvery:    3,
		PreviewLength: 2000,
		MaxAttempts:   3,
		RetryBackoff:  time.Second,
		Temperature:   0.2,
		MaxTokens:     2048,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGroq,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
		AIProviderOllama,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderGroq:      "mixtral-8x7b-32768",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.5-flash",
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": 8000,
				"lookahead":  10,
			},
		},
	}
}
