package domain

import "time"

// ProcessingStatus tracks where a document is in the ingestion pipeline.
type ProcessingStatus string

// Document processing states.
const (
	// StatusPending is set when the record is created, before the job starts.
	StatusPending ProcessingStatus = "pending"

	// StatusProcessing is set from the first preview flush until the last chunk.
	StatusProcessing ProcessingStatus = "processing"

	// StatusCompleted is terminal for a successful run.
	StatusCompleted ProcessingStatus = "completed"

	// StatusFailed is terminal for a failed run. Document.Error carries the reason.
	StatusFailed ProcessingStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true when no run is expected to touch the record again.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String returns the string representation.
func (s ProcessingStatus) String() string {
	return string(s)
}

// SourceKind records how a document entered the system.
type SourceKind string

// Document sources.
const (
	SourceUpload SourceKind = "upload"
	SourceURL    SourceKind = "url"
	SourceManual SourceKind = "manual"
)

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceUpload, SourceURL, SourceManual:
		return true
	default:
		return false
	}
}

// Document is a user-owned reading record produced by the ingestion pipeline.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// OwnerID identifies the user that owns the document.
	OwnerID string

	// Title is the human-readable title.
	Title string

	// ContentRef points at the markdown blob. Empty until the first flush.
	ContentRef string

	// Source records how the document was submitted.
	Source SourceKind

	// SourceURL is the locator of the original PDF.
	SourceURL string

	// FileName is the name of the uploaded file.
	FileName string

	// Status is the processing state.
	Status ProcessingStatus

	// Progress is a percentage in [0, 100]. It never decreases within a run.
	Progress int

	// Error is the failure reason. Only set when Status is StatusFailed.
	Error string

	// Metadata is replaced as a whole on every flush.
	Metadata *Metadata

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last patched.
	UpdatedAt time.Time
}

// Metadata describes the assembled content of a document.
type Metadata struct {
	Author        string   `json:"author,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	Tags          []string `json:"tags,omitempty"`

	// WordCount is the number of words in the assembled content.
	WordCount int `json:"wordCount"`

	// EstimatedReadingTime is in whole minutes.
	EstimatedReadingTime int `json:"estimatedReadingTime"`

	// Images lists stored images in extraction order.
	Images []ImageRef `json:"images,omitempty"`
}

// Clone returns a deep copy of the metadata.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	if m.Images != nil {
		out.Images = append([]ImageRef(nil), m.Images...)
	}
	return &out
}

// ImageRef links an extracted image to its stored blob.
type ImageRef struct {
	// Index is the 1-based position in extraction order.
	Index int `json:"index"`

	// ID is the OCR-assigned identifier, or img-{Index} when absent.
	ID string `json:"id"`

	// StorageRef is the blob reference.
	StorageRef string `json:"storageId"`
}

// ExtractedImage is an image decoded from an OCR result but not yet stored.
type ExtractedImage struct {
	Index int
	ID    string

	// DataURI is a normalised data:<mime>;base64,<payload> string.
	DataURI string
}

// DocumentPatch describes a partial update to a document record.
// Nil fields are left untouched. Metadata, when set, replaces the whole value.
type DocumentPatch struct {
	Title      *string
	ContentRef *string
	Status     *ProcessingStatus
	Progress   *int
	Error      *string
	Metadata   *Metadata
}

// Apply writes the non-nil fields of p onto doc.
func (p DocumentPatch) Apply(doc *Document) {
	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.ContentRef != nil {
		doc.ContentRef = *p.ContentRef
	}
	if p.Status != nil {
		doc.Status = *p.Status
	}
	if p.Progress != nil {
		doc.Progress = *p.Progress
	}
	if p.Error != nil {
		doc.Error = *p.Error
	}
	if p.Metadata != nil {
		doc.Metadata = p.Metadata.Clone()
	}
}

// Chunk is a contiguous slice of document text processed as a unit.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Draft is normalised document text waiting to be chunked.
type Draft struct {
	DocumentID string
	Content    string
}
