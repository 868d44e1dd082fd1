package domain

// ProcessRequest is the input to a single processing run.
type ProcessRequest struct {
	OwnerID    string
	DocumentID string

	// SourceURL locates the PDF. file:// locators refer to local files.
	SourceURL string

	FileName string

	// Title overrides the title derived from FileName.
	Title string

	// Restart resets the record to pending before the run starts.
	// Set by retries so readers see the previous outcome cleared.
	Restart bool
}

// SubmitRequest asks for a new document to be created and processed.
type SubmitRequest struct {
	OwnerID   string
	SourceURL string
	FileName  string
	Title     string
	Source    SourceKind
}

// Explanation is the payload of an AI annotation on a text selection.
type Explanation struct {
	ELI5    string `json:"eli5"`
	Summary string `json:"summary"`
	Jargon  string `json:"jargon"`
}
