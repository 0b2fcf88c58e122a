package types

// Extraction types recorded on knowledge base entries. Together with the
// source file name they form the idempotency key that lets repeated
// ingestion runs skip already-processed documents.
const (
	TypeTextLayer = "text_layer"
	TypeOCRLayer  = "ocr_layer"
)

// Entry pairs one chunk of source text with its embedding vector. The JSON
// tags define the partition file format: an ordered array of these objects,
// UTF-8, indented. ID is the chunk's sequence position within its source
// document, not a global identifier.
type Entry struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	Embedding []float64 `json:"embedding"`
	File      string    `json:"file,omitempty"`
	Type      string    `json:"type,omitempty"`
}

// SourceKey identifies a processed (document, extraction method) pair.
type SourceKey struct {
	File string
	Type string
}

func (e Entry) Key() SourceKey {
	return SourceKey{File: e.File, Type: e.Type}
}

// ScoredEntry is an entry annotated with its similarity to a query vector.
type ScoredEntry struct {
	Entry Entry
	Score float64
}
