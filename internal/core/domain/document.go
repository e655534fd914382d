package domain

import "time"

type IngestionState string

const (
	StatePending    IngestionState = "pending"
	StateProcessing IngestionState = "processing"
	StateCompleted  IngestionState = "completed"
	StateFailed     IngestionState = "failed"
)

// IsTerminal reports whether the state admits no further transitions.
func (s IngestionState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Document is the record created at upload time. The stored name carries the
// document id as a prefix so the file can be located by scanning for "<id>_".
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	StoredName  string    `json:"stored_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StoragePath string    `json:"storage_path"`
	OwnerID     string    `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IngestionMetadata is recorded on a successful pipeline run.
type IngestionMetadata struct {
	ChunksCreated int      `json:"chunks_created"`
	ChunkIDs      []string `json:"chunk_ids"`
	Collection    string   `json:"collection"`
}

// IngestionStatus tracks one document's progress through the pipeline.
// The pipeline is the only writer; status queries only read.
type IngestionStatus struct {
	DocumentID  string             `json:"document_id"`
	State       IngestionState     `json:"state"`
	StoragePath string             `json:"storage_path"`
	Metadata    *IngestionMetadata `json:"metadata,omitempty"`
	Error       string             `json:"error,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Unit is one loadable portion of a document: the whole file for plain text,
// a single page for PDF.
type Unit struct {
	Text string
	Page int
}

// Chunk is the unit of embedding and retrieval.
type Chunk struct {
	Text       string `json:"text"`
	DocumentID string `json:"document_id"`
	SourceFile string `json:"source_file"`
	Page       int    `json:"page"`
	Index      int    `json:"chunk_index"`
}

// StoredChunk is a chunk as returned from the vector index, carrying the id
// generated at storage time.
type StoredChunk struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	DocumentID string `json:"document_id"`
	SourceFile string `json:"source_file"`
	Page       int    `json:"page"`
	Index      int    `json:"chunk_index"`
}

// DocumentContext is the assembled content for a question-answering request.
type DocumentContext struct {
	DocumentID  string        `json:"document_id"`
	FullContent string        `json:"full_content"`
	Chunks      []StoredChunk `json:"chunks"`
	TotalChunks int           `json:"total_chunks"`
}

// ChatTurn is one exchange in a document's append-only chat log.
type ChatTurn struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	OwnerID    string    `json:"owner_id,omitempty"`
	UserMsg    string    `json:"user_message"`
	AIResponse string    `json:"ai_response"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Message is a role-tagged message for the completion service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Identity is a verified caller, produced by the token verifier.
type Identity struct {
	Subject string
}
