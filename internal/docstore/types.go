package docstore

import "time"

// VectorDim is the embedding width of the documents.embedding column.
// text-embedding-004 produces 768-dimension vectors.
const VectorDim = 768

// Document is one entry in the knowledge corpus.
type Document struct {
	ID        string            // stable identifier, usually the source path
	Title     string            // human-readable title shown in assembled context
	Content   string            // document text
	Metadata  map[string]string // optional source metadata
	CreatedAt time.Time
}

// Match is a document returned by nearest-neighbour search together with its
// L2 distance from the query embedding. Smaller is closer.
type Match struct {
	Document Document
	Distance float64
}
