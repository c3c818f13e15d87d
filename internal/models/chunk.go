package models

// ChunkInput is a chunk ready to be ingested into the knowledge base.
type ChunkInput struct {
	Text       string
	DocType    DocType
	SourceFile string
}

// KnowledgeChunk is a stored unit of reference text.
type KnowledgeChunk struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	DocType    string `json:"doc_type"`
	SourceFile string `json:"source"`
}

// RetrievalQuery asks for the K chunks of DocType most similar to Text.
type RetrievalQuery struct {
	Text    string
	DocType DocType
	K       int
}

// RetrievedChunk is a KnowledgeChunk ranked by cosine similarity to a query.
type RetrievedChunk struct {
	KnowledgeChunk
	Similarity float32 `json:"similarity"`
}
