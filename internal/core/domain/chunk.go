package domain

import "time"

// Chunk represents a retrievable unit of transcript text with its embedding.
// Chunks are written once by the ingestion pipeline and never mutated here.
// Identity is (Channel, VideoID, ChunkIndex).
type Chunk struct {
	// ID is the storage-level identifier for the chunk.
	ID string

	// Channel is the name of the channel corpus this chunk belongs to.
	Channel string

	// VideoID identifies the source video.
	VideoID string

	// Title is the video title.
	Title string

	// Text is the transcript text of this chunk.
	Text string

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// UploadDate is when the source video was uploaded, if known.
	UploadDate time.Time

	// Timestamp is the position of the chunk within the video, if known.
	Timestamp string

	// ChunkIndex is the ordinal position within the video transcript.
	ChunkIndex int

	// Metadata carries extra ingestion-provided fields (duration, topic, ...).
	Metadata map[string]any
}

// Ref returns the dedup identity of the chunk.
func (c Chunk) Ref() ChunkRef {
	return ChunkRef{VideoID: c.VideoID, ChunkIndex: c.ChunkIndex}
}

// ChunkRef identifies a chunk within a channel for deduplication.
type ChunkRef struct {
	VideoID    string
	ChunkIndex int
}

// ChannelInfo summarises one channel corpus.
type ChannelInfo struct {
	// Name is the channel name.
	Name string

	// Chunks is the number of stored chunks.
	Chunks int
}
