package bsa

// ProgressEvent represents a progress update during Write.
type ProgressEvent struct {
	// Stage identifies the current phase of the write.
	Stage ProgressStage

	// Path is the archive-relative file currently being processed, if applicable.
	Path string

	// BytesDone is the number of payload bytes written so far.
	BytesDone uint64

	// BytesTotal is the total payload bytes of the archive.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of files completed in the current stage.
	FilesDone int

	// FilesTotal is the total number of files.
	FilesTotal int
}

// ProgressStage identifies the current phase of a write.
type ProgressStage uint8

const (
	// StageSizing indicates source file sizes are being read.
	StageSizing ProgressStage = iota

	// StageWritingRecords indicates the header and record tables are being written.
	StageWritingRecords

	// StageWritingData indicates file payloads are being written.
	StageWritingData

	// StagePatching indicates file records are being rewritten with final offsets.
	StagePatching
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageSizing:
		return "sizing"
	case StageWritingRecords:
		return "writing records"
	case StageWritingData:
		return "writing data"
	case StagePatching:
		return "patching"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during Write.
// It is called from the writing goroutine only.
type ProgressFunc func(ProgressEvent)
