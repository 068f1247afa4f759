package vault

// ProgressEvent reports that an encrypt or decrypt operation entered a stage.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the archive or directory the stage works on.
	Path string

	// FilesDone is the number of files completed in this stage.
	FilesDone int

	// FilesTotal is the number of files the stage handles.
	// Zero indicates the count is unknown or not meaningful.
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for encryption and decryption.
const (
	// StageScanning indicates the input directory is being listed.
	StageScanning ProgressStage = iota

	// StageStaging indicates matching files were moved into the staging directory.
	StageStaging

	// StageSealing indicates the archive is being written.
	StageSealing

	// StageRecording indicates the integrity record is being written.
	StageRecording

	// StageRestoring indicates staged files were moved back or deleted.
	StageRestoring

	// StageVerifying indicates the archive is being checked against its record.
	StageVerifying

	// StageExtracting indicates the archive is being decrypted.
	StageExtracting

	// StageCleanup indicates the archive or record is being deleted.
	StageCleanup
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageScanning:
		return "scanning"
	case StageStaging:
		return "staging"
	case StageSealing:
		return "sealing"
	case StageRecording:
		return "recording"
	case StageRestoring:
		return "restoring"
	case StageVerifying:
		return "verifying"
	case StageExtracting:
		return "extracting"
	case StageCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates. Calls are made from the goroutine
// running the operation.
type ProgressFunc func(ProgressEvent)

// report sends an event if fn is set.
func (fn ProgressFunc) report(stage ProgressStage, path string, done, total int) {
	if fn == nil {
		return
	}
	fn(ProgressEvent{Stage: stage, Path: path, FilesDone: done, FilesTotal: total})
}
