package domain

import "errors"

// ErrNoInput means the user provided neither a description nor a video; the
// pipeline is never invoked for it.
var ErrNoInput = errors.New("provide a feature description or upload a demo video")

// ErrRunInFlight rejects starting a second run while one is still active.
var ErrRunInFlight = errors.New("a generation run is already in progress")

// ErrNotFound is returned by repositories for missing entities.
var ErrNotFound = errors.New("not found")

// UploadError means the media upload-and-activation handshake did not produce
// a usable file: the upload itself failed, the service reported the file
// FAILED, or processing exceeded the deadline.
type UploadError struct {
	FileName string
	Reason   string
	Timeout  bool
}

func (e *UploadError) Error() string {
	if e.Timeout {
		return "file processing timed out for " + e.FileName + ": " + e.Reason
	}
	return "file processing failed for " + e.FileName + ": " + e.Reason
}

// MalformedResponseError means the generation service answered, but with
// something that is not the agreed document set: unparseable JSON or a
// missing required field. Kept distinct from transport failures so the user
// gets an actionable message.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "the AI returned a malformed response: " + e.Reason
}

// ServiceError is a failure reported by the generation service itself.
// Transient marks server-side fault classes worth retrying later.
type ServiceError struct {
	Message   string
	Transient bool
}

func (e *ServiceError) Error() string {
	if e.Transient {
		return "the AI service is currently unavailable, please try again later"
	}
	return e.Message
}
