package domain

const MaxVideoSizeBytes = 250 * 1024 * 1024 // 250 MiB per uploaded video

// MediaFile is a candidate video upload. Path points at the spooled copy on
// local disk; validation only looks at Name, Size and MimeType.
type MediaFile struct {
	Name     string
	Size     int64
	MimeType string
	Path     string
}
