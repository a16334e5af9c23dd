package mediagate

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

const maxFileSizeMB = domain.MaxVideoSizeBytes / (1024 * 1024)

// Report is the outcome of validating one batch of candidate uploads.
// Rejections are batched into at most two human-readable messages, never one
// notification per file.
type Report struct {
	Accepted []domain.MediaFile
	Messages []string
	Err      error
}

// Classify splits a batch of candidate files into accepted videos and
// rejected files (wrong type or oversized). It performs no I/O; acceptance
// only looks at the declared media type and byte size. Accepted files keep
// their submission order.
func Classify(files []domain.MediaFile) Report {
	var report Report
	var oversized, nonVideo []string

	for _, file := range files {
		if !strings.HasPrefix(file.MimeType, "video/") {
			nonVideo = append(nonVideo, file.Name)
			report.Err = multierror.Append(report.Err, fmt.Errorf("%s: not a video (%s)", file.Name, file.MimeType))
			continue
		}
		if file.Size > domain.MaxVideoSizeBytes {
			oversized = append(oversized, fmt.Sprintf("%s (%.1fMB)", file.Name, float64(file.Size)/(1024*1024)))
			report.Err = multierror.Append(report.Err, fmt.Errorf("%s: exceeds %dMB limit", file.Name, maxFileSizeMB))
			continue
		}
		report.Accepted = append(report.Accepted, file)
	}

	if len(oversized) > 0 {
		report.Messages = append(report.Messages, fmt.Sprintf(
			"The following files are too large (limit is %dMB): %s. Please split them into smaller chunks using a tool like QuickTime or Clipchamp.",
			maxFileSizeMB, strings.Join(oversized, ", ")))
	}
	if len(nonVideo) > 0 {
		report.Messages = append(report.Messages, fmt.Sprintf(
			"The following files were ignored because they are not videos: %s.",
			strings.Join(nonVideo, ", ")))
	}

	return report
}
