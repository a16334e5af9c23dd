package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

// uploadAndWait drives a video through the file API handshake: resumable
// upload, then polling until the service reports the file ACTIVE. Videos can
// take a while to process, so polling is bounded by the processing deadline
// rather than an attempt count. After ACTIVE an extra settle delay absorbs
// backend propagation lag before the file is referenced in a request.
func (c *Client) uploadAndWait(ctx context.Context, video *domain.MediaFile) (*fileInfo, error) {
	slog.InfoContext(ctx, "Starting video upload", "file", video.Name, "size", video.Size)

	info, err := c.upload(ctx, video)
	if err != nil {
		return nil, &domain.UploadError{FileName: video.Name, Reason: err.Error()}
	}

	deadline := time.Now().Add(c.processingDeadline)
	for info.State == fileStateProcessing {
		if time.Now().After(deadline) {
			return nil, &domain.UploadError{
				FileName: video.Name,
				Reason:   fmt.Sprintf("still processing after %s", c.processingDeadline),
				Timeout:  true,
			}
		}
		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return nil, &domain.UploadError{FileName: video.Name, Reason: err.Error()}
		}

		info, err = c.getFile(ctx, info.Name)
		if err != nil {
			return nil, &domain.UploadError{FileName: video.Name, Reason: err.Error()}
		}
		slog.DebugContext(ctx, "Polled file state", "file", video.Name, "state", info.State)
	}

	if info.State == fileStateFailed {
		reason := "unknown reason"
		if info.Error != nil && info.Error.Message != "" {
			reason = info.Error.Message
		}
		return nil, &domain.UploadError{FileName: video.Name, Reason: reason}
	}

	if info.State != fileStateActive {
		return nil, &domain.UploadError{FileName: video.Name, Reason: fmt.Sprintf("unexpected file state %s", info.State)}
	}

	// The file can take a few seconds to become usable after ACTIVE.
	if err := sleepCtx(ctx, c.settleDelay); err != nil {
		return nil, &domain.UploadError{FileName: video.Name, Reason: err.Error()}
	}

	slog.InfoContext(ctx, "Video ready", "file", video.Name, "uri", info.URI)
	return info, nil
}

// upload performs the two-step resumable upload: a start request that yields
// the upload URL, then a single finalizing write of the file bytes.
func (c *Client) upload(ctx context.Context, video *domain.MediaFile) (*fileInfo, error) {
	startBody := uploadStartRequest{}
	startBody.File.DisplayName = video.Name
	payload, err := json.Marshal(startBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling upload start: %w", err)
	}

	startURL := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, startURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating upload start request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(video.Size, 10))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", video.MimeType)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("starting upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload start failed with status %d", resp.StatusCode)
	}

	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return nil, fmt.Errorf("upload start response is missing the upload URL")
	}

	f, err := os.Open(video.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", video.Path, err)
	}
	defer f.Close()

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, f)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	req.ContentLength = video.Size
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")

	resp, err = c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading file bytes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	var finalized uploadFinalizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&finalized); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}

	return &finalized.File, nil
}

func (c *Client) getFile(ctx context.Context, name string) (*fileInfo, error) {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating file status request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching file status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file status request failed with status %d", resp.StatusCode)
	}

	var info fileInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding file status: %w", err)
	}
	return &info, nil
}
