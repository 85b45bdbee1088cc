package models

import (
	"time"
)

// UnknownIdentity is recorded when the caller address cannot be resolved.
const UnknownIdentity = "unknown"

// VideoMetadata is the resolved description of a single video. It is never
// mutated once resolved.
type VideoMetadata struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Duration    int    `json:"duration"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
	ViewCount   int64  `json:"viewCount"`
	UploadDate  string `json:"uploadDate"`
}

type PlaylistVideo struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail"`
	Uploader  string `json:"uploader"`
}

type PlaylistInfo struct {
	IsPlaylist bool            `json:"isPlaylist"`
	Title      string          `json:"title"`
	Uploader   string          `json:"uploader"`
	VideoCount int             `json:"videoCount"`
	Videos     []PlaylistVideo `json:"videos"`
}

type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

type AudioFormat string

const (
	FormatMP3 AudioFormat = "mp3"
	FormatM4A AudioFormat = "m4a"
	FormatMP4 AudioFormat = "mp4"
)

// DownloadRequest is built at the HTTP boundary, one per call.
type DownloadRequest struct {
	URL         string
	Quality     string
	Format      string
	AddMetadata bool
	Identity    string
}

// Artifact is a finished audio file in the scratch directory.
type Artifact struct {
	FilePath    string
	FileName    string
	Format      AudioFormat
	ContentType string
	CreatedAt   time.Time
}

// AdStatus is the admission gate result attached to a download.
type AdStatus struct {
	Count            uint64 `json:"count"`
	RequiresAd       bool   `json:"requiresAd"`
	DownloadsUntilAd uint64 `json:"downloadsUntilAd"`
}

type AdAckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AdStatusResponse struct {
	Success          bool   `json:"success"`
	Count            uint64 `json:"count"`
	DownloadsUntilAd uint64 `json:"downloadsUntilAd"`
}

type VideoInfoData struct {
	IsPlaylist bool `json:"isPlaylist"`
	*VideoMetadata
}

type InfoResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}
