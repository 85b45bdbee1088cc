package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	ytapi "github.com/kkdai/youtube/v2"
	"github.com/lrstanley/go-ytdlp"

	"github.com/denisAlshanov/audiograb/internal/config"
)

const (
	watchURLTemplate     = "https://www.youtube.com/watch?v=%s"
	thumbnailURLTemplate = "https://i.ytimg.com/vi/%s/default.jpg"
	coverURLTemplate     = "https://i.ytimg.com/vi/%s/hqdefault.jpg"
)

// Client drives yt-dlp through go-ytdlp.
type Client struct {
	config *config.ExtractorConfig
}

// NewClient creates a new extractor client
func NewClient(cfg *config.ExtractorConfig) *Client {
	return &Client{config: cfg}
}

// command builds the option set shared by every invocation: preferred
// format negotiation, browser-identifying headers and the player client hint.
func (c *Client) command(extractorArgs string) *ytdlp.Command {
	cmd := ytdlp.New().
		NoWarnings().
		PreferFreeFormats()

	if c.config.Executable != "" {
		cmd.SetExecutable(c.config.Executable)
	}
	if c.config.Referer != "" {
		cmd.Referer(c.config.Referer)
	}
	if c.config.UserAgent != "" {
		cmd.UserAgent(c.config.UserAgent)
	}
	for _, header := range c.config.Headers {
		cmd.AddHeaders(header)
	}
	if extractorArgs != "" {
		cmd.ExtractorArgs(extractorArgs)
	}
	if c.config.FFmpegLocation != "" {
		cmd.FFmpegLocation(c.config.FFmpegLocation)
	}
	return cmd
}

// ExtractMetadata retrieves video metadata
func (c *Client) ExtractMetadata(ctx context.Context, url string) (*MediaDocument, error) {
	ctx, cancel := withTimeout(ctx, c.config.MetadataTimeout)
	defer cancel()

	result, err := c.command(c.config.ExtractorArgs).
		NoPlaylist().
		DumpSingleJSON().
		Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", describe(result, err))
	}

	return decodeMediaDocument([]byte(result.Stdout))
}

// ExtractPlaylist lists playlist members in flat mode
func (c *Client) ExtractPlaylist(ctx context.Context, url string) (*PlaylistDocument, error) {
	ctx, cancel := withTimeout(ctx, c.config.MetadataTimeout)
	defer cancel()

	result, err := c.command(c.config.PlaylistExtractorArgs).
		DumpSingleJSON().
		FlatPlaylist().
		Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist info: %w", describe(result, err))
	}

	return decodePlaylistDocument([]byte(result.Stdout))
}

// ExtractAudio downloads the source and converts it to the requested container
func (c *Client) ExtractAudio(ctx context.Context, url string, opts AudioOptions) error {
	ctx, cancel := withTimeout(ctx, c.config.AudioTimeout)
	defer cancel()

	result, err := c.command(c.config.ExtractorArgs).
		NoPlaylist().
		ExtractAudio().
		AudioFormat(opts.Format).
		AudioQuality(strconv.Itoa(opts.Quality)).
		Output(opts.OutputPath).
		Run(ctx, url)
	if err != nil {
		return fmt.Errorf("yt-dlp extraction failed: %w", describe(result, err))
	}
	return nil
}

func decodeMediaDocument(data []byte) (*MediaDocument, error) {
	info, err := parseExtractedInfo(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse video info: %w", err)
	}
	if info.ID == "" && deref(info.Title) == "" {
		return nil, fmt.Errorf("video info is empty")
	}

	doc := &MediaDocument{
		ID:          info.ID,
		Title:       deref(info.Title),
		Uploader:    deref(info.Uploader),
		Channel:     deref(info.Channel),
		Thumbnail:   deref(info.Thumbnail),
		Description: deref(info.Description),
		UploadDate:  deref(info.UploadDate),
	}
	if info.Duration != nil {
		doc.Duration = *info.Duration
	}
	if info.ViewCount != nil {
		doc.ViewCount = int64(*info.ViewCount)
	}
	return doc, nil
}

func decodePlaylistDocument(data []byte) (*PlaylistDocument, error) {
	info, err := parseExtractedInfo(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playlist info: %w", err)
	}

	doc := &PlaylistDocument{
		ID:       info.ID,
		Title:    deref(info.Title),
		Uploader: deref(info.Uploader),
		Channel:  deref(info.Channel),
		Entries:  make([]PlaylistEntry, 0, len(info.Entries)),
	}
	for _, entry := range info.Entries {
		if entry == nil {
			continue
		}
		e := PlaylistEntry{
			ID:        entry.ID,
			Title:     deref(entry.Title),
			Thumbnail: deref(entry.Thumbnail),
			Uploader:  deref(entry.Uploader),
			Channel:   deref(entry.Channel),
		}
		if entry.Duration != nil {
			e.Duration = *entry.Duration
		}
		doc.Entries = append(doc.Entries, e)
	}
	return doc, nil
}

// parseExtractedInfo decodes a -J document; the library also blanks
// yt-dlp's "none" placeholders.
func parseExtractedInfo(data []byte) (*ytdlp.ExtractedInfo, error) {
	raw := json.RawMessage(data)
	return ytdlp.ParseExtractedInfo(&raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// describe attaches the tool's stderr to err for the server log.
func describe(result *ytdlp.Result, err error) error {
	if result == nil || strings.TrimSpace(result.Stderr) == "" {
		return err
	}
	return fmt.Errorf("%w | %s", err, strings.TrimSpace(result.Stderr))
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// ParseVideoID extracts the video ID from a YouTube URL. URLs on other
// hosts are rejected before the ID parser, which accepts any long string.
func ParseVideoID(rawURL string) (string, error) {
	if !IsYouTubeURL(rawURL) {
		return "", fmt.Errorf("not a YouTube URL: %s", rawURL)
	}
	id, err := ytapi.ExtractVideoID(rawURL)
	if err != nil {
		return "", fmt.Errorf("could not extract video ID from YouTube URL: %s: %w", rawURL, err)
	}
	return id, nil
}

// IsYouTubeURL reports whether rawURL points at youtube.com or youtu.be.
func IsYouTubeURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be", "youtube-nocookie.com":
		return true
	}
	return false
}

// WatchURL returns the canonical watch URL of a video.
func WatchURL(videoID string) string {
	return fmt.Sprintf(watchURLTemplate, videoID)
}

// DefaultThumbnailURL is the small thumbnail every public video exposes.
func DefaultThumbnailURL(videoID string) string {
	return fmt.Sprintf(thumbnailURLTemplate, videoID)
}

// CoverURL derives a cover image URL from a video URL, or "" when the URL
// does not name a YouTube video.
func CoverURL(rawURL string) string {
	id, err := ParseVideoID(rawURL)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(coverURLTemplate, id)
}
