package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FileURLResolver turns a Telegram file ID into a download URL.
// *tgbotapi.BotAPI implements it.
type FileURLResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// FileDownloader streams Telegram files to a writer.
type FileDownloader struct {
	resolver FileURLResolver
	client   *http.Client
}

// NewFileDownloader creates a downloader. A nil client gets a 60s timeout client.
func NewFileDownloader(resolver FileURLResolver, client *http.Client) *FileDownloader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &FileDownloader{resolver: resolver, client: client}
}

// Download writes the file behind fileID to dst and returns the byte count.
// Errors never contain the download URL, which embeds the bot token.
func (d *FileDownloader) Download(ctx context.Context, fileID string, dst io.Writer) (int64, error) {
	fileURL, err := d.resolver.GetFileDirectURL(fileID)
	if err != nil {
		return 0, fmt.Errorf("resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request for file %s: %w", fileID, stripURL(err))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch file %s: %w", fileID, stripURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("fetch file %s: http %d: %s", fileID, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read file %s: %w", fileID, err)
	}
	return n, nil
}

func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
