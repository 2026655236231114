package moleprep

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Fetcher downloads remote archives to local paths.
//
// A destination file that already exists is trusted as a completed
// prior download: no network operation occurs and no integrity check
// is performed. Deleting the file forces a re-download.
type Fetcher struct {
	// Client performs the transfer. Defaults to http.DefaultClient.
	Client *http.Client

	// Exists is the skip precondition, overridable in tests.
	// Defaults to a regular-file stat probe.
	Exists func(path string) bool

	Logger *log.Logger
}

// Fetch ensures dest contains the resource at url.
//
// The transfer is blocking and unretried; any transport failure,
// non-2xx status, or short write surfaces as a *FetchError. A partial
// download is removed so a rerun starts clean.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	exists := f.Exists
	if exists == nil {
		exists = fileExists
	}
	if exists(dest) {
		f.log().Info("archive already downloaded, skipping", "dest", dest)
		return nil
	}

	f.log().Info("downloading", "url", url, "dest", dest)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &FetchError{URL: url, Dest: dest, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{URL: url, Dest: dest, Err: err}
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return &FetchError{URL: url, Dest: dest, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{URL: url, Dest: dest, Err: errors.Errorf("unexpected status %s", resp.Status)}
	}

	out, err := os.Create(dest)
	if err != nil {
		return &FetchError{URL: url, Dest: dest, Err: err}
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return &FetchError{URL: url, Dest: dest, Err: errors.Wrap(err, "transfer truncated")}
	}

	if err := out.Close(); err != nil {
		os.Remove(dest)
		return &FetchError{URL: url, Dest: dest, Err: err}
	}

	return nil
}

func (f *Fetcher) log() *log.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return log.Default()
}
