package genesis

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNoValidGenesis is returned when every candidate URL failed.
var ErrNoValidGenesis = errors.New("could not get a valid genesis.json")

var gzipMagic = []byte{0x1f, 0x8b}

// Fetcher downloads the genesis document from an ordered list of URLs.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher whose downloads are bounded by timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch tries each URL in order, downloading it to dest, and stops at the
// first one whose body is non-empty and starts with '{'. It returns the
// accepted URL. Later URLs are never contacted.
func (f *Fetcher) Fetch(ctx context.Context, urls []string, dest string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create genesis dir: %w", err)
	}

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		log.Info().Msgf("Trying genesis from: %s", url)
		size, err := f.download(ctx, url, dest)
		if err == nil {
			err = Validate(dest)
		}
		if err != nil {
			log.Warn().Err(err).Msgf("Genesis invalid from %s, trying next...", url)
			continue
		}

		log.Info().Str("path", dest).Int64("size", size).Msg("Genesis downloaded and looks valid!")
		return url, nil
	}

	log.Error().Msg("could not get a valid genesis.json")
	return "", ErrNoValidGenesis
}

func (f *Fetcher) download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := decompress(resp.Body)
	if err != nil {
		return 0, err
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	n, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write %s: %w", dest, err)
	}
	return n, nil
}

// decompress transparently gunzips bodies that start with the gzip magic.
func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !bytes.Equal(head, gzipMagic) {
		return br, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	return zr, nil
}

// Validate performs the sanity check applied to every download: the file
// must be non-empty and its first byte must be '{'.
func Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var first [1]byte
	_, err = io.ReadFull(f, first[:])
	switch {
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%s is empty", path)
	case err != nil:
		return err
	case first[0] != '{':
		return fmt.Errorf("%s does not start with '{'", path)
	}
	return nil
}
