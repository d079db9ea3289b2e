package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxDownloadSize bounds the size of a downloaded resource.
const maxDownloadSize = 4 << 20

// Download retrieves the resource found at the provided url and returns its content.
// Any response status other than 200 is reported as an error.
func Download(ctx context.Context, client *http.Client, uri string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request for %s: %w", uri, err)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download file from URI: %s: %w", uri, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to download file from URI: %s, status %v", uri, res.Status)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}
	return data, nil
}

// IsValidUrl tests a string to determine if it is a well-structured url or not.
func IsValidUrl(uri string) bool {
	_, err := url.ParseRequestURI(uri)
	if err != nil {
		return false
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// DetectContentType detects the MIME type of the content.
// Only the first 512 bytes are used to sniff the content type.
func DetectContentType(data []byte) string {
	// Always returns a valid content-type and "application/octet-stream" if no others seemed to match.
	return http.DetectContentType(data)
}

// IsSVG reports whether the sniffed content looks like an SVG (XML) document.
func IsSVG(data []byte) bool {
	ctype := DetectContentType(data)
	return strings.Contains(ctype, "xml") || strings.Contains(ctype, "svg") ||
		(strings.HasPrefix(ctype, "text/") && strings.Contains(string(data[:Min(len(data), 512)]), "<svg"))
}
