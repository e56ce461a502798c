package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`(?:-H|--header)\s+(?:'([^']+)'|"([^"]+)")`)
	curlCookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+(?:'([^']+)'|"([^"]+)")`)
)

// BrowserHeaders are the request headers of a signed-in YouTube Music browser
// session. The proxy authenticates with them when given the file via X-Auth-File.
type BrowserHeaders map[string]string

// ParseCurlFile reads a request saved with the browser's "Copy as cURL".
func ParseCurlFile(path string) (BrowserHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts headers from a cURL command. Keys are lowercased.
// A cookie passed with -b wins over a Cookie header. The session cookie is required.
func ParseCurlCommand(command string) (BrowserHeaders, error) {
	command = strings.ReplaceAll(command, "\\\n", " ")
	command = strings.ReplaceAll(command, "^\n", " ")

	headers := BrowserHeaders{}
	for _, m := range curlHeaderRegex.FindAllStringSubmatch(command, -1) {
		key, value, ok := strings.Cut(firstGroup(m), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}

	if m := curlCookieRegex.FindStringSubmatch(command); m != nil {
		headers["cookie"] = strings.TrimSpace(firstGroup(m))
	}

	if headers["cookie"] == "" {
		return nil, fmt.Errorf("%w: no cookie found in curl command", ErrInvalidArgument)
	}
	return headers, nil
}

func firstGroup(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// Raw renders newline separated "key: value" pairs in key order.
func (h BrowserHeaders) Raw() string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + ": " + h[k]
	}
	return strings.Join(lines, "\n")
}

// WriteAuthFile stores the headers as JSON, readable only by the owner.
func (h BrowserHeaders) WriteAuthFile(path string) error {
	if path == "" {
		return fmt.Errorf("%w: auth file path", ErrMissingArgument)
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create auth file directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	return nil
}
