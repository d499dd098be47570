package transport

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fixture is one recorded request and its response body.
type Fixture struct {
	Service    string          `json:"service,omitempty"`
	Method     string          `json:"method"`
	URL        string          `json:"url"`
	Request    json.RawMessage `json:"request,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
	Body       string          `json:"body"`
}

// Key identifies a fixture by what was asked, not by when.
func (f Fixture) Key() string {
	return fixtureKey(f.Method, f.URL, f.Request)
}

// fixtureKey compacts body so indented fixture files match live requests.
func fixtureKey(method, rawURL string, body []byte) string {
	if method == "" {
		method = http.MethodGet
	}
	if len(body) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, body); err == nil {
			body = buf.Bytes()
		}
	}
	return strings.ToUpper(method) + " " + rawURL + " " + string(body)
}

// FileName is stable across recordings of the same request.
func (f Fixture) FileName() string {
	sum := sha256.Sum256([]byte(f.Key()))
	return hex.EncodeToString(sum[:8]) + ".json"
}

// WriteFixture stores f in dir, replacing an earlier recording of the same request.
func WriteFixture(dir string, f Fixture) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create fixtures dir: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal fixture: %w", err)
	}
	path := filepath.Join(dir, f.FileName())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write fixture: %w", err)
	}
	return path, nil
}

// LoadFixtures reads every *.json fixture under dir.
func LoadFixtures(dir string) ([]Fixture, error) {
	var fixtures []Fixture

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var f Fixture
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		fixtures = append(fixtures, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fixtures, nil
}
