package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"
)

const ContentTypeZIP = "application/zip"

// ManifestName is the manifest entry inside every bundle
const ManifestName = "manifest.json"

// File is one entry of a bundle
type File struct {
	Name string
	Data []byte
}

// Manifest describes a bundle's contents
type Manifest struct {
	Title       string            `json:"title"`
	GeneratedAt time.Time         `json:"generated_at"`
	GeneratedBy string            `json:"generated_by"`
	Filter      map[string]string `json:"filter,omitempty"`
	Rows        int               `json:"rows"`
	Files       []string          `json:"files"`
}

// Bundle zips files together with a JSON manifest listing them
func Bundle(manifest Manifest, files ...File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest.Files = make([]string, 0, len(files)+1)
	for _, f := range files {
		manifest.Files = append(manifest.Files, f.Name)
	}

	modified := manifest.GeneratedAt
	if modified.IsZero() {
		modified = time.Now()
	}

	for _, f := range files {
		if err := writeEntry(zw, f.Name, f.Data, modified); err != nil {
			return nil, err
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := writeEntry(zw, ManifestName, data, modified); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish zip: %w", err)
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
