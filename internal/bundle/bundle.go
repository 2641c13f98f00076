// Package bundle exports a stored contract as a zip archive laid out like a
// Hardhat project.
package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/davidahmann/lexgen/internal/digest"
	"github.com/davidahmann/lexgen/pkg/types"
)

const ManifestVersion = "lexgen.bundle.v1"

var ErrEmptyContract = errors.New("contract has no solidity code")

// zip entries carry a fixed timestamp so equal records produce equal archives.
var fixedModTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type ManifestFile struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int    `json:"size"`
}

type Manifest struct {
	Version      string         `json:"version"`
	ContractID   int64          `json:"contract_id"`
	ContractName string         `json:"contract_name"`
	Jurisdiction string         `json:"jurisdiction"`
	ContractType string         `json:"contract_type"`
	Status       string         `json:"status"`
	RulesDigest  string         `json:"rules_digest,omitempty"`
	CreatedAt    string         `json:"created_at"`
	Files        []ManifestFile `json:"files"`
}

// FileName returns the archive name for rec.
func FileName(rec types.ContractRecord) string {
	return fmt.Sprintf("%s-%d.zip", SafeName(rec.Metadata.ContractName()), rec.ID)
}

// SafeName reduces a model-supplied contract name to [A-Za-z0-9_] so it can
// be used as a path segment. An empty result becomes DefaultContractName.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return types.DefaultContractName
	}
	return b.String()
}

// BuildFiles returns the archive contents keyed by path, manifest included.
func BuildFiles(rec types.ContractRecord) (map[string][]byte, error) {
	if strings.TrimSpace(rec.SolidityCode) == "" {
		return nil, ErrEmptyContract
	}

	name := SafeName(rec.Metadata.ContractName())
	metadata, err := digest.Canonicalize(map[string]any(rec.Metadata.Clone()))
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}

	files := map[string][]byte{
		"contracts/" + name + ".sol": []byte(rec.SolidityCode),
		"scripts/deploy.js":          []byte(rec.DeployScript),
		"test/" + name + ".test.js":  []byte(rec.Tests),
		"metadata.json":              metadata,
	}

	manifest := Manifest{
		Version:      ManifestVersion,
		ContractID:   rec.ID,
		ContractName: name,
		Jurisdiction: rec.Jurisdiction,
		ContractType: rec.ContractType,
		Status:       string(rec.Status),
		RulesDigest:  rec.RulesDigest,
		CreatedAt:    rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, path := range sortedPaths(files) {
		manifest.Files = append(manifest.Files, ManifestFile{
			Path:   path,
			SHA256: digest.WithPrefix(files[path]),
			Size:   len(files[path]),
		})
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	files["manifest.json"] = append(manifestJSON, '\n')
	return files, nil
}

// BuildZip renders rec as a zip archive.
func BuildZip(rec types.ContractRecord) ([]byte, error) {
	files, err := BuildFiles(rec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteZip(&buf, files); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteZip writes files in path order.
func WriteZip(w io.Writer, files map[string][]byte) error {
	zw := zip.NewWriter(w)
	for _, path := range sortedPaths(files) {
		header := &zip.FileHeader{Name: path, Method: zip.Deflate, Modified: fixedModTime}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			_ = zw.Close()
			return err
		}
		if _, err := fw.Write(files[path]); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func sortedPaths(files map[string][]byte) []string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
