package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/davidahmann/lexgen/internal/digest"
	"github.com/davidahmann/lexgen/pkg/types"
)

func testRecord() types.ContractRecord {
	return types.ContractRecord{
		ID:           12,
		Jurisdiction: "india",
		ContractType: "escrow",
		SolidityCode: "pragma solidity ^0.8.19;\ncontract IndiaEscrow {}\n",
		DeployScript: "async function main() {}\n",
		Tests:        "describe('IndiaEscrow', () => {});\n",
		Metadata:     types.Metadata{"contract_name": "IndiaEscrow", "license": "MIT"},
		RulesDigest:  "sha256:rules",
		Status:       types.StatusDraft,
		CreatedAt:    time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC),
	}
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip reader: %v", err)
	}
	out := map[string][]byte{}
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("open %s: %v", file.Name, err)
		}
		body, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", file.Name, err)
		}
		out[file.Name] = body
	}
	return out
}

func TestBuildZipLayout(t *testing.T) {
	data, err := BuildZip(testRecord())
	if err != nil {
		t.Fatalf("build zip: %v", err)
	}
	files := readZip(t, data)

	for _, name := range []string{
		"contracts/IndiaEscrow.sol",
		"scripts/deploy.js",
		"test/IndiaEscrow.test.js",
		"metadata.json",
		"manifest.json",
	} {
		if _, ok := files[name]; !ok {
			t.Fatalf("missing %s", name)
		}
	}
	if string(files["metadata.json"]) != `{"contract_name":"IndiaEscrow","license":"MIT"}` {
		t.Fatalf("metadata: %s", files["metadata.json"])
	}
}

func TestManifestDigestsMatchFiles(t *testing.T) {
	files, err := BuildFiles(testRecord())
	if err != nil {
		t.Fatalf("build files: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(files["manifest.json"], &manifest); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if manifest.Version != ManifestVersion || manifest.ContractID != 12 || manifest.RulesDigest != "sha256:rules" {
		t.Fatalf("unexpected manifest header: %+v", manifest)
	}
	if len(manifest.Files) != 4 {
		t.Fatalf("expected 4 manifest entries, got %d", len(manifest.Files))
	}
	for _, entry := range manifest.Files {
		body, ok := files[entry.Path]
		if !ok {
			t.Fatalf("manifest lists unknown file %s", entry.Path)
		}
		if entry.SHA256 != digest.WithPrefix(body) || entry.Size != len(body) {
			t.Fatalf("digest mismatch for %s", entry.Path)
		}
	}
}

func TestBuildZipIsDeterministic(t *testing.T) {
	a, err := BuildZip(testRecord())
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := BuildZip(testRecord())
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical archives")
	}
}

func TestBuildFilesDefaultName(t *testing.T) {
	rec := testRecord()
	rec.Metadata = nil
	files, err := BuildFiles(rec)
	if err != nil {
		t.Fatalf("build files: %v", err)
	}
	if _, ok := files["contracts/GeneratedContract.sol"]; !ok {
		t.Fatalf("expected default contract name")
	}
	if string(files["metadata.json"]) != "{}" {
		t.Fatalf("metadata: %s", files["metadata.json"])
	}
	if FileName(rec) != "GeneratedContract-12.zip" {
		t.Fatalf("file name: %s", FileName(rec))
	}
}

func TestBuildFilesSanitizesContractName(t *testing.T) {
	rec := testRecord()
	rec.Metadata = types.Metadata{"contract_name": "../../../tmp/pwn"}

	data, err := BuildZip(rec)
	if err != nil {
		t.Fatalf("build zip: %v", err)
	}
	files := readZip(t, data)
	for name := range files {
		if strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
			t.Fatalf("unsafe entry %q", name)
		}
	}
	if _, ok := files["contracts/tmppwn.sol"]; !ok {
		t.Fatalf("expected sanitized contract path, got %v", files)
	}
	if _, ok := files["test/tmppwn.test.js"]; !ok {
		t.Fatalf("expected sanitized test path")
	}
	if FileName(rec) != "tmppwn-12.zip" {
		t.Fatalf("file name: %s", FileName(rec))
	}
}

func TestSafeName(t *testing.T) {
	cases := map[string]string{
		"FreelanceEscrow": "FreelanceEscrow",
		"My Escrow_v2":    "MyEscrow_v2",
		"../..":           types.DefaultContractName,
		"":                types.DefaultContractName,
		"$%&":             types.DefaultContractName,
	}
	for in, want := range cases {
		if got := SafeName(in); got != want {
			t.Fatalf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildFilesRequiresCode(t *testing.T) {
	if _, err := BuildFiles(types.ContractRecord{}); err != ErrEmptyContract {
		t.Fatalf("expected ErrEmptyContract, got %v", err)
	}
}

func TestWriteZip(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	if err := WriteZip(buf, map[string][]byte{"b.txt": []byte("bravo"), "a.txt": []byte("alpha")}); err != nil {
		t.Fatalf("write zip: %v", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip reader: %v", err)
	}
	if len(reader.File) != 2 || reader.File[0].Name != "a.txt" {
		t.Fatalf("expected sorted entries")
	}
}
