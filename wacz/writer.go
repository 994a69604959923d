package wacz

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"time"

	webarchive "github.com/fairuse/webarchive"
	"github.com/fairuse/webarchive/cdxj"
)

// FileStore persists a finished package under path. It mirrors
// FilesStoreProtocol from the original source, with Local and S3
// implementations in this package.
type FileStore interface {
	Persist(ctx context.Context, path string, data []byte) error
}

// Writer assembles a WACZ package from one WARC file's bytes: it generates
// the CDXJ index, builds a STORED (uncompressed) ZIP containing the index,
// the WARC, and a datapackage.json manifest, then hands the result to a
// FileStore.
type Writer struct {
	Store          FileStore
	CollectionName string
	Title          string
	Description    string
}

// NewWriter returns a Writer that persists packages through store under
// collectionName.
func NewWriter(store FileStore, collectionName string) *Writer {
	return &Writer{Store: store, CollectionName: collectionName}
}

// Write generates index.cdxj for warcData, packages it alongside warcData
// (stored under archive/<base name of warcFilename>) and a datapackage.json
// manifest, and persists the result at outputPath.
func (w *Writer) Write(ctx context.Context, warcFilename string, warcData []byte, outputPath string) error {
	baseName := path.Base(warcFilename)

	records, err := cdxj.GenerateFromWARC(bytes.NewReader(warcData), baseName)
	if err != nil {
		return fmt.Errorf("wacz: generate cdxj index: %w", err)
	}

	var cdxjBuf bytes.Buffer
	for _, rec := range records {
		line, err := rec.Line()
		if err != nil {
			return fmt.Errorf("wacz: emit cdxj line: %w", err)
		}
		cdxjBuf.WriteString(line)
		cdxjBuf.WriteByte('\n')
	}
	cdxjBytes := cdxjBuf.Bytes()

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)

	cdxjResource, err := writeStoredMember(zw, indexesDir+"index.cdxj", cdxjBytes)
	if err != nil {
		return err
	}
	warcResource, err := writeStoredMember(zw, archiveDir+baseName, warcData)
	if err != nil {
		return err
	}

	packageDict := w.packageDict()
	mainPageURL, mainPageDate := findMainPageRequest(warcData)
	if mainPageURL != "" {
		packageDict["mainPageUrl"] = mainPageURL
		packageDict["mainPageDate"] = mainPageDate
	}
	packageDict["resources"] = []map[string]any{cdxjResource, warcResource}

	datapackageBytes, err := json.MarshalIndent(packageDict, "", "  ")
	if err != nil {
		return fmt.Errorf("wacz: marshal datapackage.json: %w", err)
	}
	if _, err := writeStoredMember(zw, datapackageFilename, datapackageBytes); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("wacz: close zip writer: %w", err)
	}

	if err := w.Store.Persist(ctx, outputPath, zipBuf.Bytes()); err != nil {
		return fmt.Errorf("wacz: persist %s: %w", outputPath, err)
	}
	return nil
}

func writeStoredMember(zw *zip.Writer, name string, content []byte) (map[string]any, error) {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return nil, fmt.Errorf("wacz: create zip entry %s: %w", name, err)
	}
	if _, err := fw.Write(content); err != nil {
		return nil, fmt.Errorf("wacz: write zip entry %s: %w", name, err)
	}

	sum := sha256.Sum256(content)
	return map[string]any{
		"name":  path.Base(name),
		"path":  name,
		"hash":  "sha256:" + hex.EncodeToString(sum[:]),
		"bytes": len(content),
	}, nil
}

func (w *Writer) packageDict() map[string]any {
	now := time.Now().UTC().Format(time.RFC3339)
	title := w.Title
	if title == "" {
		title = w.CollectionName
	}
	description := w.Description
	if description == "" {
		description = fmt.Sprintf(
			"Web archive generated for the %s collection. Replayable as HTML if the site does not depend on JavaScript.",
			w.CollectionName,
		)
	}

	return map[string]any{
		"profile":      "data-package",
		"title":        title,
		"description":  description,
		"created":      now,
		"modified":     now,
		"wacz_version": waczVersion,
		"software":     "webarchive/0.1",
	}
}

// findMainPageRequest scans warcData for the first "request" record and
// returns its target URI and date, matching
// WaczFileCreator.update_package_metadata_from_warc.
func findMainPageRequest(warcData []byte) (url string, date string) {
	reader := webarchive.NewReader(bytes.NewReader(warcData))
	for {
		rec, err := reader.Next()
		if err != nil {
			return "", ""
		}
		if rec.Type() == webarchive.TypeRequest {
			return rec.TargetURI(), rec.Date().UTC().Format(time.RFC3339)
		}
	}
}
