package gdpr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"learnhub/internal/security"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
)

const (
	exportFilePrefix = "user-data-export"
	exportEntryName  = "user-data-export.json"

	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXML  = "xml"
)

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// ExportUserData writes the subject's data to a zip artifact in the export
// directory and returns where it went.
func (s *Service) ExportUserData(ctx context.Context, subjectID, requesterID uuid.UUID) (*ExportResult, error) {
	const op = "export"
	details := map[string]any{"requestedBy": requesterID.String()}

	if err := s.authorize(ctx, op, subjectID, requesterID); err != nil {
		return nil, s.fail(op, ActionDataExportFailed, subjectID, details, err)
	}
	s.emitExportRequest(ctx, subjectID, requesterID)

	result, err := s.export(ctx, op, subjectID)
	if err != nil {
		return nil, s.fail(op, ActionDataExportFailed, subjectID, details, err)
	}

	details["fileName"] = result.FileName
	details["dataTypes"] = result.DataTypes
	details["recordCount"] = result.RecordCount
	s.succeed(op, ActionDataExport, subjectID, details)
	return result, nil
}

func (s *Service) export(ctx context.Context, op string, subjectID uuid.UUID) (*ExportResult, error) {
	bundle, err := s.collect(ctx, subjectID)
	if err != nil {
		return nil, newError(op, KindCollection, err)
	}
	now := s.clock.Now().UTC()
	doc := s.document(subjectID, bundle, now)

	path, err := s.writeArtifact(subjectID, doc, now)
	if err != nil {
		return nil, newError(op, KindStorage, err)
	}
	return &ExportResult{
		FilePath:    path,
		FileName:    filepath.Base(path),
		DataTypes:   doc.ExportMetadata.DataTypes,
		RecordCount: bundle.RecordCount(),
		ExportedAt:  now,
	}, nil
}

func (s *Service) document(subjectID uuid.UUID, bundle *Bundle, now time.Time) exportDocument {
	return exportDocument{
		Bundle: bundle,
		ExportMetadata: ExportMetadata{
			ExportDate:     now,
			UserID:         subjectID,
			DataTypes:      bundle.DataTypes(),
			GDPRCompliance: complianceStamp,
			Version:        exportVersion,
		},
	}
}

func (s *Service) emitExportRequest(ctx context.Context, subjectID, requesterID uuid.UUID) {
	if s.events == nil {
		return
	}
	client := security.ClientFrom(ctx)
	_, _ = s.events.LogEvent(ctx, security.DataExportRequest, security.Details{
		IP:        client.IP,
		UserAgent: client.UserAgent,
		UserID:    requesterID.String(),
		Reason:    "gdpr_export",
		Extra:     map[string]any{"subjectId": subjectID.String()},
	})
}

func exportBaseName(subjectID uuid.UUID, now time.Time) string {
	stamp := stampReplacer.Replace(now.UTC().Format("2006-01-02T15:04:05.000Z"))
	return fmt.Sprintf("%s-%s-%s", exportFilePrefix, subjectID, stamp)
}

// writeArtifact serializes doc to a JSON file, zips it and removes the JSON.
// On failure nothing is left behind.
func (s *Service) writeArtifact(subjectID uuid.UUID, doc exportDocument, now time.Time) (string, error) {
	if err := os.MkdirAll(s.cfg.ExportDir, 0o750); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	base := filepath.Join(s.cfg.ExportDir, exportBaseName(subjectID, now))
	jsonPath := base + ".json"
	zipPath := base + ".zip"

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	defer os.Remove(jsonPath)

	if err := zipFile(zipPath, jsonPath, now); err != nil {
		os.Remove(zipPath)
		return "", fmt.Errorf("compress export: %w", err)
	}
	return zipPath, nil
}

func zipFile(zipPath, srcPath string, modified time.Time) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(zipPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     exportEntryName,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err == nil {
		_, err = io.Copy(entry, src)
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// ExportPortable returns the subject's data in a machine-readable format
// along with its content type. Only JSON is produced; CSV and XML have no
// agreed schema and are rejected as unsupported.
func (s *Service) ExportPortable(ctx context.Context, subjectID uuid.UUID, format string) ([]byte, string, error) {
	const op = "portable"
	switch strings.ToLower(format) {
	case FormatJSON, "":
	case FormatCSV, FormatXML:
		return nil, "", s.fail(op, ActionDataExportFailed, subjectID, map[string]any{"format": format},
			newError(op, KindUnsupported, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)))
	default:
		return nil, "", s.fail(op, ActionDataExportFailed, subjectID, map[string]any{"format": format},
			newError(op, KindInvalid, fmt.Errorf("unknown export format %q", format)))
	}

	bundle, err := s.collect(ctx, subjectID)
	if err != nil {
		return nil, "", s.fail(op, ActionDataExportFailed, subjectID, map[string]any{"format": FormatJSON},
			newError(op, KindCollection, err))
	}
	data, err := json.Marshal(s.document(subjectID, bundle, s.clock.Now().UTC()))
	if err != nil {
		return nil, "", newError(op, KindStorage, err)
	}
	s.succeed(op, ActionDataExport, subjectID, map[string]any{
		"format":      FormatJSON,
		"dataTypes":   bundle.DataTypes(),
		"recordCount": bundle.RecordCount(),
	})
	return data, "application/json", nil
}
