package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"hrassist/internal/types"
)

// MIME types of the documents the assistants read
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeText = "text/plain"
)

var (
	textExtensions     = []string{".txt", ".md", ".markdown", ".text"}
	documentExtensions = append([]string{".pdf"}, textExtensions...)
)

// ValidateInputFile checks that a file exists, is a regular file, is readable and is
// not larger than maxSize. A maxSize of zero disables the size check.
func ValidateInputFile(filename string, maxSize int64) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filename)
		}
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	}

	if maxSize > 0 && info.Size() > maxSize {
		return fmt.Errorf("file %s is %s, larger than the %s limit",
			filename, FormatFileSize(info.Size()), FormatFileSize(maxSize))
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filename, err)
	}

	return nil
}

// ValidateOutputFile creates the parent directory of filename when missing. An empty
// filename means stdout.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output directory %s is a file", dir)
		}
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsTextFile checks if the file has a text-based extension
func IsTextFile(filename string) bool {
	return slices.Contains(textExtensions, GetFileExtension(filename))
}

// IsDocumentFile reports whether filename is a PDF or a text file.
func IsDocumentFile(filename string) bool {
	return slices.Contains(documentExtensions, GetFileExtension(filename))
}

// MIMEType treats PDF files as PDF and everything else as plain text.
func MIMEType(filename string) string {
	if GetFileExtension(filename) == ".pdf" {
		return MIMETypePDF
	}
	return MIMETypeText
}

// NewJobDocument builds the extraction input for a job posting read from filename.
// PDFs are passed on as bytes, other files as text.
func NewJobDocument(name, filename string, data []byte) types.JobDocument {
	if MIMEType(filename) == MIMETypePDF {
		return types.JobDocument{Name: name, MIMEType: MIMETypePDF, Data: data}
	}
	return types.JobDocument{Name: name, MIMEType: MIMETypeText, Text: string(data)}
}

// DocumentName is the file name without directory or extension.
func DocumentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
