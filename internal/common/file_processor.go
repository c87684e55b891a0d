package common

import (
	"fmt"
	"os"
	"path/filepath"

	"skilllink/internal/errors"
	"skilllink/internal/parser"
	"skilllink/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	maxFileSize int64
	logger      *errors.Logger
}

// NewFileProcessor creates a new file processor instance. A
// non-positive maxFileSize disables the size cap.
func NewFileProcessor(maxFileSize int64, logger *errors.Logger) *FileProcessor {
	return &FileProcessor{maxFileSize: maxFileSize, logger: logger}
}

// ReadDocument validates and reads one resume file into the document
// the pipeline consumes. The content stays binary; PDFs are handed to
// the parsing service as-is.
func (fp *FileProcessor) ReadDocument(filename string) (parser.Document, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return parser.Document{}, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if !utils.IsPDFFile(filename) {
		if fp.logger != nil {
			fp.logger.Warn("File does not carry a .pdf extension",
				"filename", filename)
		}
	}

	info, err := os.Stat(filename)
	if err != nil {
		return parser.Document{}, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", filename), err)
	}
	if fp.maxFileSize > 0 && info.Size() > fp.maxFileSize {
		return parser.Document{}, errors.NewValidationError("FILE_TOO_LARGE",
			fmt.Sprintf("File %s exceeds the %s limit (%s)",
				filename, utils.FormatFileSize(fp.maxFileSize), utils.FormatFileSize(info.Size())), nil)
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return parser.Document{}, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return parser.Document{}, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return parser.Document{
		FileName: filepath.Base(filename),
		Content:  content,
	}, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
