package booking

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Slot names a document upload slot. The value doubles as the payload field name.
type Slot string

const (
	SlotRegistrationForm    Slot = "registration_form"
	SlotIdentityDocuments   Slot = "identity_documents"
	SlotSupportingDocuments Slot = "supporting_documents"
)

// Slots lists every document slot in display order.
var Slots = []Slot{SlotRegistrationForm, SlotIdentityDocuments, SlotSupportingDocuments}

// Multiple reports whether the slot accepts more than one file.
func (s Slot) Multiple() bool { return s != SlotRegistrationForm }

// Label is the human-readable slot name.
func (s Slot) Label() string {
	switch s {
	case SlotRegistrationForm:
		return "Registration form"
	case SlotIdentityDocuments:
		return "Identity documents"
	case SlotSupportingDocuments:
		return "Supporting documents"
	default:
		return string(s)
	}
}

// MaxFileSize is the upload ceiling per file.
const MaxFileSize = 2 * 1024 * 1024 // 2 MB

// AllowedMimeTypes defines which detected content types are accepted.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// AllowedExtensions defines which file name extensions are accepted.
var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size (2 MB)")
	ErrInvalidMimeType    = errors.New("file type is not allowed")
	ErrInvalidExtension   = errors.New("file extension is not allowed")
	ErrEmptyFile          = errors.New("file is empty")
	ErrTooManyFiles       = errors.New("only one file is allowed")
	ErrUnknownSlot        = errors.New("unknown document slot")
	ErrEmptyFileSelection = errors.New("no files selected")
)

// Preview describes a rendered preview of a pending file.
type Preview struct {
	Kind      PreviewKind
	ThumbPath string
	Width     int
	Height    int
}

// PreviewKind distinguishes image thumbnails from document icons.
type PreviewKind string

const (
	PreviewImage PreviewKind = "image"
	PreviewPDF   PreviewKind = "pdf"
)

// FileHandle is a file accepted into a slot. ID is assigned at selection time
// and is the only key used to remove the file again.
type FileHandle struct {
	ID      string
	Name    string
	Path    string
	Size    int64
	MIME    string
	Preview *Preview
}

// IsImage reports whether the file is one of the accepted image types.
func (f FileHandle) IsImage() bool { return strings.HasPrefix(f.MIME, "image/") }

// InspectFile stats path and sniffs its content type.
func InspectFile(path string) (FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileHandle{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return FileHandle{}, fmt.Errorf("%s is a directory", path)
	}

	fh := FileHandle{
		ID:   uuid.NewString(),
		Name: filepath.Base(path),
		Path: path,
		Size: info.Size(),
	}
	if info.Size() > 0 {
		mt, err := mimetype.DetectFile(path)
		if err != nil {
			return FileHandle{}, fmt.Errorf("detecting type of %s: %w", path, err)
		}
		fh.MIME = mt.String()
	}
	return fh, nil
}

// FileRejection names one file of a batch and why it was refused.
type FileRejection struct {
	Name string
	Err  error
}

// BatchError is returned when at least one file of a selection fails. The
// whole selection is refused.
type BatchError struct {
	Slot       Slot
	Rejections []FileRejection
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Rejections))
	for _, r := range e.Rejections {
		parts = append(parts, fmt.Sprintf("%s: %v", r.Name, r.Err))
	}
	return fmt.Sprintf("%s: %d file(s) rejected: %s", e.Slot.Label(), len(e.Rejections), strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Rejections))
	for _, r := range e.Rejections {
		errs = append(errs, r.Err)
	}
	return errs
}

// CheckFile validates a single file against the size and type rules.
func CheckFile(f FileHandle) error {
	if f.Size == 0 {
		return ErrEmptyFile
	}
	if f.Size > MaxFileSize {
		return ErrFileTooLarge
	}
	if !AllowedExtensions[strings.ToLower(filepath.Ext(f.Name))] {
		return ErrInvalidExtension
	}
	// mimetype may append parameters, e.g. "text/plain; charset=utf-8".
	mime := strings.TrimSpace(strings.Split(f.MIME, ";")[0])
	if !AllowedMimeTypes[mime] {
		return ErrInvalidMimeType
	}
	return nil
}

// ValidateBatch checks every file of a selection independently and returns a
// *BatchError listing all failures if any file fails.
func ValidateBatch(slot Slot, files []FileHandle) error {
	if !isKnownSlot(slot) {
		return fmt.Errorf("%q: %w", slot, ErrUnknownSlot)
	}
	if len(files) == 0 {
		return ErrEmptyFileSelection
	}

	var rejections []FileRejection
	if !slot.Multiple() && len(files) > 1 {
		for _, f := range files {
			rejections = append(rejections, FileRejection{Name: f.Name, Err: ErrTooManyFiles})
		}
		return &BatchError{Slot: slot, Rejections: rejections}
	}
	for _, f := range files {
		if err := CheckFile(f); err != nil {
			rejections = append(rejections, FileRejection{Name: f.Name, Err: err})
		}
	}
	if len(rejections) > 0 {
		return &BatchError{Slot: slot, Rejections: rejections}
	}
	return nil
}

func isKnownSlot(slot Slot) bool {
	for _, s := range Slots {
		if s == slot {
			return true
		}
	}
	return false
}
