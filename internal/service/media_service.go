package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/radcr/radcr-backend/internal/config"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrInvalidDicom        = errors.New("invalid DICOM file")
)

const uploadURLPrefix = "/uploads/"

// Allowed image MIME types.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// StoredFile is the result of an upload.
type StoredFile struct {
	URL   string              `json:"url"`
	Dicom *model.DicomSummary `json:"dicom,omitempty"`
}

// MediaService handles file upload operations.
type MediaService struct {
	cfg *config.Config
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config) *MediaService {
	return &MediaService{cfg: cfg}
}

// SaveUpload saves an uploaded image to local storage with a UUID filename.
// The type is detected from the file content; the client's Content-Type is
// not trusted. Returns the relative URL path to the saved file.
func (s *MediaService) SaveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := s.checkSize(header); err != nil {
		return "", err
	}
	mt, err := sniff(file)
	if err != nil {
		return "", err
	}
	return s.saveImage(file, mt)
}

// SaveCaseFile accepts either an image or a DICOM file. DICOM files are
// parsed before being stored and their header digest is returned.
func (s *MediaService) SaveCaseFile(file multipart.File, header *multipart.FileHeader) (StoredFile, error) {
	if err := s.checkSize(header); err != nil {
		return StoredFile{}, err
	}
	mt, err := sniff(file)
	if err != nil {
		return StoredFile{}, err
	}
	if !mt.Is("application/dicom") && !isDicom(header) {
		url, err := s.saveImage(file, mt)
		return StoredFile{URL: url}, err
	}

	summary, err := InspectDicom(file, header.Size)
	if err != nil {
		return StoredFile{}, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return StoredFile{}, fmt.Errorf("rewind upload: %w", err)
	}

	url, err := s.write(file, ".dcm")
	if err != nil {
		return StoredFile{}, err
	}
	return StoredFile{URL: url, Dicom: summary}, nil
}

// Remove deletes a file previously returned by SaveUpload. URLs outside the
// upload directory are ignored.
func (s *MediaService) Remove(url string) error {
	name := strings.TrimPrefix(url, uploadURLPrefix)
	if name == url || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	err := os.Remove(filepath.Join(s.cfg.UploadDir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// InspectDicom parses the header of a DICOM stream, skipping pixel data.
func InspectDicom(r io.Reader, size int64) (*model.DicomSummary, error) {
	ds, err := dicom.Parse(r, size, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDicom, err)
	}
	return &model.DicomSummary{
		Modality:         elementString(ds, tag.Modality),
		StudyDescription: elementString(ds, tag.StudyDescription),
		BodyPart:         elementString(ds, tag.BodyPartExamined),
		Rows:             elementString(ds, tag.Rows),
		Columns:          elementString(ds, tag.Columns),
	}, nil
}

func elementString(ds dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	switch v := elem.Value.GetValue().(type) {
	case []string:
		return strings.TrimSpace(strings.Join(v, `\`))
	case []int:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, `\`)
	default:
		return strings.Trim(elem.Value.String(), "[] ")
	}
}

func (s *MediaService) saveImage(file io.Reader, mt *mimetype.MIME) (string, error) {
	ext, ok := allowedMIMETypes[mt.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, mt.String(), strings.Join(allowedTypes(), ", "))
	}
	return s.write(file, ext)
}

// sniff detects the content type from the leading bytes and rewinds file.
func sniff(file multipart.File) (*mimetype.MIME, error) {
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}
	return mt, nil
}

// isDicom reports whether the client labelled the upload as DICOM. Files
// without the DICM preamble are still routed to the parser, which rejects
// them when they are not DICOM.
func isDicom(header *multipart.FileHeader) bool {
	ct := header.Header.Get("Content-Type")
	if ct == "application/dicom" {
		return true
	}
	return strings.EqualFold(filepath.Ext(header.Filename), ".dcm")
}

func (s *MediaService) checkSize(header *multipart.FileHeader) error {
	if header.Size > s.cfg.MaxUploadBytes {
		return fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}
	return nil
}

func (s *MediaService) write(src io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	path := filepath.Join(s.cfg.UploadDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close file: %w", err)
	}
	return uploadURLPrefix + filename, nil
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	return types
}
