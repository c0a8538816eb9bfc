package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/gyh/gyh-api/internal/dto"
	"github.com/gyh/gyh-api/internal/repository"
	"github.com/gyh/gyh-api/pkg/config"
	appErrors "github.com/gyh/gyh-api/pkg/errors"
)

const (
	statsPreviewSize      = 10
	maxAllocationAttempts = 8
)

type imageSlotStore interface {
	ListOccupied() ([]int, error)
	Exists(number int) (bool, error)
	Filename(number int) (string, error)
	Create(number int, content io.Reader) (string, error)
	Delete(number int) error
	Open(name string) (*os.File, error)
}

// ImageUpload is one file offered to the image store.
type ImageUpload struct {
	Filename string
	Content  io.Reader
	// Size is the declared size in bytes; zero skips the size check.
	Size int64
	// Number requests a specific slot; nil allocates the smallest free one.
	Number *int
	// Err records a failure to read the part; UploadMany reports it as a failed entry.
	Err error
}

// ImageFile is an open stored image ready to be served.
type ImageFile struct {
	File        *os.File
	Name        string
	ContentType string
	ModTime     time.Time
}

// JakeService allocates numbered image slots.
type JakeService struct {
	store      imageSlotStore
	maxNumber  int
	maxSize    int64
	extensions []string
	allowed    map[string]struct{}
	baseURL    string
	metrics    *MetricsService
	logger     *zap.Logger
	intn       func(int) int

	// mu serialises allocation and creation within the process.
	mu sync.Mutex
}

// NewJakeService constructs the image slot service.
func NewJakeService(store imageSlotStore, cfg config.JakeConfig, metrics *MetricsService, logger *zap.Logger) *JakeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &JakeService{
		store:      store,
		maxNumber:  cfg.MaxImageNumber,
		maxSize:    cfg.MaxUploadSize,
		extensions: cfg.AllowedExtensions,
		allowed:    allowed,
		baseURL:    strings.TrimRight(cfg.ImageBaseURL, "/"),
		metrics:    metrics,
		logger:     logger,
		intn:       rand.Intn,
	}
}

// ImageURL returns the public URL of a stored file.
func (s *JakeService) ImageURL(filename string) string {
	return s.baseURL + "/" + filename
}

// Random picks an occupied slot uniformly at random.
func (s *JakeService) Random(ctx context.Context) (*dto.JakeImage, error) {
	occupied, err := s.occupied()
	if err != nil {
		return nil, err
	}
	if len(occupied) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "No Jake images found in the folder")
	}
	number := occupied[s.intn(len(occupied))]
	filename, err := s.store.Filename(number)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// removed between the scan and the lookup
			return nil, appErrors.Clone(appErrors.ErrNotFound, "No Jake images found in the folder")
		}
		return nil, appErrors.Internal(err, "failed to read image store")
	}
	return &dto.JakeImage{ImageNumber: number, Filename: filename, ImageURL: s.ImageURL(filename)}, nil
}

// NextFreeSlot returns the smallest unoccupied number.
func (s *JakeService) NextFreeSlot(ctx context.Context) (int, error) {
	occupied, err := s.occupied()
	if err != nil {
		return 0, err
	}
	return s.nextFree(occupied)
}

// Upload stores one image, either in the requested slot or in the smallest free one.
func (s *JakeService) Upload(ctx context.Context, upload ImageUpload) (*dto.JakeImage, error) {
	image, err := s.upload(ctx, upload)
	switch {
	case err == nil:
		s.metrics.RecordUpload(UploadAccepted)
		s.logger.Info("jake image stored", zap.Int("image_number", image.ImageNumber), zap.String("original_name", upload.Filename))
		s.refreshGauge()
	case appErrors.FromError(err).Status < 500:
		s.metrics.RecordUpload(UploadRejected)
	default:
		s.metrics.RecordUpload(UploadFailed)
		s.logger.Error("jake image upload failed", zap.String("original_name", upload.Filename), zap.Error(err))
	}
	return image, err
}

func (s *JakeService) upload(ctx context.Context, upload ImageUpload) (*dto.JakeImage, error) {
	if err := s.checkExtension(upload.Filename); err != nil {
		return nil, err
	}
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("File exceeds the maximum size of %d bytes", s.maxSize))
	}
	if upload.Number != nil {
		if err := s.checkRange(*upload.Number, "Number"); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if upload.Number != nil {
		number := *upload.Number
		taken, err := s.store.Exists(number)
		if err != nil {
			return nil, appErrors.Internal(err, "Upload failed")
		}
		if taken {
			return nil, slotTaken(number)
		}
		return s.create(number, upload.Content)
	}

	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, appErrors.Internal(err, "Upload failed")
		}
		number, err := s.NextFreeSlot(ctx)
		if err != nil {
			return nil, err
		}
		image, err := s.create(number, upload.Content)
		if errors.Is(err, appErrors.ErrSlotTaken) {
			// another process created the file after the scan
			continue
		}
		return image, err
	}
	return nil, appErrors.Internal(errors.New("slot allocation kept colliding"), "Upload failed")
}

func (s *JakeService) create(number int, content io.Reader) (*dto.JakeImage, error) {
	filename, err := s.store.Create(number, content)
	if err != nil {
		if errors.Is(err, repository.ErrSlotOccupied) {
			return nil, slotTaken(number)
		}
		return nil, appErrors.Internal(err, "Upload failed")
	}
	return &dto.JakeImage{ImageNumber: number, Filename: filename, ImageURL: s.ImageURL(filename)}, nil
}

// UploadMany stores each named file in order. A failing entry never aborts the others.
func (s *JakeService) UploadMany(ctx context.Context, uploads []ImageUpload) dto.BatchUploadResult {
	result := dto.BatchUploadResult{Uploaded: []dto.UploadedImage{}, Failed: []dto.FailedUpload{}}
	for _, upload := range uploads {
		if upload.Filename == "" {
			continue
		}
		if upload.Err != nil {
			s.logger.Warn("batch upload part unreadable", zap.String("filename", upload.Filename), zap.Error(upload.Err))
			result.Failed = append(result.Failed, dto.FailedUpload{Filename: upload.Filename, Reason: "Failed to read file", Code: appErrors.ErrInternal.Code})
			continue
		}
		upload.Number = nil
		image, err := s.Upload(ctx, upload)
		if err != nil {
			appErr := appErrors.FromError(err)
			result.Failed = append(result.Failed, dto.FailedUpload{Filename: upload.Filename, Reason: batchReason(appErr), Code: appErr.Code})
			continue
		}
		result.Uploaded = append(result.Uploaded, dto.UploadedImage{
			OriginalName: upload.Filename,
			SavedAs:      image.Filename,
			ImageNumber:  image.ImageNumber,
			ImageURL:     image.ImageURL,
		})
	}
	result.TotalUploaded = len(result.Uploaded)
	result.TotalFailed = len(result.Failed)
	return result
}

func batchReason(err *appErrors.Error) string {
	switch err.Code {
	case appErrors.ErrValidation.Code:
		return "File type not allowed"
	case appErrors.ErrCapacityExceeded.Code:
		return "Maximum images reached"
	default:
		return err.Message
	}
}

// Delete frees a slot.
func (s *JakeService) Delete(ctx context.Context, number int) error {
	if err := s.checkRange(number, "Image number"); err != nil {
		return err
	}
	s.mu.Lock()
	err := s.store.Delete(number)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Image #%d not found", number))
		}
		return appErrors.Internal(err, "Delete failed")
	}
	s.logger.Info("jake image deleted", zap.Int("image_number", number))
	s.refreshGauge()
	return nil
}

// Stats reports the occupied count and a preview of the first occupied numbers.
func (s *JakeService) Stats(ctx context.Context) (*dto.JakeStats, error) {
	occupied, err := s.occupied()
	if err != nil {
		return nil, err
	}
	s.metrics.SetJakeImages(len(occupied))

	preview := occupied
	if len(preview) > statsPreviewSize {
		preview = preview[:statsPreviewSize]
	}
	stats := &dto.JakeStats{TotalImages: len(occupied), AvailableNumbers: preview}
	if s.maxNumber > 0 {
		limit := s.maxNumber
		stats.MaxPossible = &limit
	}
	return stats, nil
}

// OpenImage opens a stored file by name. Only the base component of name is used.
// The caller closes ImageFile.File.
func (s *JakeService) OpenImage(ctx context.Context, name string) (*ImageFile, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	notFound := appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Image %s not found", base))
	if base == "/" || base == "." {
		return nil, notFound
	}

	file, err := s.store.Open(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, notFound
		}
		return nil, appErrors.Internal(err, "failed to open image")
	}
	info, err := file.Stat()
	if err != nil || info.IsDir() {
		file.Close()
		if err != nil {
			return nil, appErrors.Internal(err, "failed to open image")
		}
		return nil, notFound
	}
	mtype, err := mimetype.DetectReader(file)
	if err == nil {
		_, err = file.Seek(0, io.SeekStart)
	}
	if err != nil {
		file.Close()
		return nil, appErrors.Internal(err, "failed to read image")
	}
	return &ImageFile{File: file, Name: base, ContentType: mtype.String(), ModTime: info.ModTime()}, nil
}

func (s *JakeService) occupied() ([]int, error) {
	occupied, err := s.store.ListOccupied()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read image store")
	}
	return occupied, nil
}

func (s *JakeService) nextFree(occupied []int) (int, error) {
	candidate := 1
	for _, n := range occupied {
		if n == candidate {
			candidate++
		} else if n > candidate {
			break
		}
	}
	if s.maxNumber > 0 && candidate > s.maxNumber {
		return 0, appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("Maximum number of images (%d) reached", s.maxNumber))
	}
	return candidate, nil
}

func (s *JakeService) checkExtension(filename string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := s.allowed[ext]; !ok || ext == "" {
		return appErrors.Clone(appErrors.ErrValidation, "File type not allowed. Allowed types: "+strings.Join(s.extensions, ", "))
	}
	return nil
}

func (s *JakeService) checkRange(number int, subject string) error {
	if number < 1 {
		if s.maxNumber > 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be between 1 and %d", subject, s.maxNumber))
		}
		return appErrors.Clone(appErrors.ErrValidation, subject+" must be a positive integer")
	}
	if s.maxNumber > 0 && number > s.maxNumber {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be between 1 and %d", subject, s.maxNumber))
	}
	return nil
}

func (s *JakeService) refreshGauge() {
	if s.metrics == nil {
		return
	}
	occupied, err := s.store.ListOccupied()
	if err != nil {
		s.logger.Warn("refresh jake image gauge", zap.Error(err))
		return
	}
	s.metrics.SetJakeImages(len(occupied))
}

func slotTaken(number int) error {
	return appErrors.Clone(appErrors.ErrSlotTaken, fmt.Sprintf("Image number %d already exists", number))
}
