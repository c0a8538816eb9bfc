package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gyh/gyh-api/internal/repository"
	"github.com/gyh/gyh-api/pkg/config"
	appErrors "github.com/gyh/gyh-api/pkg/errors"
	"github.com/gyh/gyh-api/pkg/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func jakeConfig(limit int) config.JakeConfig {
	return config.JakeConfig{
		MaxImageNumber:    limit,
		AllowedExtensions: []string{"png", "jpg", "jpeg", "gif"},
		ImageBaseURL:      "http://localhost:6002/api/images/",
	}
}

func newJakeService(t *testing.T, limit int, occupied ...int) (*JakeService, string) {
	t.Helper()
	dir := t.TempDir()
	for _, n := range occupied {
		require.NoError(t, os.WriteFile(filepath.Join(dir, strconv.Itoa(n)+".jpg"), []byte("jake-"+strconv.Itoa(n)), 0o644))
	}
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	repo := repository.NewImageSlotRepository(store, jakeConfig(limit).AllowedExtensions, limit)
	return NewJakeService(repo, jakeConfig(limit), NewMetricsService(), zap.NewNop()), dir
}

func upload(name string, number *int) ImageUpload {
	return ImageUpload{Filename: name, Content: bytes.NewReader(pngBytes), Number: number}
}

func intPtr(v int) *int { return &v }

func TestJakeServiceUploadTakesSmallestFreeSlot(t *testing.T) {
	svc, dir := newJakeService(t, 10, 1, 2, 4)
	ctx := context.Background()

	image, err := svc.Upload(ctx, upload("jake.PNG", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, image.ImageNumber)
	assert.Equal(t, "3.jpg", image.Filename)
	assert.Equal(t, "http://localhost:6002/api/images/3.jpg", image.ImageURL)

	stored, err := os.ReadFile(filepath.Join(dir, "3.jpg"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	image, err = svc.Upload(ctx, upload("jake.gif", nil))
	require.NoError(t, err)
	assert.Equal(t, 5, image.ImageNumber)
}

func TestJakeServiceUploadCapacityExceeded(t *testing.T) {
	svc, _ := newJakeService(t, 3, 1, 2, 3)

	_, err := svc.Upload(context.Background(), upload("jake.png", nil))
	require.ErrorIs(t, err, appErrors.ErrCapacityExceeded)
	assert.Equal(t, "Maximum number of images (3) reached", appErrors.FromError(err).Message)

	_, err = svc.NextFreeSlot(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrCapacityExceeded)
}

func TestJakeServiceUploadExplicitNumber(t *testing.T) {
	svc, dir := newJakeService(t, 5, 2)
	ctx := context.Background()

	_, err := svc.Upload(ctx, upload("jake.png", intPtr(2)))
	require.ErrorIs(t, err, appErrors.ErrSlotTaken)
	assert.Equal(t, "Image number 2 already exists", appErrors.FromError(err).Message)
	stored, err := os.ReadFile(filepath.Join(dir, "2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jake-2", string(stored))

	_, err = svc.Upload(ctx, upload("jake.png", intPtr(6)))
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "Number must be between 1 and 5", appErrors.FromError(err).Message)

	_, err = svc.Upload(ctx, upload("jake.png", intPtr(0)))
	require.ErrorIs(t, err, appErrors.ErrValidation)

	image, err := svc.Upload(ctx, upload("jake.png", intPtr(4)))
	require.NoError(t, err)
	assert.Equal(t, 4, image.ImageNumber)
}

func TestJakeServiceRejectsExtension(t *testing.T) {
	svc, dir := newJakeService(t, 5)

	for _, name := range []string{"notes.txt", "jake", "jake.png.exe"} {
		_, err := svc.Upload(context.Background(), upload(name, nil))
		require.ErrorIs(t, err, appErrors.ErrValidation, name)
		assert.Equal(t, "File type not allowed. Allowed types: png, jpg, jpeg, gif", appErrors.FromError(err).Message)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJakeServiceDeleteFreesSlot(t *testing.T) {
	svc, _ := newJakeService(t, 5, 1, 2, 3)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 2))

	err := svc.Delete(ctx, 2)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "Image #2 not found", appErrors.FromError(err).Message)

	err = svc.Delete(ctx, 9)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "Image number must be between 1 and 5", appErrors.FromError(err).Message)

	image, err := svc.Upload(ctx, upload("jake.jpeg", nil))
	require.NoError(t, err)
	assert.Equal(t, 2, image.ImageNumber)
}

func TestJakeServiceRandom(t *testing.T) {
	svc, _ := newJakeService(t, 10, 3, 7, 9)
	svc.intn = func(n int) int { return n - 1 }

	image, err := svc.Random(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, image.ImageNumber)
	assert.Equal(t, "http://localhost:6002/api/images/9.jpg", image.ImageURL)

	empty, _ := newJakeService(t, 10)
	_, err = empty.Random(context.Background())
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "No Jake images found in the folder", appErrors.FromError(err).Message)
}

func TestJakeServiceRandomUsesStoredExtension(t *testing.T) {
	svc, dir := newJakeService(t, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "4.png"), pngBytes, 0o644))

	image, err := svc.Random(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, image.ImageNumber)
	assert.Equal(t, "4.png", image.Filename)
}

func TestJakeServiceUploadMany(t *testing.T) {
	svc, _ := newJakeService(t, 2)

	result := svc.UploadMany(context.Background(), []ImageUpload{
		upload("a.png", nil),
		upload("b.txt", nil),
		upload("", nil),
		upload("c.JPG", intPtr(1)),
		upload("d.gif", nil),
	})

	assert.Equal(t, 2, result.TotalUploaded)
	assert.Equal(t, 2, result.TotalFailed)
	require.Len(t, result.Uploaded, 2)
	assert.Equal(t, "a.png", result.Uploaded[0].OriginalName)
	assert.Equal(t, "1.jpg", result.Uploaded[0].SavedAs)
	assert.Equal(t, 2, result.Uploaded[1].ImageNumber)
	assert.Equal(t, "b.txt", result.Failed[0].Filename)
	assert.Equal(t, "File type not allowed", result.Failed[0].Reason)
	assert.Equal(t, "VALIDATION_ERROR", result.Failed[0].Code)
	assert.Equal(t, "d.gif", result.Failed[1].Filename)
	assert.Equal(t, "Maximum images reached", result.Failed[1].Reason)
	assert.Equal(t, "CAPACITY_EXCEEDED", result.Failed[1].Code)
}

func TestJakeServiceUploadManyKeepsGoingPastUnreadablePart(t *testing.T) {
	svc, _ := newJakeService(t, 5)

	result := svc.UploadMany(context.Background(), []ImageUpload{
		{Filename: "broken.png", Err: errors.New("open /tmp/multipart-1: no such file or directory")},
		upload("ok.png", nil),
	})

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "broken.png", result.Failed[0].Filename)
	assert.Equal(t, "Failed to read file", result.Failed[0].Reason)
	assert.Equal(t, "INTERNAL_ERROR", result.Failed[0].Code)
	require.Len(t, result.Uploaded, 1)
	assert.Equal(t, 1, result.Uploaded[0].ImageNumber)
	assert.Equal(t, 1, result.TotalUploaded)
}

func TestJakeServiceCountsStoredFilesWhenJpgNotAllowed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.jpg"), []byte("jake-1"), 0o644))
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	cfg := jakeConfig(10)
	cfg.AllowedExtensions = []string{"png"}
	svc := NewJakeService(repository.NewImageSlotRepository(store, cfg.AllowedExtensions, 10), cfg, nil, nil)

	image, err := svc.Upload(context.Background(), upload("jake.png", nil))
	require.NoError(t, err)
	assert.Equal(t, 2, image.ImageNumber)
	assert.Equal(t, "2.jpg", image.Filename)
}

func TestJakeServiceStats(t *testing.T) {
	occupied := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	svc, _ := newJakeService(t, 255, occupied...)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalImages)
	assert.Equal(t, occupied[:10], stats.AvailableNumbers)
	require.NotNil(t, stats.MaxPossible)
	assert.Equal(t, 255, *stats.MaxPossible)

	unbounded, _ := newJakeService(t, 0)
	stats, err = unbounded.Stats(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.MaxPossible)
	assert.Equal(t, []int{}, stats.AvailableNumbers)
}

func TestJakeServiceOpenImage(t *testing.T) {
	svc, dir := newJakeService(t, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.jpg"), pngBytes, 0o644))

	image, err := svc.OpenImage(context.Background(), "1.jpg")
	require.NoError(t, err)
	defer image.File.Close()
	assert.Equal(t, "image/png", image.ContentType)
	body, err := io.ReadAll(image.File)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, body)

	for _, name := range []string{"../1.jpg.missing", "2.jpg", "..", ".env"} {
		_, err := svc.OpenImage(context.Background(), name)
		assert.ErrorIs(t, err, appErrors.ErrNotFound, name)
	}
}

func TestJakeServiceConcurrentUploadsGetDistinctSlots(t *testing.T) {
	svc, _ := newJakeService(t, 0)
	const workers = 20

	var wg sync.WaitGroup
	numbers := make([]int, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			image, err := svc.Upload(context.Background(), upload("jake.png", nil))
			errs[i] = err
			if err == nil {
				numbers[i] = image.ImageNumber
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		assert.Equal(t, i+1, n)
	}
}

// racingStore creates the slot file itself right before the first write,
// as another process sharing the directory would.
type racingStore struct {
	*repository.ImageSlotRepository
	dir   string
	raced bool
}

func (s *racingStore) Create(number int, content io.Reader) (string, error) {
	if !s.raced {
		s.raced = true
		if err := os.WriteFile(filepath.Join(s.dir, repository.SlotFilename(number)), []byte("other"), 0o644); err != nil {
			return "", err
		}
	}
	return s.ImageSlotRepository.Create(number, content)
}

func TestJakeServiceRetriesAfterLostRace(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	repo := repository.NewImageSlotRepository(store, jakeConfig(5).AllowedExtensions, 5)
	svc := NewJakeService(&racingStore{ImageSlotRepository: repo, dir: dir}, jakeConfig(5), nil, nil)

	image, err := svc.Upload(context.Background(), upload("jake.png", nil))
	require.NoError(t, err)
	assert.Equal(t, 2, image.ImageNumber)

	other, err := os.ReadFile(filepath.Join(dir, "1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "other", string(other))
}

func TestJakeServiceRejectsOversizedUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	cfg := jakeConfig(5)
	cfg.MaxUploadSize = 16
	svc := NewJakeService(repository.NewImageSlotRepository(store, cfg.AllowedExtensions, 5), cfg, nil, nil)

	big := upload("jake.png", nil)
	big.Size = 17
	_, err = svc.Upload(context.Background(), big)
	require.ErrorIs(t, err, appErrors.ErrPayloadTooLarge)

	result := svc.UploadMany(context.Background(), []ImageUpload{big})
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", result.Failed[0].Code)
	assert.Equal(t, "File exceeds the maximum size of 16 bytes", result.Failed[0].Reason)
}
