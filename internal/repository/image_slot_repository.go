package repository

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gyh/gyh-api/pkg/storage"
)

// ErrSlotOccupied is returned when a slot file already exists.
var ErrSlotOccupied = errors.New("slot occupied")

// SlotExtension is the extension every stored image is written with.
const SlotExtension = "jpg"

var slotNamePattern = regexp.MustCompile(`^([1-9][0-9]*)\.([A-Za-z0-9]+)$`)

// ImageSlotRepository maps slot numbers onto files of a directory. The directory listing
// is the source of truth and is re-read on every call.
type ImageSlotRepository struct {
	storage    *storage.LocalStorage
	extensions map[string]struct{}
	maxNumber  int
}

// NewImageSlotRepository builds a repository over store. Files whose extension is neither
// SlotExtension nor in extensions, or whose number exceeds maxNumber (when positive), are
// not slots.
func NewImageSlotRepository(store *storage.LocalStorage, extensions []string, maxNumber int) *ImageSlotRepository {
	set := make(map[string]struct{}, len(extensions)+1)
	set[SlotExtension] = struct{}{}
	for _, ext := range extensions {
		set[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &ImageSlotRepository{storage: store, extensions: set, maxNumber: maxNumber}
}

// SlotFilename is the canonical file name of a slot.
func SlotFilename(number int) string {
	return fmt.Sprintf("%d.%s", number, SlotExtension)
}

// ListOccupied returns occupied slot numbers in ascending order.
func (r *ImageSlotRepository) ListOccupied() ([]int, error) {
	index, err := r.scan()
	if err != nil {
		return nil, err
	}
	numbers := make([]int, 0, len(index))
	for n := range index {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// Files returns the file names backing a slot, empty when the slot is free.
func (r *ImageSlotRepository) Files(number int) ([]string, error) {
	index, err := r.scan()
	if err != nil {
		return nil, err
	}
	return index[number], nil
}

// Exists reports whether the slot is occupied. The canonical file is checked directly
// before falling back to a directory scan.
func (r *ImageSlotRepository) Exists(number int) (bool, error) {
	if r.maxNumber > 0 && number > r.maxNumber {
		return false, nil
	}
	canonical, err := r.storage.Exists(SlotFilename(number))
	if err != nil {
		return false, fmt.Errorf("check slot %d: %w", number, err)
	}
	if canonical {
		return true, nil
	}
	files, err := r.Files(number)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// Filename returns the file backing an occupied slot, preferring the canonical name.
func (r *ImageSlotRepository) Filename(number int) (string, error) {
	files, err := r.Files(number)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("slot %d: %w", number, fs.ErrNotExist)
	}
	canonical := SlotFilename(number)
	for _, name := range files {
		if name == canonical {
			return name, nil
		}
	}
	return files[0], nil
}

// Create writes content as the slot's canonical file. It never overwrites: an existing
// file yields ErrSlotOccupied.
func (r *ImageSlotRepository) Create(number int, content io.Reader) (string, error) {
	name := SlotFilename(number)
	if _, err := r.storage.CreateExclusive(name, content); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return "", fmt.Errorf("create slot %d: %w", number, ErrSlotOccupied)
		}
		return "", fmt.Errorf("create slot %d: %w", number, err)
	}
	return name, nil
}

// Delete removes every file backing the slot. It returns fs.ErrNotExist when the slot is free.
func (r *ImageSlotRepository) Delete(number int) error {
	files, err := r.Files(number)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("delete slot %d: %w", number, fs.ErrNotExist)
	}
	for _, name := range files {
		if err := r.storage.Delete(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete slot %d: %w", number, err)
		}
	}
	return nil
}

// Open returns a handle on any file of the directory.
func (r *ImageSlotRepository) Open(name string) (*os.File, error) {
	return r.storage.Open(name)
}

func (r *ImageSlotRepository) scan() (map[int][]string, error) {
	names, err := r.storage.List()
	if err != nil {
		return nil, fmt.Errorf("scan image slots: %w", err)
	}
	index := make(map[int][]string)
	for _, name := range names {
		match := slotNamePattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		if _, ok := r.extensions[strings.ToLower(match[2])]; !ok {
			continue
		}
		number, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if r.maxNumber > 0 && number > r.maxNumber {
			continue
		}
		index[number] = append(index[number], name)
	}
	return index, nil
}
