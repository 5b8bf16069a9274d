package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"vidsnatch/fuzzy"
	"vidsnatch/logger"
	"vidsnatch/store"
	"vidsnatch/types"
)

// FileService interface defines methods for managing the download folder
type FileService interface {
	ListVideos(dir string) ([]types.VideoFile, error)
	ListPartials(dir string) ([]types.PartialFile, error)
	CleanupMatching(dir, title string) []string
	DeletePartial(dir, name string) error
	ResolvePath(dir, rel string) (string, error)
	ReadTitle(path string) string
	GetContentType(path string) string
}

// fileService implements the FileService interface
type fileService struct {
	index *store.FileIndex
	log   *logger.Logger
}

// NewFileService creates a new file service. index may be nil.
func NewFileService(index *store.FileIndex, log *logger.Logger) FileService {
	if log == nil {
		log = logger.Default()
	}
	return &fileService{index: index, log: log.Component("files")}
}

var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".flv":  "video/x-flv",
	".wmv":  "video/x-ms-wmv",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".opus": "audio/ogg",
}

// ListVideos lists finished files in dir, newest first
func (fs *fileService) ListVideos(dir string) ([]types.VideoFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := []types.VideoFile{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || hidden(name) || fuzzy.IsPartial(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			fs.log.WithError(err).WithField(logger.FieldFile, name).Warn("could not stat file")
			continue
		}

		path := filepath.Join(dir, name)
		vf := types.VideoFile{
			Name:      name,
			Path:      name,
			Size:      info.Size(),
			SizeHuman: HumanSize(info.Size()),
			Modified:  info.ModTime().Unix(),
			Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		}
		if fs.index != nil {
			if rec, ok := fs.index.Get(name); ok {
				vf.URL = rec.URL
				vf.Title = rec.Title
			}
		}
		if _, media := videoExtensions[strings.ToLower(filepath.Ext(name))]; media {
			if t := fs.ReadTitle(path); t != "" {
				vf.Title = t
			}
		}
		files = append(files, vf)
	}

	sort.SliceStable(files, func(i, k int) bool { return files[i].Modified > files[k].Modified })
	return files, nil
}

// ListPartials lists the partial download files in dir
func (fs *fileService) ListPartials(dir string) ([]types.PartialFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	partials := []types.PartialFile{}
	for _, e := range entries {
		if e.IsDir() || !fuzzy.IsPartial(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		partials = append(partials, types.PartialFile{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().Unix(),
		})
	}
	return partials, nil
}

// CleanupMatching deletes partial files whose name matches title closely
// enough to be leftovers of the same download.
func (fs *fileService) CleanupMatching(dir, title string) []string {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	partials, err := fs.ListPartials(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fs.log.WithError(err).Warn("could not scan for partial files")
		}
		return nil
	}

	var removed []string
	for _, p := range partials {
		score := fuzzy.Similarity(p.Name, title)
		if score < fuzzy.CleanupThreshold {
			continue
		}
		if err := os.Remove(filepath.Join(dir, p.Name)); err != nil {
			fs.log.WithError(err).WithField(logger.FieldFile, p.Name).Warn("could not remove partial file")
			continue
		}
		fs.log.WithFields(logger.Fields{logger.FieldFile: p.Name, "similarity": score}).Info("removed partial file")
		removed = append(removed, p.Name)
	}
	return removed
}

// DeletePartial removes one partial file from dir
func (fs *fileService) DeletePartial(dir, name string) error {
	if !fuzzy.IsPartial(name) {
		return ErrNotPartial
	}
	path, err := fs.ResolvePath(dir, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// ResolvePath joins rel onto dir and rejects anything that escapes dir
func (fs *fileService) ResolvePath(dir, rel string) (string, error) {
	if err := ValidateFilePath(rel); err != nil {
		return "", err
	}
	base, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(base, filepath.FromSlash(rel))
	inside, err := filepath.Rel(base, full)
	if err != nil || inside == "." || strings.HasPrefix(inside, "..") {
		return "", ErrOutsideDir
	}
	return full, nil
}

// ReadTitle returns the title tag embedded in a media file, if any
func (fs *fileService) ReadTitle(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(meta.Title())
}

// GetContentType returns the MIME type for a media file
func (fs *fileService) GetContentType(path string) string {
	if ct, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ValidateFilePath checks for path traversal attempts and other security issues
func ValidateFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path not allowed")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("path traversal not allowed")
		}
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return fmt.Errorf("absolute paths not allowed")
	}
	return nil
}

// HumanSize formats a byte count the way the file browser shows it
func HumanSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	case size < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
	return fmt.Sprintf("%.1f GB", float64(size)/(1024*1024*1024))
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~")
}
