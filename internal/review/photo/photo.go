// Package photo manages the bounded set of image attachments on a review draft.
package photo

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/common/metrics"
	"servicehub-reviews/internal/models"
)

const (
	DefaultMaxPhotos = 5
	DefaultMaxBytes  = 5 * 1024 * 1024
)

// AllowedTypes are the accepted image content types.
var AllowedTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// File is a user-selected file before validation.
type File struct {
	Name string
	Data []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// Attachment is a validated, decoded photo ready for preview and transport.
type Attachment struct {
	ID          string
	Name        string
	ContentType string
	Size        int64
	DataURI     string
}

// Rejection reports one file refused at add time.
type Rejection struct {
	File string
	Err  *errors.StandardError
}

// AddResult summarises one Add call. Accepted files become visible once decoded.
type AddResult struct {
	Accepted []string
	Rejected []Rejection
	Dropped  int
}

type Notifier interface {
	Notify(models.Toast)
}

type Config struct {
	MaxPhotos int
	MaxBytes  int64
}

// Set is an ordered, bounded set of attachments. Decoding runs in the background.
type Set struct {
	mu        sync.Mutex
	config    Config
	items     []Attachment
	pending   int
	discarded bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	notifier Notifier
	logger   logger.Logger
}

func NewSet(config Config, notifier Notifier, log logger.Logger) *Set {
	if config.MaxPhotos <= 0 {
		config.MaxPhotos = DefaultMaxPhotos
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Set{
		config:   config,
		ctx:      ctx,
		cancel:   cancel,
		notifier: notifier,
		logger:   log,
	}
}

// Add validates files and starts decoding the accepted ones. Only as many files as there
// is remaining capacity are considered; the rest of the batch is dropped without error.
// A rejected file never aborts the rest of the batch.
func (s *Set) Add(ctx context.Context, files ...File) AddResult {
	var result AddResult

	s.mu.Lock()
	if s.discarded {
		s.mu.Unlock()
		return result
	}
	room := s.config.MaxPhotos - len(s.items) - s.pending
	if room < 0 {
		room = 0
	}
	if len(files) > room {
		result.Dropped = len(files) - room
		files = files[:room]
	}
	s.mu.Unlock()

	for _, f := range files {
		contentType, err := s.check(f)
		if err != nil {
			result.Rejected = append(result.Rejected, Rejection{File: f.Name, Err: err})
			s.reject(err)
			continue
		}

		s.mu.Lock()
		if s.discarded {
			s.mu.Unlock()
			break
		}
		if len(s.items)+s.pending >= s.config.MaxPhotos {
			// a concurrent Add took the slot
			s.mu.Unlock()
			result.Dropped++
			continue
		}
		s.pending++
		s.wg.Add(1)
		s.mu.Unlock()

		result.Accepted = append(result.Accepted, f.Name)
		go s.decode(ctx, f, contentType)
	}

	if result.Dropped > 0 {
		metrics.AttachmentsDropped.Add(float64(result.Dropped))
		s.logger.Debug("photo set full, dropping files", map[string]interface{}{
			"dropped":  result.Dropped,
			"capacity": s.config.MaxPhotos,
		})
	}

	return result
}

// Drop is the drag-and-drop entry point.
func (s *Set) Drop(ctx context.Context, files ...File) AddResult {
	return s.Add(ctx, files...)
}

// Pick is the file-picker entry point.
func (s *Set) Pick(ctx context.Context, files ...File) AddResult {
	return s.Add(ctx, files...)
}

func (s *Set) check(f File) (string, *errors.StandardError) {
	if f.Size() > s.config.MaxBytes {
		return "", errors.NewFileTooLargeError(f.Name, f.Size(), s.config.MaxBytes)
	}
	detected := mimetype.Detect(f.Data)
	for _, allowed := range AllowedTypes {
		if detected.Is(allowed) {
			return allowed, nil
		}
	}
	return "", errors.NewInvalidFileTypeError(f.Name, detected.String())
}

func (s *Set) reject(err *errors.StandardError) {
	metrics.AttachmentsRejected.WithLabelValues(string(err.Code)).Inc()
	s.logger.Warn("photo rejected", map[string]interface{}{
		"code":    string(err.Code),
		"details": err.Details,
	})
	if s.notifier != nil {
		s.notifier.Notify(models.Toast{
			Title:       err.Message,
			Description: err.Details,
			Variant:     models.ToastVariantDestructive,
		})
	}
}

func (s *Set) decode(ctx context.Context, f File, contentType string) {
	defer s.wg.Done()

	var b strings.Builder
	b.Grow(len("data:;base64,") + len(contentType) + base64.StdEncoding.EncodedLen(len(f.Data)))
	b.WriteString("data:")
	b.WriteString(contentType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(f.Data))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--

	if s.discarded || s.ctx.Err() != nil || ctx.Err() != nil {
		s.logger.Debug("photo decode abandoned", map[string]interface{}{"file": f.Name})
		return
	}
	s.items = append(s.items, Attachment{
		ID:          uuid.NewString(),
		Name:        f.Name,
		ContentType: contentType,
		Size:        f.Size(),
		DataURI:     b.String(),
	})
}

// Wait blocks until every pending decode has settled.
func (s *Set) Wait() {
	s.wg.Wait()
}

// Remove deletes the attachment at index. Out-of-range indexes are ignored.
func (s *Set) Remove(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.items) {
		return
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
}

// Discard cancels pending decodes and empties the set. Later Adds are ignored.
func (s *Set) Discard() {
	s.mu.Lock()
	s.discarded = true
	s.items = nil
	s.mu.Unlock()
	s.cancel()
}

// Preload seeds the set with already-stored photo references (edit mode).
func (s *Set) Preload(refs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range refs {
		if len(s.items) >= s.config.MaxPhotos {
			return
		}
		ct := ""
		if parsed, _, err := splitDataURI(ref); err == nil {
			ct = parsed
		}
		s.items = append(s.items, Attachment{ID: uuid.NewString(), ContentType: ct, DataURI: ref})
	}
}

func (s *Set) Items() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Attachment, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// DataURIs returns the transport form of the set, in order. Never nil.
func (s *Set) DataURIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a.DataURI)
	}
	return out
}

// ParseDataURI turns a base64 data URI back into a File so it can go through Add.
func ParseDataURI(name, uri string) (File, error) {
	_, payload, err := splitDataURI(uri)
	if err != nil {
		return File{}, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return File{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return File{Name: name, Data: data}, nil
}

func splitDataURI(uri string) (contentType, payload string, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", "", fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", "", fmt.Errorf("data URI must be base64 encoded")
	}
	return strings.TrimSuffix(header, ";base64"), payload, nil
}
