package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicehub-reviews/internal/common/errors"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0}
)

func imageFile(name string, magic []byte, size int) File {
	data := make([]byte, size)
	copy(data, magic)
	return File{Name: name, Data: data}
}

func pngFile(name string, size int) File { return imageFile(name, pngMagic, size) }

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []models.Toast
}

func (n *recordingNotifier) Notify(t models.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, t)
}

func (n *recordingNotifier) all() []models.Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Toast(nil), n.toasts...)
}

func newTestSet(t *testing.T, notifier Notifier) *Set {
	return NewSet(Config{}, notifier, logger.NewTestLogger(t))
}

// ==========================
// Capacity
// ==========================

func TestAdd_BatchIsCappedAtCapacity(t *testing.T) {
	s := newTestSet(t, nil)
	ctx := context.Background()

	files := make([]File, 6)
	for i := range files {
		files[i] = pngFile(fmt.Sprintf("p%d.png", i), 1024)
	}

	res := s.Add(ctx, files...)
	assert.Len(t, res.Accepted, 5)
	assert.Equal(t, 1, res.Dropped)
	assert.Empty(t, res.Rejected)

	s.Wait()
	assert.Equal(t, 5, s.Len())

	res = s.Add(ctx, pngFile("seventh.png", 1024))
	assert.Empty(t, res.Accepted)
	assert.Equal(t, 1, res.Dropped)
	s.Wait()
	assert.Equal(t, 5, s.Len())
}

func TestAdd_PendingDecodesCountTowardsCapacity(t *testing.T) {
	s := newTestSet(t, nil)
	ctx := context.Background()

	s.Add(ctx, pngFile("a.png", 10), pngFile("b.png", 10), pngFile("c.png", 10))
	res := s.Add(ctx, pngFile("d.png", 10), pngFile("e.png", 10), pngFile("f.png", 10))
	s.Wait()

	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 5, s.Len())
}

// ==========================
// Size & type checks
// ==========================

func TestAdd_SizeLimit(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestSet(t, notifier)

	res := s.Add(context.Background(),
		pngFile("big.png", 6*1024*1024),
		imageFile("ok.jpg", jpegMagic, 4*1024*1024),
	)
	s.Wait()

	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "big.png", res.Rejected[0].File)
	assert.Equal(t, errors.ErrCodeFileTooLarge, res.Rejected[0].Err.Code)
	assert.Equal(t, []string{"ok.jpg"}, res.Accepted)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "ok.jpg", items[0].Name)
	assert.Equal(t, "image/jpeg", items[0].ContentType)
	assert.Equal(t, int64(4*1024*1024), items[0].Size)
	assert.NotEmpty(t, items[0].ID)

	toasts := notifier.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, "File too large", toasts[0].Title)
	assert.Equal(t, "big.png is larger than 5MB. Please choose a smaller file.", toasts[0].Description)
	assert.Equal(t, models.ToastVariantDestructive, toasts[0].Variant)
}

func TestAdd_TypeIsSniffedFromBytes(t *testing.T) {
	s := newTestSet(t, nil)

	res := s.Add(context.Background(),
		File{Name: "notes.png", Data: []byte("just some text, not an image")},
		pngFile("real.png", 64),
	)
	s.Wait()

	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "notes.png", res.Rejected[0].File)
	assert.Equal(t, errors.ErrCodeInvalidFileType, res.Rejected[0].Err.Code)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "image/png", s.Items()[0].ContentType)
}

func TestDropAndPickShareValidation(t *testing.T) {
	for name, entry := range map[string]func(*Set) func(context.Context, ...File) AddResult{
		"drop": func(s *Set) func(context.Context, ...File) AddResult { return s.Drop },
		"pick": func(s *Set) func(context.Context, ...File) AddResult { return s.Pick },
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestSet(t, nil)
			res := entry(s)(context.Background(), pngFile("big.png", 6*1024*1024), pngFile("ok.png", 16))
			s.Wait()
			require.Len(t, res.Rejected, 1)
			assert.Equal(t, errors.ErrCodeFileTooLarge, res.Rejected[0].Err.Code)
			assert.Equal(t, 1, s.Len())
		})
	}
}

// ==========================
// Decode & lifecycle
// ==========================

func TestDecode_ProducesDataURI(t *testing.T) {
	s := newTestSet(t, nil)
	f := pngFile("a.png", 32)

	s.Add(context.Background(), f)
	s.Wait()

	uris := s.DataURIs()
	require.Len(t, uris, 1)
	assert.True(t, strings.HasPrefix(uris[0], "data:image/png;base64,"))

	back, err := ParseDataURI("a.png", uris[0])
	require.NoError(t, err)
	assert.True(t, bytes.Equal(f.Data, back.Data))
}

func TestDiscard_LateDecodesAreNoOps(t *testing.T) {
	s := newTestSet(t, nil)

	s.Add(context.Background(), pngFile("a.png", 2*1024*1024), pngFile("b.png", 2*1024*1024))
	s.Discard()
	s.Wait()

	assert.Zero(t, s.Len())

	res := s.Add(context.Background(), pngFile("c.png", 16))
	assert.Empty(t, res.Accepted)
	assert.Zero(t, s.Len())
}

func TestAdd_CancelledContextAbandonsDecode(t *testing.T) {
	s := newTestSet(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Add(ctx, pngFile("a.png", 16))
	s.Wait()
	assert.Zero(t, s.Len())
}

func TestRemove(t *testing.T) {
	s := newTestSet(t, nil)
	s.Preload([]string{"https://cdn.test/1.jpg", "https://cdn.test/2.jpg", "https://cdn.test/3.jpg"})

	s.Remove(-1)
	s.Remove(3)
	assert.Equal(t, 3, s.Len())

	s.Remove(1)
	assert.Equal(t, []string{"https://cdn.test/1.jpg", "https://cdn.test/3.jpg"}, s.DataURIs())
}

func TestPreload_CapsAtMax(t *testing.T) {
	s := newTestSet(t, nil)
	refs := []string{"1", "2", "3", "4", "5", "6"}
	s.Preload(refs)
	assert.Equal(t, refs[:5], s.DataURIs())
}

func TestParseDataURI_Errors(t *testing.T) {
	_, err := ParseDataURI("x", "https://cdn.test/x.png")
	assert.Error(t, err)

	_, err = ParseDataURI("x", "data:image/png,rawbytes")
	assert.Error(t, err)

	_, err = ParseDataURI("x", "data:image/png;base64,!!!")
	assert.Error(t, err)

	f, err := ParseDataURI("x", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngMagic))
	require.NoError(t, err)
	assert.Equal(t, pngMagic, f.Data)
}
