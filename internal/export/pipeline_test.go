package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/madmatrix/tickethub/internal/clock"
	"github.com/madmatrix/tickethub/internal/domain"
)

type stubRenderer struct {
	err error
}

func (s stubRenderer) Render(w io.Writer, t domain.Ticket) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, `<div id="ticket">`+t.Name+`</div>`)
	return err
}

func (stubRenderer) Size() (int, int) { return 85, 48 }

type stubRasterizer struct {
	data  []byte
	err   error
	delay time.Duration

	mu       sync.Mutex
	lastHTML string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	closed   bool
}

func (s *stubRasterizer) Capture(ctx context.Context, html string, width, height int) ([]byte, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	s.mu.Lock()
	s.lastHTML = html
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.data, s.err
}

func (s *stubRasterizer) Close() error {
	s.closed = true
	return nil
}

// capturePNG builds a transparent-cornered capture at 3x the stub size.
func capturePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 255, 144))
	for y := 10; y < 134; y++ {
		for x := 10; x < 245; x++ {
			img.Set(x, y, color.NRGBA{R: 0xff, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var exportTime = time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)

func TestPipeline_Export(t *testing.T) {
	t.Parallel()

	data := capturePNG(t)
	ticket := domain.Ticket{Name: "Asha", RegistrationNumber: "MM/042"}

	tests := []struct {
		format      domain.Format
		filename    string
		contentType string
		check       func(t *testing.T, b []byte)
	}{
		{
			format: domain.FormatPNG, filename: "MadMatrix_Permit_MM_042.png", contentType: "image/png",
			check: func(t *testing.T, b []byte) { assert.Equal(t, data, b) },
		},
		{
			format: domain.FormatJPEG, filename: "MadMatrix_Permit_MM_042.jpg", contentType: "image/jpeg",
			check: func(t *testing.T, b []byte) {
				img, err := jpeg.Decode(bytes.NewReader(b))
				require.NoError(t, err)
				assert.Equal(t, image.Rect(0, 0, 255, 144), img.Bounds())
				// transparent corner is flattened onto #050000
				r, g, bl, _ := img.At(0, 0).RGBA()
				assert.Less(t, r>>8, uint32(16))
				assert.Less(t, g>>8, uint32(8))
				assert.Less(t, bl>>8, uint32(8))
			},
		},
		{
			format: domain.FormatPDF, filename: "MadMatrix_Permit_MM_042.pdf", contentType: "application/pdf",
			check: func(t *testing.T, b []byte) {
				assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
				assert.Contains(t, string(b), "/MediaBox [0 0 85.00 48.00]")
				assert.Contains(t, string(b), "D:20260313090000")
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			raster := &stubRasterizer{data: data}
			p := NewPipeline(stubRenderer{}, raster, WithClock(clock.NewFixed(exportTime)))

			art, err := p.Export(context.Background(), ticket, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.filename, art.Filename)
			assert.Equal(t, tt.contentType, art.ContentType)
			assert.Equal(t, 255, art.Width)
			assert.Equal(t, 144, art.Height)
			assert.Contains(t, raster.lastHTML, "Asha")
			tt.check(t, art.Data)
		})
	}
}

func TestPipeline_ExportErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		render  error
		raster  *stubRasterizer
		wantErr error
	}{
		{name: "render", render: errors.New("template"), raster: &stubRasterizer{}, wantErr: domain.ErrRenderFailed},
		{name: "capture", raster: &stubRasterizer{err: errors.New("chrome gone")}, wantErr: domain.ErrRenderFailed},
		{name: "empty capture", raster: &stubRasterizer{}, wantErr: domain.ErrRenderFailed},
		{name: "garbage capture", raster: &stubRasterizer{data: []byte("nope")}, wantErr: domain.ErrRenderFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewPipeline(stubRenderer{err: tt.render}, tt.raster)
			_, err := p.Export(context.Background(), domain.Ticket{Name: "A"}, domain.FormatPNG)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPipeline_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	p := NewPipeline(stubRenderer{}, &stubRasterizer{})
	_, err := p.Export(context.Background(), domain.Ticket{}, domain.Format("gif"))
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.False(t, errors.Is(err, domain.ErrRenderFailed))
}

func TestPipeline_BoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	raster := &stubRasterizer{data: capturePNG(t), delay: 30 * time.Millisecond}
	p := NewPipeline(stubRenderer{}, raster, WithMaxConcurrent(2))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Export(context.Background(), domain.Ticket{Name: "A"}, domain.FormatPNG)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, raster.maxSeen.Load(), int32(2))
}

func TestPipeline_WaitRespectsCancel(t *testing.T) {
	t.Parallel()

	raster := &stubRasterizer{data: capturePNG(t), delay: time.Second}
	p := NewPipeline(stubRenderer{}, raster, WithMaxConcurrent(1))

	go func() {
		_, _ = p.Export(context.Background(), domain.Ticket{Name: "A"}, domain.FormatPNG)
	}()
	for raster.inFlight.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Export(ctx, domain.Ticket{Name: "B"}, domain.FormatPNG)
	require.ErrorIs(t, err, domain.ErrRenderFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, strings.Contains(err.Error(), "capture slot"))
}

func TestPipeline_Close(t *testing.T) {
	t.Parallel()

	raster := &stubRasterizer{}
	require.NoError(t, NewPipeline(stubRenderer{}, raster).Close())
	assert.True(t, raster.closed)
}
