package export

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipFor_KeepsCSSBoxAtUnitScale(t *testing.T) {
	t.Parallel()

	clip, err := clipFor(&proto.DOMRect{X: 0, Y: 0, Width: 850, Height: 480})
	require.NoError(t, err)

	// The device scale factor is applied by Chrome on top of the clip, so the
	// clip itself stays in CSS pixels and covers the whole ticket.
	assert.Equal(t, &proto.PageViewport{Width: 850, Height: 480, Scale: 1}, clip)
}

func TestClipFor_KeepsOffset(t *testing.T) {
	t.Parallel()

	clip, err := clipFor(&proto.DOMRect{X: 12.5, Y: 8, Width: 100, Height: 50})
	require.NoError(t, err)
	assert.Equal(t, 12.5, clip.X)
	assert.Equal(t, 8.0, clip.Y)
}

func TestClipFor_RejectsEmptyBox(t *testing.T) {
	t.Parallel()

	for name, box := range map[string]*proto.DOMRect{
		"nil":         nil,
		"zero width":  {Width: 0, Height: 10},
		"zero height": {Width: 10, Height: 0},
	} {
		_, err := clipFor(box)
		assert.Error(t, err, name)
	}
}
