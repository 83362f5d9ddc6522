package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ja7ad/wallclock/pkg/profiler"
	"github.com/ja7ad/wallclock/pkg/threadid"
	"github.com/ja7ad/wallclock/pkg/unwind"
)

func TestOutputter_DropsUnresolvableFrames(t *testing.T) {
	o := New()
	p := profiler.Profile{
		Threads: map[threadid.ID][]profiler.Sample{
			123: {{Frames: []unwind.Frame{1, 2, 3}}},
		},
	}

	doc := o.Output(p)
	require.Empty(t, doc.Modules)
	require.Empty(t, doc.Frames)
	require.Len(t, doc.Threads, 1)
	require.Empty(t, doc.Threads[0].Samples[0].Frames)
}

func TestOutputter_EmptyProfileMarshalsToWireShape(t *testing.T) {
	o := New()
	doc := o.Output(profiler.Profile{Threads: map[threadid.ID][]profiler.Sample{}})

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	require.Contains(t, generic, "modules")
	require.Contains(t, generic, "frames")
	require.Contains(t, generic, "threads")
}

func TestOutputter_FrameMarshalsWireFieldNames(t *testing.T) {
	raw, err := json.Marshal(Frame{ModuleIndex: 2, RelativeIP: 4096})
	require.NoError(t, err)
	require.JSONEq(t, `{"module_index":2,"relative_ip":4096}`, string(raw))
}
