// api/schemas/schemas_test.go
package schemas_test

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func TestParamsAccessors(t *testing.T) {
	p := schemas.Params{
		"query":     "despacito",
		"wait_time": float64(3), // JSON numbers decode as float64
		"clicks":    float64(5),
		"auto_play": true,
		"keys":      []any{"ctrl", "c"},
	}

	assert.Equal(t, "despacito", p.String("query", ""))
	assert.Equal(t, "google", p.String("site", "google"), "missing key should yield the default")
	assert.Equal(t, 3.0, p.Float("wait_time", 0))
	assert.Equal(t, 5, p.Int("clicks", 0))
	assert.True(t, p.Bool("auto_play", false))
	assert.Equal(t, []string{"ctrl", "c"}, p.StringSlice("keys"))
	assert.True(t, p.Has("query"))
	assert.False(t, p.Has("absent"))
}

func TestParamsWrongTypesFallBack(t *testing.T) {
	p := schemas.Params{
		"query": 42,
		"count": "not a number",
	}

	assert.Equal(t, "fallback", p.String("query", "fallback"))
	assert.Equal(t, 7, p.Int("count", 7))
	assert.Nil(t, p.StringSlice("query"))
}

func TestSequenceRoundTrip(t *testing.T) {
	// Every param value type that crosses the wire: string, number,
	// bool and string list. Decoded JSON yields float64 numbers and
	// []any lists, so the input uses those representations and the
	// decoded sequence must compare equal entry for entry.
	in := schemas.Sequence{
		{Action: schemas.ActionWebSearch, Params: schemas.Params{
			"query":     "despacito",
			"site":      "youtube",
			"auto_play": true,
		}},
		{Action: schemas.ActionOpenApp, Params: schemas.Params{
			"app":       "calculator",
			"wait_time": float64(3),
		}},
		{Action: schemas.ActionHotkey, Params: schemas.Params{
			"keys": []any{"ctrl", "shift", "s"},
		}},
		{Action: schemas.ActionWait},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out schemas.Sequence
	require.NoError(t, json.Unmarshal(data, &out))

	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].Action, out[i].Action, "step %d action", i)
		require.Len(t, out[i].Params, len(in[i].Params), "step %d params", i)
		for key, want := range in[i].Params {
			assert.Equal(t, want, out[i].Params[key], "step %d param %q", i, key)
		}
	}
}

func TestSequenceNeedsBrowser(t *testing.T) {
	tests := []struct {
		name string
		seq  schemas.Sequence
		want bool
	}{
		{
			name: "web search requires a browser",
			seq: schemas.Sequence{
				{Action: schemas.ActionWebSearch, Params: schemas.Params{"query": "cats"}},
			},
			want: true,
		},
		{
			name: "desktop-only sequence does not",
			seq: schemas.Sequence{
				{Action: schemas.ActionOpenApp, Params: schemas.Params{"app": "calculator"}},
				{Action: schemas.ActionScreenshot},
			},
			want: false,
		},
		{
			name: "one web step among desktop steps is enough",
			seq: schemas.Sequence{
				{Action: schemas.ActionOpenApp, Params: schemas.Params{"app": "notepad"}},
				{Action: schemas.ActionWebSearch, Params: schemas.Params{"query": "news"}},
			},
			want: true,
		},
		{
			name: "empty sequence",
			seq:  schemas.Sequence{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.seq.NeedsBrowser())
		})
	}
}

func TestSessionStatusTerminal(t *testing.T) {
	assert.False(t, schemas.StatusPending.Terminal())
	assert.False(t, schemas.StatusRunning.Terminal())
	assert.True(t, schemas.StatusCompleted.Terminal())
	assert.True(t, schemas.StatusFailed.Terminal())
}

func TestNewLogEntry(t *testing.T) {
	entry := schemas.NewLogEntry("hello", schemas.LogSuccess)

	require.Equal(t, "hello", entry.Message)
	require.Equal(t, schemas.LogSuccess, entry.Level)
	// HH:MM:SS
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}$`, entry.Timestamp)
}
