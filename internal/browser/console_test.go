package browser

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/chatprobe/internal/models"
)

func TestConsoleRecorder_PreservesOrder(t *testing.T) {
	recorder := NewConsoleRecorder(arbor.NewLogger())

	for i := 0; i < 100; i++ {
		recorder.Append(models.ConsoleEntry{Level: log.InfoLevel, Type: "log", Message: fmt.Sprintf("m%d", i)})
	}

	entries := recorder.Entries()
	require.Len(t, entries, 100)
	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("m%d", i), entry.Message)
	}
}

func TestConsoleRecorder_ConcurrentAppend(t *testing.T) {
	recorder := NewConsoleRecorder(arbor.NewLogger())

	const writers, perWriter = 8, 250
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				recorder.Append(models.ConsoleEntry{Type: "log", Message: fmt.Sprintf("%d-%d", w, i)})
			}
		}(w)
	}

	// Reader running alongside the writers
	done := make(chan struct{})
	go func() {
		defer close(done)
		for recorder.Len() < writers*perWriter {
			_ = recorder.Entries()
		}
	}()

	wg.Wait()
	<-done

	entries := recorder.Entries()
	require.Len(t, entries, writers*perWriter)

	// Per writer, entries stay in emission order with no duplicates
	next := make(map[int]int)
	seen := make(map[string]bool)
	for _, entry := range entries {
		var w, i int
		_, err := fmt.Sscanf(entry.Message, "%d-%d", &w, &i)
		require.NoError(t, err)
		assert.Equal(t, next[w], i, "writer %d out of order", w)
		next[w] = i + 1
		assert.False(t, seen[entry.Message])
		seen[entry.Message] = true
	}
}

func TestConsoleRecorder_Errors(t *testing.T) {
	recorder := NewConsoleRecorder(arbor.NewLogger())
	recorder.Append(models.ConsoleEntry{Level: log.InfoLevel, Type: "log", Message: "socket connected"})
	for i := 0; i < 7; i++ {
		recorder.Append(models.ConsoleEntry{Level: log.ErrorLevel, Type: "error", Message: fmt.Sprintf("failed %d", i)})
	}
	recorder.Append(models.ConsoleEntry{Level: log.WarnLevel, Type: "warning", Message: "Error boundary caught"})

	errs, total := recorder.Errors(5)
	assert.Equal(t, 8, total)
	require.Len(t, errs, 5)
	assert.Equal(t, "failed 0", errs[0].Message, "first entries are kept")

	all, total := recorder.Errors(0)
	assert.Len(t, all, 8)
	assert.Equal(t, 8, total)

	recorder.Reset()
	assert.Equal(t, 0, recorder.Len())
}

func TestEntryFromEvent(t *testing.T) {
	at := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		event  interface{}
		want   models.ConsoleEntry
		wantOK bool
	}{
		{
			name: "console.error with string and number",
			event: &runtime.EventConsoleAPICalled{
				Type: runtime.APITypeError,
				Args: []*runtime.RemoteObject{
					{Type: runtime.TypeString, Value: []byte(`"Failed to load"`)},
					{Type: runtime.TypeNumber, Value: []byte(`404`)},
				},
			},
			want:   models.ConsoleEntry{Level: log.ErrorLevel, Type: "error", Message: "Failed to load 404", At: at},
			wantOK: true,
		},
		{
			name: "console.warn with object",
			event: &runtime.EventConsoleAPICalled{
				Type: runtime.APITypeWarning,
				Args: []*runtime.RemoteObject{{Type: runtime.TypeObject, Description: "Object"}},
			},
			want:   models.ConsoleEntry{Level: log.WarnLevel, Type: "warning", Message: "Object", At: at},
			wantOK: true,
		},
		{
			name:   "console.log",
			event:  &runtime.EventConsoleAPICalled{Type: runtime.APITypeLog},
			want:   models.ConsoleEntry{Level: log.InfoLevel, Type: "log", Message: "", At: at},
			wantOK: true,
		},
		{
			name: "uncaught exception",
			event: &runtime.EventExceptionThrown{
				ExceptionDetails: &runtime.ExceptionDetails{
					Text:      "Uncaught",
					Exception: &runtime.RemoteObject{Description: "TypeError: x is undefined"},
				},
			},
			want:   models.ConsoleEntry{Level: log.ErrorLevel, Type: "exception", Message: "TypeError: x is undefined", At: at},
			wantOK: true,
		},
		{
			name:   "unrelated event",
			event:  &runtime.EventExecutionContextsCleared{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := entryFromEvent(tt.event, at)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, entry)
			}
		})
	}
}

func TestConsoleRecorder_ExceptionsCountedSeparately(t *testing.T) {
	recorder := NewConsoleRecorder(arbor.NewLogger())
	recorder.handleEvent(&runtime.EventConsoleAPICalled{Type: runtime.APITypeLog})
	recorder.handleEvent(&runtime.EventConsoleAPICalled{Type: runtime.APITypeError})
	recorder.handleEvent(&runtime.EventExceptionThrown{
		ExceptionDetails: &runtime.ExceptionDetails{Text: "Uncaught"},
	})

	assert.Equal(t, 2, recorder.Len(), "exceptions are not console messages")
	assert.Equal(t, 1, recorder.Exceptions())

	errs, total := recorder.Errors(0)
	assert.Equal(t, 2, total)
	assert.Len(t, errs, 2)
	assert.True(t, errs[1].IsException())
}

func TestConsoleRecorder_HandleEvent(t *testing.T) {
	recorder := NewConsoleRecorder(arbor.NewLogger())
	recorder.handleEvent(&runtime.EventConsoleAPICalled{Type: runtime.APITypeInfo})
	recorder.handleEvent(&runtime.EventExecutionContextsCleared{})

	assert.Equal(t, 1, recorder.Len())
}
