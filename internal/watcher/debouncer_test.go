package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name     string
		first    Operation
		next     Operation
		want     Operation
		wantKeep bool
	}{
		{"create then modify", OpCreate, OpModify, OpCreate, true},
		{"create then delete", OpCreate, OpDelete, 0, false},
		{"create then rename", OpCreate, OpRename, 0, false},
		{"delete then create", OpDelete, OpCreate, OpModify, true},
		{"rename then create", OpRename, OpCreate, OpModify, true},
		{"modify then delete", OpModify, OpDelete, OpDelete, true},
		{"modify then modify", OpModify, OpModify, OpModify, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := coalesce(tt.first,
				FileEvent{Path: "a", Operation: tt.first},
				FileEvent{Path: "a", Operation: tt.next})

			assert.Equal(t, tt.wantKeep, keep)
			if keep {
				assert.Equal(t, tt.want, got.Operation)
			}
		})
	}
}

func TestDebouncer_EmitsOneBatchPerBurst(t *testing.T) {
	// Given: a debouncer with a short window
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	// When: a burst of events arrives for two paths
	d.Add(FileEvent{Path: "b.yaml", Operation: OpModify})
	d.Add(FileEvent{Path: "a.yaml", Operation: OpCreate})
	d.Add(FileEvent{Path: "a.yaml", Operation: OpModify})
	d.Add(FileEvent{Path: "b.yaml", Operation: OpModify})

	// Then: one batch with one coalesced event per path
	select {
	case batch := <-d.Output():
		require.Len(t, batch, 2)
		assert.Equal(t, "a.yaml", batch[0].Path)
		assert.Equal(t, OpCreate, batch[0].Operation)
		assert.Equal(t, "b.yaml", batch[1].Path)
		assert.Equal(t, OpModify, batch[1].Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch emitted")
	}
}

func TestDebouncer_CancelledBurstEmitsNothing(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "tmp.yaml", Operation: OpCreate})
	d.Add(FileEvent{Path: "tmp.yaml", Operation: OpDelete})

	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected batch %v", batch)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_StopIsIdempotent(t *testing.T) {
	d := NewDebouncer(time.Hour)
	d.Add(FileEvent{Path: "a", Operation: OpModify})

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "a", Operation: OpModify})

	_, ok := <-d.Output()
	assert.False(t, ok)
}
