package main

import (
	"testing"
)

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		stats          bool
		verboseOut     bool
		wantJSON       bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:           "default text reaches the screen",
			text:           "hello, kernel\n",
			wantContain:    []string{"hello, kernel"},
			wantNotContain: []string{"typing", "Scancodes"},
		},
		{
			name:        "shifted characters survive the pipeline",
			text:        "Mixed CASE!",
			wantContain: []string{"Mixed CASE!"},
		},
		{
			name:        "stats dump includes driver counters",
			text:        "hi\n",
			stats:       true,
			wantContain: []string{"hi", "Scancodes", "LiveBytes"},
		},
		{
			name:        "verbose reports the scancode count",
			text:        "abc",
			verboseOut:  true,
			wantContain: []string{"typing", "scancodes", "abc"},
		},
		{
			name:        "json wraps screen and stats",
			text:        "hello, kernel\n",
			wantJSON:    true,
			wantContain: []string{"Screen", "hello, kernel", "Heap"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags
			verbose = tt.verboseOut
			jsonOut = tt.wantJSON
			runText = tt.text
			runStats = tt.stats
			runHeapSize = 0

			output, err := captureOutput(t, runRun)
			if err != nil {
				t.Fatalf("runRun() error = %v", err)
			}

			if tt.wantJSON {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}
