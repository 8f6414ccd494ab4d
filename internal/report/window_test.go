package report

import (
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{name: "Open"},
		{
			name:      "Dates",
			start:     "2024-05-06",
			end:       "2024-05-07",
			wantStart: day0,
			wantEnd:   day0.Add(48*time.Hour - time.Microsecond),
		},
		{
			name:      "Timestamps",
			start:     "2024-05-06T08:00:00",
			end:       "2024-05-06 20:30",
			wantStart: day0.Add(8 * time.Hour),
			wantEnd:   day0.Add(20*time.Hour + 30*time.Minute),
		},
		{
			name:      "OffsetDropped",
			start:     "2024-05-06T08:00:00+02:00",
			wantStart: day0.Add(8 * time.Hour),
		},
		{name: "Reversed", start: "2024-05-07", end: "2024-05-06T12:00:00", wantErr: true},
		{name: "Garbage", start: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParseWindow(tt.start, tt.end)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", w)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !w.Start.Equal(tt.wantStart) || !w.End.Equal(tt.wantEnd) {
				t.Errorf("got %v - %v, want %v - %v", w.Start, w.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
