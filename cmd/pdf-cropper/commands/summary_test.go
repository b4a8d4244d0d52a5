package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spherical/pdf-cropper/internal/domain"
)

func TestHeadline(t *testing.T) {
	tests := []struct {
		name   string
		result domain.BatchResult
		want   string
		ok     bool
	}{
		{
			name:   "all processed",
			result: domain.BatchResult{TotalFiles: 3, ProcessedFiles: 3},
			want:   "all 3 files processed",
			ok:     true,
		},
		{
			name:   "partial failure",
			result: domain.BatchResult{TotalFiles: 3, ProcessedFiles: 2, Errors: []string{"file b.pdf: broken"}},
			want:   "processed 3 files, 2 succeeded, 1 failed",
		},
		{
			name: "cancelled",
			result: domain.BatchResult{
				TotalFiles:     4,
				ProcessedFiles: 1,
				Cancelled:      true,
				Files:          []domain.FileJobResult{{Path: "a.pdf"}},
			},
			want: "cancelled after 1 of 4 files, 1 succeeded, 0 failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Headline(&tt.result)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 page", pluralize(1, "page"))
	assert.Equal(t, "3 pages", pluralize(3, "page"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(ErrFilesFailed))
	assert.Equal(t, 2, ExitCode(domain.ValidationError("bad margin", nil)))
	assert.Equal(t, 2, ExitCode(domain.ConfigError("bad config", nil)))
	assert.Equal(t, 1, ExitCode(domain.OpenError("corrupt", nil)))
}
