package models

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CrawlError
		want string
	}{
		{"with cause", NewCrawlError(ErrCodeNavigation, "goto failed", errors.New("dns")), "NAVIGATION_FAILED: goto failed: dns"},
		{"no cause", NewCrawlError(ErrCodeInvalidConfig, "pages must be >= 1", nil), "INVALID_CONFIG: pages must be >= 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCodeOf_WrappedChain(t *testing.T) {
	base := NewCrawlError(ErrCodeRenderTimeout, "container never rendered", context.DeadlineExceeded)
	wrapped := fmt.Errorf("page 3: %w", base)

	assert.Equal(t, ErrCodeRenderTimeout, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodeRenderTimeout))
	assert.True(t, errors.Is(wrapped, context.DeadlineExceeded))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("boom")))
	assert.False(t, IsCode(nil, ErrCodeInternal))
}
