package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_WrapTaxonomyRoots(t *testing.T) {
	tests := []struct {
		name string
		err  error
		root error
	}{
		{"ErrInvalidChunking", ErrInvalidChunking, ErrConfiguration},
		{"ErrNoModel", ErrNoModel, ErrConfiguration},
		{"ErrNoDocuments", ErrNoDocuments, ErrConfiguration},
		{"ErrEmptyQuery", ErrEmptyQuery, ErrConfiguration},
		{"ErrInvalidInput", ErrInvalidInput, ErrConfiguration},
		{"ErrUnsupportedType", ErrUnsupportedType, ErrConfiguration},
		{"ErrBusy", ErrBusy, ErrState},
		{"ErrNoData", ErrNoData, ErrState},
		{"ErrInvalidTransition", ErrInvalidTransition, ErrState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.root)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrBusy_NotConfiguration(t *testing.T) {
	assert.False(t, errors.Is(ErrBusy, ErrConfiguration))
	assert.False(t, errors.Is(ErrNoData, ErrContent))
}

func TestContentError(t *testing.T) {
	cause := errors.New("bad xref table")

	pageErr := &ContentError{Document: "report.pdf", Page: 3, Err: cause}
	assert.Equal(t, "content error: report.pdf page 3: bad xref table", pageErr.Error())
	assert.ErrorIs(t, pageErr, ErrContent)
	assert.ErrorIs(t, pageErr, cause)

	docErr := &ContentError{Document: "report.pdf", Err: cause}
	assert.Equal(t, "content error: report.pdf: bad xref table", docErr.Error())

	var target *ContentError
	wrapped := fmt.Errorf("ingest: %w", pageErr)
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, 3, target.Page)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"configuration", ErrInvalidChunking, KindConfiguration},
		{"wrapped configuration", fmt.Errorf("start: %w", ErrNoModel), KindConfiguration},
		{"transient", fmt.Errorf("generate: %w", ErrTransientProvider), KindTransient},
		{"content", &ContentError{Document: "a.txt", Err: errors.New("x")}, KindContent},
		{"state", ErrBusy, KindState},
		{"other", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
