package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ndetsrc/internal/decay"
	"github.com/roach88/ndetsrc/internal/dist"
	"github.com/roach88/ndetsrc/internal/reaction"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"empty", dist.ErrEmptyDistribution, ErrCodeEmptyDistribution},
		{"forbidden", fmt.Errorf("x: %w", reaction.ErrKinematicallyForbidden), ErrCodeKinematicallyForbidden},
		{"dist parse", dist.ErrParse, ErrCodeParse},
		{"reaction parse", reaction.ErrParse, ErrCodeParse},
		{"decay parse", decay.ErrParse, ErrCodeParse},
		{"io", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}, ErrCodeIO},
		{"other", errors.New("boom"), ErrCodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("f.txt", tt.err)
			var se *SourceError
			assert.True(t, errors.As(err, &se))
			assert.Equal(t, tt.want, se.Code)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Nil(t, classify("", nil))
}

func TestSourceError_Error(t *testing.T) {
	err := &SourceError{Code: ErrCodeIO, Path: "a.txt", Err: errors.New("no such file")}
	assert.Equal(t, "IO_ERROR: no such file (path=a.txt)", err.Error())

	err = invalidArgument("bad %d", 3)
	assert.Equal(t, "INVALID_ARGUMENT: bad 3", err.Error())
}

func TestParseParticle(t *testing.T) {
	p, err := ParseParticle(" Photon ")
	assert.NoError(t, err)
	assert.Equal(t, Gamma, p)

	_, err = ParseParticle("graviton")
	assert.True(t, IsInvalidArgument(err))
}
