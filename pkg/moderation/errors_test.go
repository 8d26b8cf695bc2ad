package moderation

import (
	"fmt"
	"testing"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := Validation("points can't be lower than %d", 1)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "points can't be lower than 1", Message(err))

	wrapped := fmt.Errorf("warn: %w", Conflict(ErrAlreadyLifted, "case #3 already lifted"))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrAlreadyLifted))

	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, "", Message(errors.New("boom")))
}

func TestBadDuration(t *testing.T) {
	err := BadDuration("soon")
	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, errors.Is(err, ErrBadDuration))
	assert.Contains(t, Message(err), "soon")
}
