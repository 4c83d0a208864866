package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCode(t *testing.T) {
	err := Clone(ErrNotFound, "semester not found")
	assert.Equal(t, "semester not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrStorage))
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestIsCodeFollowsWrapChain(t *testing.T) {
	cause := errors.New("disk full")
	storageErr := Wrap(cause, ErrStorage.Code, ErrStorage.Status, "save semesters")
	outer := fmt.Errorf("add course: %w", storageErr)

	assert.True(t, IsCode(outer, ErrStorage.Code))
	assert.True(t, errors.Is(outer, ErrStorage))
	assert.True(t, errors.Is(outer, cause))
	assert.False(t, IsCode(outer, ErrFormat.Code))
	assert.False(t, IsCode(cause, ErrStorage.Code))
	assert.False(t, IsCode(nil, ErrStorage.Code))
}

func TestFromErrorNormalises(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)

	typed := Clone(ErrFormat, "top-level value must be an array")
	assert.Same(t, typed, FromError(fmt.Errorf("import: %w", typed)))
}
