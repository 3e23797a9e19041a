package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"go", "http", "tests"}, SplitTags(" go, http,, tests ,go, "))
	assert.Empty(t, SplitTags(""))
	assert.Empty(t, SplitTags(" , ,"))
}

func TestParseLineNumber(t *testing.T) {
	n, err := ParseLineNumber("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = ParseLineNumber("  ")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = ParseLineNumber("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = ParseLineNumber("abc")
	assert.ErrorIs(t, err, ErrNotANumber)

	_, err = ParseLineNumber("12abc")
	assert.ErrorIs(t, err, ErrNotANumber)

	_, err = ParseLineNumber("-4")
	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("mentor@example.org"))
	assert.False(t, ValidateEmail("mentor@"))
}

func TestValidatePassword(t *testing.T) {
	ok, _ := ValidatePassword("longenough")
	assert.True(t, ok)
	ok, msg := ValidatePassword("short")
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("  hel\x00lo \n"))
}

type sample struct {
	Title string `json:"title" validate:"required,max=5"`
	Skip  string `json:"-" validate:"required"`
}

func TestValidateStructNamesJSONField(t *testing.T) {
	fe := ValidateStruct(sample{Title: "", Skip: "x"})
	require.NotNil(t, fe)
	assert.Equal(t, "title", fe.Field)
	assert.Equal(t, "must not be empty", fe.Message)

	fe = ValidateStruct(sample{Title: "ééééé", Skip: "x"})
	assert.Nil(t, fe, "max counts characters, not bytes")

	fe = ValidateStruct(sample{Title: "toolong", Skip: "x"})
	require.NotNil(t, fe)
	assert.Equal(t, "must be at most 5 characters", fe.Message)

	fe = ValidateStruct(sample{Title: "ok"})
	require.NotNil(t, fe)
	assert.Equal(t, "Skip", fe.Field)
}
