package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-inventory/core"
)

func Test_ItemKind_RentalDays(t *testing.T) {
	assert.Equal(t, 14, core.Book.RentalDays(), "books are lent for two weeks")
	assert.Equal(t, 7, core.Video.RentalDays(), "videos are lent for one week")
}

func Test_ParseItemKind(t *testing.T) {
	testCases := []struct {
		code     string
		expected core.ItemKind
	}{
		{code: "BOOK", expected: core.Book},
		{code: "book", expected: core.Book},
		{code: "VIDEO", expected: core.Video},
		{code: "MOVIE_DISC", expected: core.Video},
		{code: " movie ", expected: core.Video},
	}

	for _, tc := range testCases {
		kind, err := core.ParseItemKind(tc.code)

		require.NoError(t, err, "code %q should parse", tc.code)
		assert.Equal(t, tc.expected, kind)
	}
}

func Test_ParseItemKind_Unknown(t *testing.T) {
	kind, err := core.ParseItemKind("MAGAZINE")

	assert.ErrorIs(t, err, core.ErrUnknownItemKind)
	assert.True(t, kind.IsZero())
}

func Test_SequenceIDGenerator_IsDeterministic(t *testing.T) {
	generator := core.NewSequenceIDGenerator()

	assert.Equal(t, "00000000-0000-0000-0000-000000000001", generator.NewID().String())
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", generator.NewID().String())
}
