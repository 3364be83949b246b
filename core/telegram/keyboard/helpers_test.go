package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjust(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, [][]int{{1, 2}, {3}, {4}, {5}, {6}, {7}}, Adjust(items, 2, 1))
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}, Adjust(items, 3))
	assert.Equal(t, [][]int{{1}, {2}}, Adjust(items[:2]))
	assert.Nil(t, Adjust([]int{}, 2))
}

func TestInlineSkipsEmptyRows(t *testing.T) {
	m := Inline([]InlineBtn{{Text: "Back", Data: "menu:0"}}, nil, []InlineBtn{{Text: "A", Data: "a"}, {Text: "B", Data: "b"}})
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "menu:0", m.InlineKeyboard[0][0].Data)
	assert.Len(t, m.InlineKeyboard[1], 2)
}

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons("Choose", []string{"Add product", "Assortment", "Add/Change banner"}, 2)
	require.Len(t, m.ReplyKeyboard, 2)
	assert.Equal(t, "Add product", m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "Add/Change banner", m.ReplyKeyboard[1][0].Text)
	assert.True(t, m.ResizeKeyboard)
}
