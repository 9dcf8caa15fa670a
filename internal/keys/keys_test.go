package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	require.Equal(t, []string{"tab"}, km.NextField.Keys())
	require.Equal(t, []string{"shift+tab"}, km.PrevField.Keys())
	require.Equal(t, []string{"enter"}, km.Select.Keys())
	require.Equal(t, []string{"ctrl+s"}, km.Submit.Keys())
	require.Equal(t, []string{"ctrl+n"}, km.Create.Keys())
	require.Equal(t, []string{"esc"}, km.Escape.Keys())
	require.Equal(t, []string{"ctrl+c"}, km.Quit.Keys())
}

func TestDefaultKeyMap_HelpText(t *testing.T) {
	km := DefaultKeyMap()

	help := km.Submit.Help()
	require.Equal(t, "ctrl+s", help.Key)
	require.Equal(t, "sign up", help.Desc)

	help = km.Create.Help()
	require.Equal(t, "ctrl+n", help.Key)
	require.Equal(t, "create organization", help.Desc)
}
