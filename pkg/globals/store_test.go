package globals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "upper case kept", key: "MYVAR", want: "MYVAR"},
		{name: "lower case normalized", key: "myvar", want: "MYVAR"},
		{name: "underscore allowed", key: "my_var_2", want: "MY_VAR_2"},
		{name: "single character rejected", key: "v", wantErr: true},
		{name: "sigil rejected", key: "$X", wantErr: true},
		{name: "sigil with long name rejected", key: "$LONGER", wantErr: true},
		{name: "empty rejected", key: "", wantErr: true},
		{name: "punctuation rejected", key: "MY-VAR", wantErr: true},
		{name: "leading digit rejected", key: "1ABC", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeKey(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidGlobalKey)
				assert.True(t, IsInvalidGlobalKey(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_SetGet(t *testing.T) {
	store := New()

	require.NoError(t, store.Set("MYVAR", []string{"a", "b"}))

	value, ok := store.Get("MYVAR")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, value)

	value, ok = store.Get("myvar")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, value)
}

func TestStore_SetRejectsInvalidKeys(t *testing.T) {
	store := New()

	assert.ErrorIs(t, store.Set("v", []string{"x"}), ErrInvalidGlobalKey)
	assert.ErrorIs(t, store.Set("$X", []string{"x"}), ErrInvalidGlobalKey)
	assert.Equal(t, 0, store.Len())
}

func TestStore_ValuesAreCopied(t *testing.T) {
	store := New()
	value := []string{"a"}

	require.NoError(t, store.Set("KEY", value))
	value[0] = "mutated"

	got, _ := store.Get("KEY")
	assert.Equal(t, []string{"a"}, got)

	got[0] = "mutated again"
	again, _ := store.Get("KEY")
	assert.Equal(t, []string{"a"}, again)
}

func TestStore_DeleteAndFlush(t *testing.T) {
	store := New()
	require.NoError(t, store.Set("ONE", []string{"1"}))
	require.NoError(t, store.Set("TWO", []string{"2"}))

	removed, err := store.Delete("one")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete("one")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = store.Delete("x")
	assert.ErrorIs(t, err, ErrInvalidGlobalKey)

	assert.Equal(t, []string{"TWO"}, store.Keys())

	store.FlushAll()
	assert.Empty(t, store.Keys())
}

func TestStore_SnapshotRestore(t *testing.T) {
	store := New()
	require.NoError(t, store.Set("AA", []string{"1", "2"}))

	snap := store.Snapshot()

	require.NoError(t, store.Set("BB", []string{"3"}))
	require.NoError(t, store.Set("AA", []string{"changed"}))

	store.Restore(snap)

	assert.Equal(t, []string{"AA"}, store.Keys())
	value, _ := store.Get("AA")
	assert.Equal(t, []string{"1", "2"}, value)
}

func TestStore_Substitute(t *testing.T) {
	store := New()
	require.NoError(t, store.Set("NAME", []string{"world"}))
	require.NoError(t, store.Set("LIST", []string{"a", "b", "c"}))
	require.NoError(t, store.Set("LOOP", []string{"$NAME"}))

	tests := []struct {
		name        string
		text        string
		want        string
		wantMissing []string
	}{
		{name: "no reference", text: "plain", want: "plain"},
		{name: "simple reference", text: "hello $NAME", want: "hello world"},
		{name: "lower case reference", text: "hello $name!", want: "hello world!"},
		{name: "braced reference", text: "${NAME}wide", want: "worldwide"},
		{name: "list joined with spaces", text: "[$LIST]", want: "[a b c]"},
		{name: "not recursive", text: "$LOOP", want: "$NAME"},
		{name: "missing variable", text: "x$MISSING y", want: "x y", wantMissing: []string{"MISSING"}},
		{name: "missing reported once", text: "$NOPE $NOPE", want: " ", wantMissing: []string{"NOPE"}},
		{name: "lone sigil untouched", text: "cost: $5", want: "cost: $5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, missing := store.Substitute(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantMissing, missing)
		})
	}
}

func TestReferences(t *testing.T) {
	assert.Nil(t, References("nothing here"))
	assert.Equal(t, []string{"A_B", "CC"}, References("$a_b ${cc} $A_B"))
}
