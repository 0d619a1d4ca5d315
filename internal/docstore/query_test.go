package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Key_IsLogicalIdentity(t *testing.T) {
	t.Parallel()

	a := CollectionQuery("quotes").Where("sellerId", OpEqual, "s1").Where("status", OpEqual, "pending")
	b := CollectionQuery("quotes").Where("status", OpEqual, "pending").Where("sellerId", OpEqual, "s1")
	c := CollectionQuery("quotes").Where("sellerId", OpEqual, "s2")

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "quotes", CollectionQuery("quotes").Key())
}

func TestQuery_Where_DoesNotAlias(t *testing.T) {
	t.Parallel()

	base := CollectionQuery("sales").Where("sellerId", OpEqual, "s1")
	x := base.Where("client", OpEqual, "x")
	y := base.Where("client", OpEqual, "y")

	assert.Len(t, base.Filters, 1)
	assert.Equal(t, "x", x.Filters[1].Value)
	assert.Equal(t, "y", y.Filters[1].Value)
}

func TestQuery_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		q       Query
		wantErr bool
	}{
		{"plain", CollectionQuery("quotes"), false},
		{"in with slice", CollectionQuery("quotes").Where("status", OpIn, []string{"won", "lost"}), false},
		{"empty collection", Query{}, true},
		{"nested path", CollectionQuery("a/b"), true},
		{"in with scalar", CollectionQuery("quotes").Where("status", OpIn, "won"), true},
		{"unknown op", CollectionQuery("quotes").Where("amount", FilterOp(">"), 1), true},
		{"empty field", CollectionQuery("quotes").Where("", OpEqual, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.q.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestQuery_Matches(t *testing.T) {
	t.Parallel()

	data := map[string]any{"sellerId": "s1", "amount": float64(100), "status": "won"}

	assert.True(t, CollectionQuery("quotes").Matches(data))
	assert.True(t, CollectionQuery("quotes").Where("sellerId", OpEqual, "s1").Matches(data))
	assert.True(t, CollectionQuery("quotes").Where("amount", OpEqual, 100).Matches(data))
	assert.False(t, CollectionQuery("quotes").Where("sellerId", OpEqual, "s2").Matches(data))
	assert.False(t, CollectionQuery("quotes").Where("missing", OpEqual, "x").Matches(data))
	assert.True(t, CollectionQuery("quotes").Where("status", OpIn, []string{"won", "lost"}).Matches(data))
	assert.False(t, CollectionQuery("quotes").Where("status", OpIn, []string{"pending"}).Matches(data))
}

func TestQuery_MatchesRaw(t *testing.T) {
	t.Parallel()

	q := CollectionQuery("sales").Where("sellerId", OpEqual, "s1")

	assert.True(t, q.MatchesRaw([]byte(`{"sellerId":"s1"}`)))
	assert.False(t, q.MatchesRaw([]byte(`{"sellerId":"s2"}`)))
	assert.False(t, q.MatchesRaw([]byte(`not json`)))
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	ref, ok := ParsePath("settings/followup")
	require.True(t, ok)
	assert.Equal(t, Ref{Collection: "settings", ID: "followup"}, ref)
	assert.Equal(t, "settings/followup", ref.Path())

	for _, bad := range []string{"", "settings", "settings/", "/x", "a/b/c"} {
		_, ok := ParsePath(bad)
		assert.False(t, ok, bad)
	}
}
