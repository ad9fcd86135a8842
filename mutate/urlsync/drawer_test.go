package urlsync_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilimnik/refine/mutate/urlsync"
)

func Test_DrawerState_EncodeDecodeRoundTrip(t *testing.T) {
	values := url.Values{}
	state := urlsync.DrawerState{Resource: "posts", Action: "edit", Open: true, ID: "42"}

	state.Encode(values)

	assert.Equal(t, "true", values.Get("drawer-posts-edit[open]"))
	assert.Equal(t, "42", values.Get("drawer-posts-edit[id]"))

	decoded, ok := urlsync.Decode(values, "posts", "edit")
	require.True(t, ok)
	assert.Equal(t, state, decoded)
}

func Test_DrawerState_RoundTripSurvivesURLSerialization(t *testing.T) {
	values := url.Values{}
	state := urlsync.DrawerState{Resource: "posts", Action: "edit", Open: true, ID: "42"}
	state.Encode(values)

	// Simulate a full page reload: serialize and reparse the query string.
	reparsed, err := url.ParseQuery(values.Encode())
	require.NoError(t, err)

	decoded, ok := urlsync.Decode(reparsed, "posts", "edit")
	require.True(t, ok)
	assert.Equal(t, state, decoded)
}

func Test_DrawerState_EncodeClosedDrawerDropsID(t *testing.T) {
	values := url.Values{}

	urlsync.DrawerState{Resource: "posts", Action: "edit", Open: true, ID: "42"}.Encode(values)
	urlsync.DrawerState{Resource: "posts", Action: "edit", Open: false}.Encode(values)

	assert.Equal(t, "false", values.Get("drawer-posts-edit[open]"))
	assert.Empty(t, values.Get("drawer-posts-edit[id]"))
}

func Test_Decode_MissingStateReportsAbsence(t *testing.T) {
	values := url.Values{"page": []string{"2"}}

	_, ok := urlsync.Decode(values, "posts", "edit")

	assert.False(t, ok)
}

func Test_Decode_ResourceNamesMayContainDashes(t *testing.T) {
	values := url.Values{}
	state := urlsync.DrawerState{Resource: "blog-posts", Action: "edit", Open: true, ID: "7"}
	state.Encode(values)

	decoded, ok := urlsync.Decode(values, "blog-posts", "edit")

	require.True(t, ok)
	assert.Equal(t, state, decoded)
}

func Test_DecodeAll_IgnoresUnrelatedParameters(t *testing.T) {
	values, err := url.ParseQuery(
		"drawer-posts-edit%5Bopen%5D=true&drawer-posts-edit%5Bid%5D=42" +
			"&drawer-categories-create%5Bopen%5D=false" +
			"&page=2&sort=title&drawer-broken=x")
	require.NoError(t, err)

	states := urlsync.DecodeAll(values)

	assert.ElementsMatch(t, []urlsync.DrawerState{
		{Resource: "posts", Action: "edit", Open: true, ID: "42"},
		{Resource: "categories", Action: "create", Open: false},
	}, states)
}
