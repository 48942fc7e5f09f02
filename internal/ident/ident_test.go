package ident

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_Deterministic(t *testing.T) {
	a := Derive("owner-pk", "videos/a.index", "")
	b := Derive("owner-pk", "videos/a.index", "")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestDerive_ViewerContextDistinct(t *testing.T) {
	own := Derive("owner-pk", "videos/a.index", "")
	shared := Derive("owner-pk", "videos/a.index", "alice")
	other := Derive("owner-pk", "videos/a.index", "bob")

	assert.NotEqual(t, own, shared)
	assert.NotEqual(t, own, other)
	assert.NotEqual(t, shared, other)
}

func TestDerive_CollisionFreedom(t *testing.T) {
	seen := make(map[string]string)
	for o := 0; o < 20; o++ {
		for p := 0; p < 20; p++ {
			for _, v := range []string{"", "alice", "bob"} {
				owner := fmt.Sprintf("owner-%d", o)
				path := fmt.Sprintf("videos/%d.index", p)
				id := Derive(owner, path, v)
				key := owner + "|" + path + "|" + v
				prev, ok := seen[id]
				require.False(t, ok, "collision between %s and %s", prev, key)
				seen[id] = key
			}
		}
	}
}

func TestSection(t *testing.T) {
	assert.Equal(t, "pk_videos", Section("pk", "videos"))
}
