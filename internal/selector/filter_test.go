package selector

import (
	"testing"

	"catchcli/internal/scanner"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func sample() []scanner.CodeFile {
	return []scanner.CodeFile{
		{Path: "AndroidManifest.xml", Content: []byte("m")},
		{Path: "subfolder/test.py", Content: []byte("p")},
		{Path: "test.js", Content: []byte("j")},
	}
}

func TestFilter_OrderPreserving(t *testing.T) {
	got := Filter(sample(), []string{"test.js", "AndroidManifest.xml"})
	want := []scanner.CodeFile{
		{Path: "AndroidManifest.xml", Content: []byte("m")},
		{Path: "test.js", Content: []byte("j")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	paths := []string{"subfolder/test.py", "test.js"}
	once := Filter(sample(), paths)
	twice := Filter(once, paths)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Filter not idempotent (-once +twice):\n%s", diff)
	}
}

func TestFilter_EmptyAndFull(t *testing.T) {
	assert.Empty(t, Filter(sample(), nil))
	assert.Empty(t, Filter(nil, []string{"test.js"}))

	all := sample()
	full := Filter(all, scanner.Paths(all))
	assert.Equal(t, all, full)
}

func TestFilter_ExactMatchOnly(t *testing.T) {
	got := Filter(sample(), []string{"test", "TEST.JS", "subfolder/", "./test.js"})
	assert.Empty(t, got)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	all := sample()
	before := scanner.Paths(all)
	out := Filter(all, []string{"test.js"})
	out[0].Selected = true

	assert.Equal(t, before, scanner.Paths(all))
	for _, f := range all {
		assert.False(t, f.Selected)
	}
}
