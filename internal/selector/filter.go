// Package selector narrows scanned files to the set that is uploaded,
// automatically from server candidates and interactively from a table.
package selector

import "catchcli/internal/scanner"

// Filter returns the files whose path is in paths, in their original
// order. The input slice is not modified.
func Filter(all []scanner.CodeFile, paths []string) []scanner.CodeFile {
	want := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		want[p] = struct{}{}
	}
	out := make([]scanner.CodeFile, 0, len(paths))
	for _, f := range all {
		if _, ok := want[f.Path]; ok {
			out = append(out, f)
		}
	}
	return out
}
