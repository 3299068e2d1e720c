// Package assets embeds the default word lists served when WORDS_DIR is unset.
package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed dictionaries/*.txt
var FS embed.FS

const dictDir = "dictionaries"

// DictionaryNames lists the embedded lists by name ("fr", "en", ...), sorted.
func DictionaryNames() ([]string, error) {
	entries, err := fs.ReadDir(FS, dictDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// DictionaryLines returns the raw lines of list name.
func DictionaryLines(name string) ([]string, error) {
	f, err := FS.Open(path.Join(dictDir, name+".txt"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}
