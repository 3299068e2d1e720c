package tiles

import "github.com/robalobadob/lettertiles/apps/go-server/internal/dict"

// totalPages is ceil(n/size); zero items means zero pages.
func totalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Paginate returns page (1-based) of words: items [(page-1)*size, page*size).
// Pages past the end yield no items.
func Paginate(words []string, page, size int) Page {
	if page < 1 {
		page = 1
	}
	total := totalPages(len(words), size)
	out := Page{
		Items:      []WordEntry{},
		Page:       page,
		TotalPages: total,
		Total:      len(words),
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
	start := (page - 1) * size
	if start >= len(words) {
		return out
	}
	end := min(start+size, len(words))
	for _, w := range words[start:end] {
		out.Items = append(out.Items, WordEntry{Word: w, ReferenceURL: dict.ReferenceURL(w)})
	}
	return out
}
