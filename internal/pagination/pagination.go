// Package pagination holds the page arithmetic used by topic and board listings.
package pagination

const (
	// PostsPerPage is the number of posts on one topic page.
	PostsPerPage = 3
	// TopicsPerPage is the number of topics on one board page.
	TopicsPerPage = 20
	// MaxPagesShown is the page count above which a topic preview is truncated.
	MaxPagesShown = 6
	// TruncatedRange is how many leading pages a truncated preview links to.
	TruncatedRange = 4

	window = 3
)

// PageCount returns ceil(count / PostsPerPage).
func PageCount(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + PostsPerPage - 1) / PostsPerPage
}

func HasManyPages(pageCount int) bool {
	return pageCount > MaxPagesShown
}

// PageRange returns the page numbers linked from a topic preview.
// Topics with more than MaxPagesShown pages only link the first
// TruncatedRange pages, whatever their real length.
func PageRange(pageCount int) []int {
	if HasManyPages(pageCount) {
		return seq(1, TruncatedRange)
	}
	return seq(1, pageCount)
}

func seq(from, to int) []int {
	if to < from {
		return []int{}
	}
	pages := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		pages = append(pages, i)
	}
	return pages
}

// Page is one window of a paginated listing.
type Page struct {
	Number   int
	NumPages int
	PerPage  int
	Total    int
}

// New builds the page for the requested number. Numbers outside
// [1, NumPages] are clamped; an empty listing still has one page.
func New(total, number, perPage int) Page {
	if perPage <= 0 {
		perPage = 1
	}
	if total < 0 {
		total = 0
	}
	numPages := (total + perPage - 1) / perPage
	if numPages == 0 {
		numPages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return Page{Number: number, NumPages: numPages, PerPage: perPage, Total: total}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) Previous() int     { return p.Number - 1 }
func (p Page) Next() int         { return p.Number + 1 }
func (p Page) HasOtherPages() bool {
	return p.NumPages > 1
}

// Pages returns the page numbers within three pages of the current one.
func (p Page) Pages() []int {
	from := max(1, p.Number-window)
	to := min(p.NumPages, p.Number+window)
	return seq(from, to)
}
