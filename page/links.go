package page

import "fmt"

// Links builds the Web Link values for offset navigation. prev shrinks
// its limit so the offset never goes negative, and last is clamped to 0
// when the collection is smaller than one page.
func Links(uri string, offset, limit, total int) []string {
	build := func(rel string, newOffset, newLimit int) string {
		return fmt.Sprintf("<%s?offset=%d&limit=%d>; rel=%q", uri, newOffset, newLimit, rel)
	}

	var links []string
	if offset+limit < total {
		links = append(links, build("next", offset+limit, limit))
	}
	links = append(links, build("last", max(0, total-limit), limit))
	links = append(links, build("first", 0, limit))
	if offset > 0 {
		prevLimit := limit + min(0, offset-limit)
		links = append(links, build("prev", offset-prevLimit, prevLimit))
	}
	return links
}
