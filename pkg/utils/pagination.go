package utils

// CalculateTotalPages returns how many pages total rows span at perPage
// rows each, rounding the last partial page up. Non-positive inputs yield
// zero pages.
func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	pages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		pages++
	}
	return int(pages)
}

// CalculateOffset converts a 1-based page number into a row offset. Pages
// below 1 read from the start.
func CalculateOffset(page, perPage int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * perPage
}
