package repository

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps paging input and returns the resolved page, size and offset.
func normalizePage(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size, (page - 1) * size
}
