package models

// Sort is the fixed sort vocabulary for paginated listings.
type Sort string

const (
	SortByName        Sort = "name"
	SortByCreatedAt   Sort = "created_at"
	SortBySize        Sort = "size"
	SortByLastCreated Sort = "last_created"
)

// ParseSort maps arbitrary input onto the sort vocabulary, defaulting to
// created_at ascending for anything unrecognized.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortByName, SortByCreatedAt, SortBySize, SortByLastCreated:
		return Sort(s)
	default:
		return SortByCreatedAt
	}
}
