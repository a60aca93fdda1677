package common

// SortOrder is the direction of an ordered listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort is the shared representation of an ordering request.
// Column is validated by each domain against its allowed fields.
type Sort struct {
	Column string
	Order  SortOrder
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
