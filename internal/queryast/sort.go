package queryast

import "github.com/roach88/cypherql/internal/schema"

// SortDirection is ASC or DESC.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// SortField orders results by one attribute. Sort fields apply in slice
// order.
type SortField struct {
	Attribute  *schema.Attribute
	Direction  SortDirection
	Attachment Attachment
}

// Desc reports whether the field sorts descending.
func (s SortField) Desc() bool {
	return s.Direction == SortDesc
}
