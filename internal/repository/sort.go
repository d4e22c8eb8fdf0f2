package repository

import "fmt"

// SortField is a whitelisted task sort key, named as clients send it.
type SortField string

// Sort fields
const (
	SortNone      SortField = ""
	SortTitle     SortField = "title"
	SortDueDate   SortField = "dueDate"
	SortPriority  SortField = "priority"
	SortStatus    SortField = "status"
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
)

var sortColumns = map[SortField]string{
	SortTitle:     "title",
	SortDueDate:   "due_date",
	SortPriority:  "priority",
	SortStatus:    "status",
	SortCreatedAt: "created_at",
	SortUpdatedAt: "updated_at",
}

// ParseSortField validates a client supplied sort key. Empty means default order.
func ParseSortField(s string) (SortField, error) {
	f := SortField(s)
	if f == SortNone {
		return SortNone, nil
	}
	if _, ok := sortColumns[f]; !ok {
		return "", fmt.Errorf("invalid sort field %q", s)
	}
	return f, nil
}

// Column returns the storage column for the field.
func (f SortField) Column() string {
	if col, ok := sortColumns[f]; ok {
		return col
	}
	return "created_at"
}

// ParseSortOrder reports whether order requests descending order.
// Anything other than "desc" sorts ascending.
func ParseSortOrder(order string) bool {
	return order == "desc"
}
