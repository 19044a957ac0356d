package types

// Group is a named label shared by a set of users. Membership is a plain
// many-to-many relation with no ownership direction.
type Group struct {
	// ID is the unique identifier of the group.
	ID int `json:"id" db:"id"`

	// Name is the unique human-readable name of the group.
	Name string `json:"name" db:"name"`
}
