package orm

// Persistent is anything that can be stored in the database.
type Persistent interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Model is the value of an Object, a Persistent that can validate
// itself before being saved.
type Model interface {
	Persistent
	Validate() error
}

// Object is what is stored in the bucket
// Key is joined with the prefix to set the full key
// Value is the data stored
type Object interface {
	Keyed
	Cloneable
	// Validate returns error if the object is not in a valid
	// state to save to the db (eg. field missing, out of range, ...)
	Validate() error
	Value() Model
}

// Keyed is anything that can identify itself
type Keyed interface {
	Key() []byte
	SetKey([]byte)
}

// Cloneable will create a new object that can be loaded into
type Cloneable interface {
	Clone() Object
}
