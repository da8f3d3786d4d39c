package domain

// LayoutItem is one entry of the geometry list exchanged with the grid engine.
type LayoutItem struct {
	ID string `json:"i"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
	W  int    `json:"w"`
	H  int    `json:"h"`
}

// SlotStore is a durable key-value slot holding one serialized snapshot per key.
// Load returns (nil, nil) when the key has never been written.
type SlotStore interface {
	Load(key string) ([]byte, error)
	Save(key string, value []byte) error
	Delete(key string) error
}
