package entity

// Player is one side of a match as seen by the local process.
type Player struct {
	Name string `json:"name"`
	Mark Mark   `json:"-"`
}
