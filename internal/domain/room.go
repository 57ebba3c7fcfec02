package domain

type (
	RoomName string
	RoomID   string
)

type Room struct {
	ID       RoomID   `json:"id"`
	Name     RoomName `json:"name"`
	Capacity int      `json:"capacity"`
}
