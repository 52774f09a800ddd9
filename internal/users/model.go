package users

import "time"

// User é o apostador. Points só cresce, 100 por aposta vencida.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}
