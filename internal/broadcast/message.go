package broadcast

// Tipos de mensagem enviados aos clientes WebSocket
const (
	TypeNextGame    = "next_game"
	TypeGameSettled = "game_settled"
)

// Message trafega no canal Redis e é repassada como está aos clientes
type Message struct {
	Type    string `json:"type"`
	GameID  string `json:"gameId"`
	Payload any    `json:"payload"`
}

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Topic: tipo de mensagem (next_game, game_settled) ou um gameId
type ClientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}
