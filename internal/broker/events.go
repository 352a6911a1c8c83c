package broker

import "encoding/json"

// Event names are the wire contract shared with the frontend and must not change.
const (
	// server -> client
	eventSystemStatus = "systemStatus"
	eventSongList     = "songList"
	eventAuthStatus   = "authStatus"
	eventError        = "error"

	// client -> server
	eventAuthenticate    = "authenticate"
	eventGetSystemStatus = "getSystemStatus"
	eventSetSystemStatus = "setSystemStatus"
	eventSuggestSong     = "suggestSong"
	eventVoteSong        = "voteSong"
	eventRemoveSong      = "removeSong"
)

// envelope is the framing for every message in both directions:
// {"event": "...", "data": ...}. Inbound payloads stay raw until the
// dispatcher decodes them into the typed structs below.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type setSystemStatusPayload struct {
	Status bool   `json:"status"`
	Token  string `json:"token"`
}

type suggestSongPayload struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type removeSongPayload struct {
	SongID string `json:"songId"`
	Token  string `json:"token"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	return json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: event, Data: data})
}
