package core

// User is the account projection returned by the user info endpoint.
type User struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	CntVoice int    `json:"cntVoice"`
}

// Voice is a recorded or synthesized voice. Status is false while the
// server is still building it.
type Voice struct {
	VID      string `json:"vid"      yaml:"vid"`
	Name     string `json:"name"     yaml:"name"`
	Pitch    int    `json:"pitch"    yaml:"pitch"`
	Language string `json:"language" yaml:"language"`
	Status   bool   `json:"status"   yaml:"status"`
}

// Ready reports whether the voice can be used for synthesis and playback.
func (v Voice) Ready() bool {
	return v.Status && v.VID != ""
}

// Tts is one synthesized utterance. Timestamp is in milliseconds since the
// Unix epoch.
type Tts struct {
	ID        string `json:"id"        yaml:"id"`
	Text      string `json:"text"      yaml:"text"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Status    bool   `json:"status"    yaml:"status"`
}

// Identity is what the identity provider knows about the signed-in user.
type Identity struct {
	UID   string
	Email string
	Name  string
	Token string
}
