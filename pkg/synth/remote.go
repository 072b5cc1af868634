package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/voxlate/voxlate/pkg/audio/pcm"
	"github.com/voxlate/voxlate/pkg/profile"
)

// RemoteEngine renders speech through a voice-clone TTS server over a
// websocket.
//
// The protocol is one connection per synthesis: the client sends a JSON
// request carrying the text, language, sample rate and speaker
// embedding, then reads binary frames of little-endian PCM16 audio
// until a JSON status message reports completion or an error.
type RemoteEngine struct {
	url    string
	dialer *websocket.Dialer
}

var _ Engine = (*RemoteEngine)(nil)

// RemoteOption configures a RemoteEngine.
type RemoteOption func(*RemoteEngine)

// WithDialer sets a custom websocket dialer.
func WithDialer(d *websocket.Dialer) RemoteOption {
	return func(e *RemoteEngine) { e.dialer = d }
}

// NewRemoteEngine creates an engine speaking to the TTS server at url
// (a ws:// or wss:// endpoint).
func NewRemoteEngine(url string, opts ...RemoteOption) *RemoteEngine {
	e := &RemoteEngine{
		url:    url,
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements [Engine].
func (*RemoteEngine) Name() string { return "remote" }

// synthesisRequest is the first message on a synthesis connection.
type synthesisRequest struct {
	Text       string    `json:"text"`
	Language   string    `json:"language"`
	SampleRate int       `json:"sample_rate"`
	Embedding  []float32 `json:"embedding"`
}

// synthesisStatus is the JSON control message ending a stream.
type synthesisStatus struct {
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// Render implements [Engine].
func (e *RemoteEngine) Render(ctx context.Context, text, langCode string, p *profile.Profile) ([]float32, error) {
	conn, _, err := e.dialer.DialContext(ctx, e.url, nil)
	if err != nil {
		return nil, fmt.Errorf("synth: connect tts server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	req := synthesisRequest{
		Text:       text,
		Language:   langCode,
		SampleRate: p.SampleRate,
		Embedding:  p.Embedding,
	}
	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("synth: send request: %w", err)
	}

	var audio []byte
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil, errors.New("synth: connection closed before completion")
			}
			return nil, fmt.Errorf("synth: read stream: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			audio = append(audio, data...)

		case websocket.TextMessage:
			var status synthesisStatus
			if err := json.Unmarshal(data, &status); err != nil {
				return nil, fmt.Errorf("synth: bad status message: %w", err)
			}
			if status.Error != "" {
				return nil, fmt.Errorf("synth: tts server: %s", status.Error)
			}
			if status.Done {
				if len(audio) == 0 {
					return nil, errors.New("synth: server produced no audio")
				}
				return pcm.ToFloat32(audio), nil
			}
		}
	}
}
