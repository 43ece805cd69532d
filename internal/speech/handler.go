package speech

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const defaultVoice = "cmn-TW-Wavenet-A"

// Voices the frontend may request; anything else falls back to the default.
var validVoices = map[string]bool{
	"cmn-TW-Wavenet-A": true,
	"cmn-TW-Wavenet-B": true,
	"cmn-TW-Wavenet-C": true,
}

// TTSClient synthesizes speech for an assistant reply.
type TTSClient interface {
	Synthesize(ctx context.Context, text, voiceName string) ([]byte, error)
}

type Handler struct {
	tts TTSClient
}

func NewHandler(tts TTSClient) *Handler {
	return &Handler{tts: tts}
}

type ttsRequest struct {
	Text      string `json:"text"`
	VoiceName string `json:"voiceName"`
}

func (h *Handler) HandleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "Missing or invalid text", http.StatusBadRequest)
		return
	}

	voice := defaultVoice
	if validVoices[req.VoiceName] {
		voice = req.VoiceName
	}

	audio, err := h.tts.Synthesize(r.Context(), req.Text, voice)
	if err != nil {
		log.Printf("speech: synthesis failed: %v", err)
		http.Error(w, "TTS failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	_, _ = w.Write(audio)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/", h.HandleSynthesize)
}
