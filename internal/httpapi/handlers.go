package httpapi

import (
	"bytes"
	"compress/gzip"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/battlesnake-replay/internal/grid"
	"github.com/DoyleJ11/battlesnake-replay/internal/hub"
	"github.com/DoyleJ11/battlesnake-replay/internal/playback"
	"github.com/DoyleJ11/battlesnake-replay/internal/replay"
)

const maxCodeAttempts = 10

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// RenderPage serves the HTML board for one turn. When code is empty the match
// is taken from the URL; a missing turn parameter means turn 0.
func RenderPage(h *hub.Hub, code string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchCode := code
		if matchCode == "" {
			matchCode = chi.URLParam(r, "code")
		}
		sess, frame, ok := resolveTurn(w, r, h, matchCode)
		if !ok {
			return
		}

		data := newPage(matchCode, code != "", sess.Projector(), frame)
		var buf bytes.Buffer
		if err := boardTemplate.Execute(&buf, data); err != nil {
			http.Error(w, "failed to render board", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}

// TurnJSON serves the same frame as RenderPage for programmatic consumers.
func TurnJSON(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		sess, frame, ok := resolveTurn(w, r, h, code)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Match  string     `json:"match"`
			Turns  int        `json:"turns"`
			Snakes []string   `json:"snakes"`
			Frame  grid.Frame `json:"frame"`
		}{
			Match:  code,
			Turns:  sess.Projector().Turns(),
			Snakes: sess.Projector().Identities().IDs(),
			Frame:  frame,
		})
	}
}

func ListMatches(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codes := h.List(r.Context())
		if codes == nil {
			codes = []string{}
		}
		writeJSON(w, http.StatusOK, struct {
			Matches []string `json:"matches"`
		}{Matches: codes})
	}
}

// UploadMatch loads a match log from the request body and registers it
// under a fresh code. Bodies sent with Content-Encoding: gzip are
// decompressed; maxBytes applies to both the wire and decompressed size.
func UploadMatch(h *hub.Hub, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body io.ReadCloser = http.MaxBytesReader(w, r.Body, maxBytes)
		if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
			gz, err := gzip.NewReader(body)
			if err != nil {
				http.Error(w, "invalid gzip body", http.StatusBadRequest)
				return
			}
			defer gz.Close()
			body = http.MaxBytesReader(w, gz, maxBytes)
		}

		store, err := replay.Load(body)
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				http.Error(w, fmt.Sprintf("match log larger than %d bytes", maxBytes), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		p, err := grid.New(store)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		for i := 0; i < maxCodeAttempts; i++ {
			code, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if h.Create(r.Context(), code, p) == nil {
				continue // taken
			}
			writeJSON(w, http.StatusCreated, struct {
				Code  string `json:"code"`
				Turns int    `json:"turns"`
			}{Code: code, Turns: p.Turns()})
			return
		}
		http.Error(w, "failed to create match", http.StatusInternalServerError)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// resolveTurn finds the match and renders the requested turn, writing the
// error response itself when that fails.
func resolveTurn(w http.ResponseWriter, r *http.Request, h *hub.Hub, code string) (*playback.Session, grid.Frame, bool) {
	sess := h.Get(r.Context(), code)
	if sess == nil {
		http.Error(w, fmt.Sprintf("match %q not found", code), http.StatusNotFound)
		return nil, grid.Frame{}, false
	}
	turns := sess.Projector().Turns()

	turn := 0
	if raw := chi.URLParam(r, "turn"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, invalidTurn(turns), http.StatusBadRequest)
			return nil, grid.Frame{}, false
		}
		turn = n
	}

	frame, err := sess.Projector().Render(turn)
	switch {
	case err == nil:
		return sess, frame, true
	case errors.Is(err, replay.ErrOutOfRange):
		http.Error(w, invalidTurn(turns), http.StatusBadRequest)
	case errors.Is(err, grid.ErrMalformedEntity), errors.Is(err, grid.ErrUnknownSnake):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "failed to render turn", http.StatusInternalServerError)
	}
	return nil, grid.Frame{}, false
}

func invalidTurn(turns int) string {
	return fmt.Sprintf("invalid turn, must be an integer between (inclusive) 0 and %d", turns-1)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
