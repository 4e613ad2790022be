package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/rant/internal/engagement"
	"github.com/MrSnakeDoc/rant/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rant/internal/httpserver/mw"
	"github.com/MrSnakeDoc/rant/internal/logger"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

type likeResponse struct {
	RantID string `json:"rant_id"`
	Liked  bool   `json:"liked"`
}

type likeCountResponse struct {
	RantID string `json:"rant_id"`
	Likes  int64  `json:"likes"`
}

type likeEvent struct {
	RantID string `json:"rant_id"`
	engagement.LikeState
}

// LikeStatus reports whether the caller likes {id}.
func LikeStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		liked, err := d.Likes.GetLikeStatus(r.Context(), mw.ProfileFrom(r.Context()), id)
		if err != nil {
			fail(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, likeResponse{RantID: id, Liked: liked})
	}
}

// ToggleLike flips the caller's like on {id}. Unknown rants are 404. On a
// failed remote write the response is 502 and carries the restored state.
func ToggleLike(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := lookupRant(r, d); err != nil {
			fail(w, d, r, err)
			return
		}
		liked, err := d.Likes.ToggleLike(r.Context(), mw.ProfileFrom(r.Context()), id)
		if err != nil {
			status := statusFor(err)
			d.Logger.Warn("like toggle failed",
				logger.String("rant", id),
				logger.Int("status", status),
				logger.Error(err))
			writeJSON(w, status, struct {
				likeResponse
				Error string `json:"error"`
			}{likeResponse{RantID: id, Liked: liked}, http.StatusText(status)})
			return
		}
		writeJSON(w, http.StatusOK, likeResponse{RantID: id, Liked: liked})
	}
}

// IncrementLikes bumps the public counter of {id} and refreshes the index.
func IncrementLikes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		count, err := d.Likes.IncrementLikeCount(r.Context(), id)
		if err != nil {
			fail(w, d, r, err)
			return
		}
		d.MemoryIndex.SetLikes(id, count)
		writeJSON(w, http.StatusOK, likeCountResponse{RantID: id, Likes: count})
	}
}

// LikeStream upgrades to a websocket and pushes every like state transition
// of the caller on {id}, starting with the current state. Only the latest
// pending state is kept for slow readers.
func LikeStream(d deps.Deps) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  512,
		WriteBufferSize: 512,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")
		profile := mw.ProfileFrom(ctx)

		state, err := d.Likes.Observe(ctx, profile, id)
		if err != nil {
			fail(w, d, r, err)
			return
		}
		if _, err := d.Likes.GetLikeStatus(ctx, profile, id); err != nil {
			d.Logger.Warn("initial like status unavailable",
				logger.String("rant", id), logger.Error(err))
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied.
			return
		}
		defer conn.Close()

		updates := make(chan engagement.LikeState, 1)
		unsubscribe := state.Subscribe(func(s engagement.LikeState) {
			select {
			case updates <- s:
			default:
				// Drop the stale pending state for the latest one.
				select {
				case <-updates:
				default:
				}
				select {
				case updates <- s:
				default:
				}
			}
		})
		defer unsubscribe()

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(streamPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		send := func(s engagement.LikeState) bool {
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			return conn.WriteJSON(likeEvent{RantID: id, LikeState: s}) == nil
		}

		if !send(state.Get()) {
			return
		}

		ping := time.NewTicker(streamPingPeriod)
		defer ping.Stop()

		for {
			select {
			case s := <-updates:
				if !send(s) {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
					return
				}
			case <-closed:
				return
			}
		}
	}
}
