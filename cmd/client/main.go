// Demo terminal client: joins a room over the websocket relay, mirrors the
// shared buffer locally and broadcasts edits typed on stdin.
//
//	go run ./cmd/client -addr localhost:8080 -name Alice            # create
//	go run ./cmd/client -addr localhost:8080 -name Bob -room AB12CD # join
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/coderoom/sync-service/config"
	"github.com/coderoom/sync-service/internal/coalesce"
	"github.com/coderoom/sync-service/internal/domain"
	"github.com/coderoom/sync-service/internal/protocol"
	"github.com/coderoom/sync-service/internal/relay"
	"github.com/coderoom/sync-service/internal/room"
	"github.com/coderoom/sync-service/internal/session"
	"github.com/coderoom/sync-service/pkg/logger"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	addr := flag.String("addr", "localhost:8080", "relay host:port")
	roomID := flag.String("room", "", "room id to join; empty creates a new room")
	name := flag.String("name", "dev", "display name")
	lang := flag.String("lang", "javascript", "starter language for a new room")
	flag.Parse()

	logger.Init(logger.Config{Service: "sync-client", Env: logger.EnvDev})

	// Optional tuning file; flags still pick the relay host.
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = &config.Config{}
	}

	selfID := uuid.New().String()
	baseURL := "http://" + *addr

	current, err := fetchOrCreateRoom(baseURL, *roomID, *lang, selfID, *name)
	if err != nil {
		return err
	}
	fmt.Printf("room %s (%s), share this id\n", current.ID, current.Name)

	var mu sync.Mutex // guards current
	presence := room.NewPresence()

	var transport relay.Transport
	if cfg.Relay.Mode == "redis" {
		transport, err = relay.NewRedisRelay(context.Background(), cfg.Relay.RedisURL)
		if err != nil {
			return fmt.Errorf("redis relay: %w", err)
		}
	} else {
		transport = relay.NewWebsocketRelay("ws://" + *addr)
	}
	sess := session.New(transport, selfID, *name)
	sess.SetHeartbeatInterval(cfg.HeartbeatInterval())

	apply := func(env protocol.Envelope) {
		mu.Lock()
		*current = room.Apply(*current, env)
		mu.Unlock()
		presence.Observe(env)
	}

	for _, t := range []protocol.EventType{
		protocol.EventUserJoined,
		protocol.EventUserLeft,
		protocol.EventCodeUpdate,
		protocol.EventCommentAdded,
		protocol.EventReviewApproved,
		protocol.EventChangesRequested,
		protocol.EventCursorUpdate,
	} {
		sess.Subscribe(t, apply)
	}
	sess.Subscribe(protocol.EventUserJoined, func(env protocol.Envelope) {
		fmt.Printf("* %s joined\n", env.SenderName)
	})
	sess.Subscribe(protocol.EventUserLeft, func(env protocol.Envelope) {
		fmt.Printf("* %s left\n", env.SenderName)
	})
	sess.Subscribe(protocol.EventCommentAdded, func(env protocol.Envelope) {
		if p, err := protocol.DecodePayload(env); err == nil {
			c := p.(protocol.CommentAdded).Comment
			fmt.Printf("* %s commented on line %d: %s\n", c.Author, c.LineNumber, c.Content)
		}
	})

	if err := sess.Connect(context.Background(), current.ID, func(connected bool) {
		fmt.Printf("* connection: %v\n", connected)
	}); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer sess.Disconnect()

	codeOut := coalesce.New(cfg.CodeDebounce(), sess.SendCodeUpdate)
	defer codeOut.Stop()
	cursorOut := coalesce.New(cfg.CursorDebounce(), func(cp domain.CursorPosition) {
		sess.SendCursorUpdate(cp.Line, cp.Col)
	})
	defer cursorOut.Stop()

	fmt.Println("type code lines to append; /code shows the buffer, /comment N text, /cursor L C, /approve, /changes, /quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "/quit":
			codeOut.FlushNow()
			return nil
		case line == "/code":
			mu.Lock()
			fmt.Println(current.Code)
			mu.Unlock()
		case line == "/who":
			fmt.Println(strings.Join(presence.LiveUsers(), ", "))
		case line == "/approve":
			sess.SendApproval()
		case line == "/changes":
			sess.SendRequestChanges()
		case strings.HasPrefix(line, "/cursor "):
			var ln, col int
			if _, err := fmt.Sscanf(strings.TrimPrefix(line, "/cursor "), "%d %d", &ln, &col); err != nil {
				fmt.Println("usage: /cursor <line> <col>")
				continue
			}
			cursorOut.Schedule(domain.CursorPosition{Line: ln, Col: col})
		case strings.HasPrefix(line, "/comment "):
			rest := strings.TrimPrefix(line, "/comment ")
			numStr, text, ok := strings.Cut(rest, " ")
			n, err := strconv.Atoi(numStr)
			if !ok || err != nil || n < 1 {
				fmt.Println("usage: /comment <line> <text>")
				continue
			}
			c := domain.NewComment(n, text, *name)
			mu.Lock()
			*current = appendLocalComment(*current, c, *name)
			mu.Unlock()
			sess.SendComment(c)
		default:
			// edits apply locally first, broadcast is debounced
			mu.Lock()
			if current.Code == "" {
				current.Code = line
			} else {
				current.Code += "\n" + line
			}
			buf := current.Code
			mu.Unlock()
			codeOut.Schedule(buf)
		}
	}
	return scanner.Err()
}

func appendLocalComment(r domain.Room, c domain.CodeComment, author string) domain.Room {
	r.Comments = append(r.Comments[:len(r.Comments):len(r.Comments)], c)
	r.ActivityLog = domain.AppendActivity(r.ActivityLog,
		domain.NewActivityEntry(domain.ActivityComment, author,
			fmt.Sprintf("%s commented on line %d", author, c.LineNumber)))
	return r
}

func fetchOrCreateRoom(baseURL, roomID, lang, selfID, name string) (*domain.Room, error) {
	var resp *http.Response
	var err error
	if roomID == "" {
		body, _ := json.Marshal(map[string]string{
			"name":     name + "'s review",
			"language": lang,
			"userId":   selfID,
			"userName": name,
		})
		resp, err = http.Post(baseURL+"/rooms", "application/json", bytes.NewReader(body))
	} else {
		resp, err = http.Get(baseURL + "/rooms/" + strings.ToUpper(roomID))
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("room request failed: %s", resp.Status)
	}
	var r domain.Room
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
