// Package main runs a demo WebSocket client for live notifications.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	username := fmt.Sprintf("demo_%d", time.Now().Unix())
	body, _ := json.Marshal(map[string]string{
		"username":  username,
		"password":  "demo-password",
		"password2": "demo-password",
	})
	resp, err := http.Post(base+"/v1/register", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	var reg struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	if reg.AccessToken == "" {
		log.Fatal("register returned no access token")
	}
	log.Printf("registered %s", username)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/ws/notifications"}
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+reg.AccessToken)
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var frame struct {
				Notification json.RawMessage `json:"notification"`
			}
			if err := c.ReadJSON(&frame); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("notification: %s", frame.Notification)
		}
	}()

	// Create a notification over REST; it should arrive on the socket.
	body, _ = json.Marshal(map[string]any{"message": "hello from ws_client"})
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/notifications", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+reg.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("create notification: %s", resp.Status)
	}

	// Relay a frame through the socket as well.
	if err := c.WriteJSON(map[string]string{"message": "echoed over the socket"}); err != nil {
		log.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
	log.Println("demo complete")
}
