package stream

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Topics the agent publishes on.
const (
	TopicBill     = "bill"
	TopicLots     = "lots"
	TopicSession  = "session"
	TopicTracking = "tracking"
)

type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Topic string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		pubsub := redisClient.PSubscribe(context.Background(), "parkmate:*:broadcast")
		// wait for the subscribe confirmation so a broadcast made right after
		// construction is not lost
		_, _ = pubsub.Receive(context.Background())
		go h.subscribeRedis(pubsub)
	}
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topicClients, ok := h.clients[client.Topic]; ok {
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.clients, client.Topic)
		}
	}
	close(client.Send)
}

// Broadcast delivers a message to every client on the topic. With redis
// configured the message goes through pub/sub and reaches local clients via
// the subscription echo; delivering locally as well would hand every client
// two copies.
func (h *Hub) Broadcast(topic string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(topic), payload).Err()
		if err == nil {
			return
		}
		// redis down: deliver locally so the UI keeps its live feed
		log.Printf("redis publish error: %v", err)
	}
	h.deliverLocal(topic, payload)
}

func (h *Hub) deliverLocal(topic string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[topic]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// subscribeRedis fans broadcasts into local clients, both this agent's own
// and those of sibling agents on the same gate.
func (h *Hub) subscribeRedis(pubsub *redis.PubSub) {
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliverLocal(topicFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(topic string) string {
	return "parkmate:" + topic + ":broadcast"
}

func topicFromChannel(ch string) string {
	// parkmate:{topic}:broadcast
	const prefix = "parkmate:"
	const suffix = ":broadcast"
	if !strings.HasPrefix(ch, prefix) || !strings.HasSuffix(ch, suffix) || len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
