// Package mqtt publishes moderation events to an MQTT broker and answers
// case lookups from other services over a request/response pattern.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

const connectTimeout = 5 * time.Second

// MqttRequest represents an MQTT request message
type MqttRequest struct {
	CorrelationID string                 `json:"correlationId"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}

// MqttResponse represents an MQTT response message
type MqttResponse struct {
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

// CaseEvent is the payload published for every case mutation
type CaseEvent struct {
	ID          string          `json:"id"`
	Action      models.CaseType `json:"action"`
	GuildID     string          `json:"guildId"`
	UserID      string          `json:"userId"`
	Case        *models.Case    `json:"case"`
	PublishedAt time.Time       `json:"publishedAt"`
}

// Options configures the communicator
type Options struct {
	Broker   string
	Username string
	Password string
	ClientID string
	// Prefix is the root of every topic, e.g. "pancymod"
	Prefix string
}

// MqttCommunicator handles MQTT communication
type MqttCommunicator struct {
	client mqtt.Client
	prefix string
	now    func() time.Time
}

var (
	communicator *MqttCommunicator
	once         sync.Once
)

// Init initializes the global MQTT communicator
func Init(opts Options) *MqttCommunicator {
	once.Do(func() {
		communicator = NewMqttCommunicator(opts)
	})
	return communicator
}

// Get returns the global MQTT communicator
func Get() *MqttCommunicator {
	return communicator
}

// NewMqttCommunicator creates a communicator and starts connecting. A
// broker that is down does not block startup, the client keeps retrying.
func NewMqttCommunicator(opts Options) *MqttCommunicator {
	uniqueID := fmt.Sprintf("%s_%s", opts.ClientID, uuid.New().String())

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(uniqueID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", opts.ClientID), "MQTT")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	mc := newCommunicator(mqtt.NewClient(clientOpts), opts.Prefix)

	token := mc.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		logger.Warn("El broker MQTT no responde, se seguirá reintentando en segundo plano", "MQTT")
	} else if token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}

	return mc
}

func newCommunicator(client mqtt.Client, prefix string) *MqttCommunicator {
	if prefix == "" {
		prefix = "pancymod"
	}
	return &MqttCommunicator{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		now:    time.Now,
	}
}

// Destroy closes the MQTT connection
func (mc *MqttCommunicator) Destroy() {
	if mc.client != nil && mc.client.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
	} else {
		logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (mc *MqttCommunicator) IsConnected() bool {
	return mc.client != nil && mc.client.IsConnected()
}

// Topic joins parts under the configured prefix
func (mc *MqttCommunicator) Topic(parts ...string) string {
	return mc.prefix + "/" + strings.Join(parts, "/")
}

// Publish sends a JSON message to a topic
func (mc *MqttCommunicator) Publish(ctx context.Context, topic string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.WrapIf(err, "failed to marshal payload")
	}

	token := mc.client.Publish(topic, 1, false, jsonData)
	select {
	case <-token.Done():
		return errors.WrapIfWithDetails(token.Error(), "publish", "topic", topic)
	case <-ctx.Done():
		return errors.WrapIfWithDetails(ctx.Err(), "publish", "topic", topic)
	}
}

// PublishCase publishes a case mutation on <prefix>/cases/<action>
func (mc *MqttCommunicator) PublishCase(ctx context.Context, action models.CaseType, c *models.Case) error {
	if !mc.IsConnected() {
		logger.Debug(fmt.Sprintf("MQTT desconectado, evento %s del caso #%d descartado", action, c.ID), "MQTT")
		return nil
	}
	event := CaseEvent{
		ID:          uuid.New().String(),
		Action:      action,
		GuildID:     c.GuildID,
		UserID:      c.TargetUserID,
		Case:        c,
		PublishedAt: mc.now().UTC(),
	}
	return mc.Publish(ctx, mc.Topic("cases", strings.ToLower(string(action))), event)
}

// RequestHandler is a function type for handling MQTT requests
type RequestHandler func(ctx context.Context, payload map[string]interface{}) (interface{}, error)

// On registers a handler for <prefix>/request/<name>. Responses go to
// <prefix>/response/<name>/<correlationId>.
func (mc *MqttCommunicator) On(name string, callback RequestHandler) error {
	topic := mc.Topic("request", name)
	token := mc.client.Subscribe(topic, 1, func(c mqtt.Client, msg mqtt.Message) {
		mc.handleRequest(name, msg.Payload(), callback)
	})
	token.Wait()
	if err := token.Error(); err != nil {
		logger.Error(fmt.Sprintf("Error subscribing to topic %s: %v", topic, err), "MQTT")
		return errors.WrapIfWithDetails(err, "subscribe", "topic", topic)
	}
	return nil
}

func (mc *MqttCommunicator) handleRequest(name string, payload []byte, callback RequestHandler) {
	var request MqttRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		logger.Error(fmt.Sprintf("Error parsing MQTT request: %v", err), "MQTT")
		return
	}
	if request.CorrelationID == "" {
		logger.Warn("Petición MQTT sin correlationId descartada", "MQTT")
		return
	}
	if request.Payload == nil {
		request.Payload = make(map[string]interface{})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	response := MqttResponse{CorrelationID: request.CorrelationID}
	data, err := callback(ctx, request.Payload)
	if err != nil {
		response.Error = err.Error()
	} else {
		response.Data = data
	}

	if err := mc.Publish(ctx, mc.Topic("response", name, request.CorrelationID), response); err != nil {
		logger.Error(fmt.Sprintf("Error respondiendo petición %s: %v", name, err), "MQTT")
	}
}
