package mqttclient

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/pipeline"
)

// publisher is the subset of mqtt.Client used for job events.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Client publishes job status changes to an MQTT broker.
type Client struct {
	conn        mqtt.Client
	pub         publisher
	topicPrefix string
	connected   atomic.Bool
	log         zerolog.Logger
}

type Options struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
	Log         zerolog.Logger
}

func Connect(opts Options) (*Client, error) {
	c := &Client{
		topicPrefix: strings.TrimSuffix(opts.TopicPrefix, "/"),
		log:         opts.Log.With().Str("component", "mqtt").Logger(),
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	c.conn = mqtt.NewClient(clientOpts)
	c.pub = c.conn
	token := c.conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) onConnect(_ mqtt.Client) {
	c.connected.Store(true)
	c.log.Info().Str("topic_prefix", c.topicPrefix).Msg("mqtt connected")
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.connected.Store(false)
	c.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
}

// JobTopic returns the topic a job's events are published to.
func (c *Client) JobTopic(jobID string) string {
	return c.topicPrefix + "/jobs/" + jobID
}

// PublishJob sends a job status as JSON at QoS 0. Failures are logged, never
// returned, so a broker outage cannot stall the pipeline.
func (c *Client) PublishJob(st pipeline.Status) {
	payload, err := json.Marshal(st)
	if err != nil {
		c.log.Error().Err(err).Str("job_id", st.ID).Msg("marshal job event")
		return
	}
	topic := c.JobTopic(st.ID)
	token := c.pub.Publish(topic, 0, false, payload)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			c.log.Warn().Str("topic", topic).Msg("mqtt publish timed out")
			return
		}
		if err := token.Error(); err != nil {
			c.log.Warn().Err(err).Str("topic", topic).Msg("mqtt publish failed")
		}
	}()
}

func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

func (c *Client) Close() {
	c.log.Info().Msg("disconnecting mqtt client")
	c.conn.Disconnect(1000)
}

// LogPublisher records job events in the log when no broker is configured.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) PublishJob(st pipeline.Status) {
	p.Log.Info().
		Str("job_id", st.ID).
		Str("user_id", st.UserID).
		Str("state", string(st.State)).
		Int64("post_id", st.PostID).
		Str("error", st.Error).
		Msg("job event")
}
