package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"scrap-quality-service/service/config"
	"scrap-quality-service/testutil"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient 只实现发布与断开
type fakeClient struct {
	mqtt.Client
	err          error
	messages     []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return newFakeToken(c.err)
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
}

func TestMQTTPublisher(t *testing.T) {
	client := &fakeClient{}
	p := newMQTTPublisher(client, "scrap/mismatches")

	require.NoError(t, p.Publish(context.Background(), "LOT-1-1", []byte(`{"kind":"equipment"}`)))
	require.Len(t, client.messages, 1)
	assert.Equal(t, "scrap/mismatches", client.messages[0].topic)
	assert.Equal(t, byte(1), client.messages[0].qos)

	client.err = errors.New("broker down")
	err := p.Publish(context.Background(), "LOT-2-1", []byte(`{}`))
	assert.ErrorContains(t, err, "LOT-2-1")

	require.NoError(t, p.Close())
	assert.True(t, client.disconnected)
}

func TestMultiPublisher(t *testing.T) {
	ctx := context.Background()
	first := new(testutil.MockPublisher)
	second := new(testutil.MockPublisher)
	first.On("Publish", ctx, "LOT-1-1", mock.Anything).Return(nil)
	second.On("Publish", ctx, "LOT-1-1", mock.Anything).Return(errors.New("超时"))
	first.On("Close").Return(nil)
	second.On("Close").Return(nil)

	multi := MultiPublisher{first, second}
	err := multi.Publish(ctx, "LOT-1-1", []byte(`{}`))
	assert.ErrorContains(t, err, "超时")
	first.AssertCalled(t, "Publish", ctx, "LOT-1-1", mock.Anything)

	assert.NoError(t, multi.Close())
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name  string
		kafka config.KafkaConfig
		want  interface{}
	}{
		{name: "未配置消息系统", want: NopPublisher{}},
		{name: "仅Kafka", kafka: config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "scrap.mismatches"}, want: &KafkaPublisher{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(tc.kafka, config.MQTTConfig{})
			assert.IsType(t, tc.want, p)
			assert.NoError(t, p.Close())
		})
	}
}
