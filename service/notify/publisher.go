/*
 * @module service/notify/publisher
 * @description 数据不一致告警发布：Kafka 事件总线与 MQTT 车间消息，二者可同时启用
 * @architecture 适配器模式 - 封装第三方消息客户端，提供统一的发布接口
 * @documentReference dev_docs/deployment.md
 * @stateFlow 巡检结果 -> JSON 消息 -> Kafka topic / MQTT topic
 * @rules 发布失败只返回错误，由调用方记录日志，不影响巡检结果的保存；未配置任何消息系统时使用空发布器
 * @dependencies github.com/segmentio/kafka-go, github.com/eclipse/paho.mqtt.golang
 * @refs service/scheduler/mismatch_scheduler.go, service/config/config.go
 */

package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"scrap-quality-service/service/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
)

// Publisher 告警发布器，key 为订单号或记录号
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

// KafkaPublisher Kafka 发布器
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher 创建 Kafka 发布器
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Publish 发送一条消息，同一订单的消息落在同一分区
func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("发送Kafka消息失败: %w", err)
	}
	return nil
}

// Close 关闭生产者
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// MQTTPublisher MQTT 发布器
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTPublisher 连接 broker 并创建发布器
func NewMQTTPublisher(cfg config.MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT连接断开: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", token.Error())
	}
	log.Printf("MQTT发布器已连接到broker: %s", cfg.Broker)
	return newMQTTPublisher(client, cfg.Topic), nil
}

func newMQTTPublisher(client mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, qos: 1}
}

// Publish 以 QoS 1 发布到配置的主题
func (p *MQTTPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	token := p.client.Publish(p.topic, p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("发布MQTT消息失败 key=%s: %w", key, err)
	}
	return nil
}

// Close 断开连接，等待250ms让消息发送完成
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

// MultiPublisher 同时发布到多个发布器
type MultiPublisher []Publisher

// Publish 逐个发布，汇总所有错误
func (m MultiPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, key, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close 关闭所有发布器
func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopPublisher 不发布任何消息
type NopPublisher struct{}

// Publish 直接返回
func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }

// Close 直接返回
func (NopPublisher) Close() error { return nil }

// New 按配置组装发布器：Kafka 与 MQTT 均未配置时返回空发布器
// MQTT 连接失败只记录日志，不影响服务启动
func New(kafkaCfg config.KafkaConfig, mqttCfg config.MQTTConfig) Publisher {
	var publishers MultiPublisher
	if len(kafkaCfg.Brokers) > 0 {
		publishers = append(publishers, NewKafkaPublisher(kafkaCfg))
		log.Printf("Kafka告警发布已启用: topic=%s", kafkaCfg.Topic)
	}
	if mqttCfg.Broker != "" {
		p, err := NewMQTTPublisher(mqttCfg)
		if err != nil {
			log.Printf("MQTT告警发布未启用: %v", err)
		} else {
			publishers = append(publishers, p)
		}
	}

	switch len(publishers) {
	case 0:
		return NopPublisher{}
	case 1:
		return publishers[0]
	default:
		return publishers
	}
}
