package repository

import (
	"context"
	"errors"

	"OptionLab/internal/domain/repository"
)

// producer is the slice of *pkgkafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaResultPublisher sends pricing replies to the reply topic, keyed by
// request id so a requester's replies stay on one partition.
type KafkaResultPublisher struct {
	producer producer
	topic    string
}

func NewKafkaResultPublisher(p producer, topic string) repository.ResultPublisher {
	return &KafkaResultPublisher{producer: p, topic: topic}
}

func (p *KafkaResultPublisher) PublishReply(ctx context.Context, reply *repository.PricingReply) error {
	if reply == nil {
		return errors.New("nil reply")
	}
	return p.producer.Publish(ctx, p.topic, []byte(reply.ID), reply)
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
