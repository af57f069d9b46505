package repository

import (
	"context"
	"testing"

	"OptionLab/internal/domain/repository"
)

type fakeProducer struct {
	topic  string
	key    []byte
	value  interface{}
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestPublishReplyKeysByID(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewKafkaResultPublisher(fp, "pricing.replies")

	reply := &repository.PricingReply{ID: "req-1", Operation: "analytical", OK: true, Price: 13.35}
	if err := pub.PublishReply(context.Background(), reply); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if fp.topic != "pricing.replies" || string(fp.key) != "req-1" {
		t.Fatalf("unexpected topic/key %s/%s", fp.topic, fp.key)
	}
	if fp.value.(*repository.PricingReply) != reply {
		t.Fatalf("reply not passed through")
	}
	if err := pub.PublishReply(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil reply")
	}
	if err := pub.Close(); err != nil || !fp.closed {
		t.Fatalf("close did not reach producer")
	}
}
