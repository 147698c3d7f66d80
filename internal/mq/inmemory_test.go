package mq

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryPublishReceive(t *testing.T) {
	q, err := NewInMemoryMQ(4)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	if err := q.Publish(context.Background(), "jobs", []byte("hello")); err != nil {
		t.Fatal(err)
	}

	msg, err := q.Receive(context.Background(), "jobs")
	if err != nil {
		t.Fatal(err)
	}

	data, err := q.GetMessageData(msg)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "hello" {
		t.Errorf("got %q", data)
	}

	if err := q.Ack("jobs", msg); err != nil {
		t.Errorf("ack: %v", err)
	}
}

func TestInMemoryTopicsAreIndependent(t *testing.T) {
	q, _ := NewInMemoryMQ(4)
	defer q.Close()

	q.Publish(context.Background(), "a", []byte("for-a"))
	q.Publish(context.Background(), "b", []byte("for-b"))

	msg, err := q.Receive(context.Background(), "b")
	if err != nil {
		t.Fatal(err)
	}

	data, _ := q.GetMessageData(msg)
	if string(data) != "for-b" {
		t.Errorf("got %q from topic b", data)
	}
}

func TestInMemoryQueueFull(t *testing.T) {
	q, _ := NewInMemoryMQ(1)
	defer q.Close()

	if err := q.Publish(context.Background(), "jobs", []byte("one")); err != nil {
		t.Fatal(err)
	}

	err := q.Publish(context.Background(), "jobs", []byte("two"))
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestInMemoryReceiveHonorsContext(t *testing.T) {
	q, _ := NewInMemoryMQ(1)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Receive(ctx, "empty")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline, got %v", err)
	}
}

func TestInMemoryCloseTopic(t *testing.T) {
	q, _ := NewInMemoryMQ(1)
	defer q.Close()

	q.Publish(context.Background(), "jobs", []byte("one"))
	if err := q.CloseTopic("jobs"); err != nil {
		t.Fatal(err)
	}

	if err := q.CloseTopic("jobs"); !errors.Is(err, ErrTopicNotExists) {
		t.Errorf("expected ErrTopicNotExists, got %v", err)
	}
}

func TestInMemoryGetMessageDataRejectsForeignTypes(t *testing.T) {
	q, _ := NewInMemoryMQ(1)
	defer q.Close()

	if _, err := q.GetMessageData("not bytes"); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}
