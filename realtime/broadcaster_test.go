package realtime

import (
	"testing"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

func TestPublishReachesOnlyTheProjectRoom(t *testing.T) {
	reg := NewRoomRegistry()
	inRoom, elsewhere := &fakeSub{}, &fakeSub{}
	reg.Join("sprint", inRoom)
	reg.Join("other", elsewhere)
	bc := NewBroadcaster(reg, log.New())

	bc.Publish("sprint", domain.TaskDeleted{TaskID: "task-1"})

	if len(inRoom.payloads) != 1 {
		t.Fatalf("expected 1 delivery in room, got %d", len(inRoom.payloads))
	}
	if len(elsewhere.payloads) != 0 {
		t.Fatalf("expected no delivery outside room, got %d", len(elsewhere.payloads))
	}

	var frame struct {
		Event string `json:"event"`
		Data  struct {
			TaskID string `json:"taskId"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(inRoom.payloads[0], &frame); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if frame.Event != domain.EventTaskDelete {
		t.Fatalf("unexpected event name %q", frame.Event)
	}
	if frame.Data.TaskID != "task-1" {
		t.Fatalf("unexpected payload %s", inRoom.payloads[0])
	}
}

func TestPublishToEmptyRoomIsDropped(t *testing.T) {
	reg := NewRoomRegistry()
	bc := NewBroadcaster(reg, log.New())

	bc.Publish("ghost", domain.TaskDeleted{TaskID: "task-1"})
}

func TestPublishSkipsRemovedSubscriber(t *testing.T) {
	reg := NewRoomRegistry()
	gone, alive := &fakeSub{}, &fakeSub{}
	reg.Join("sprint", gone)
	reg.Join("sprint", alive)
	bc := NewBroadcaster(reg, log.New())

	reg.Remove(gone)
	bc.Publish("sprint", domain.TaskDeleted{TaskID: "task-1"})

	if len(gone.payloads) != 0 {
		t.Fatal("expected removed subscriber to receive nothing")
	}
	if len(alive.payloads) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(alive.payloads))
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	reg := NewRoomRegistry()
	sub := &fakeSub{}
	reg.Join("sprint", sub)
	bc := NewBroadcaster(reg, log.New())

	ids := []string{"t1", "t2", "t3", "t4"}
	for _, id := range ids {
		bc.Publish("sprint", domain.TaskDeleted{TaskID: id})
	}

	if len(sub.payloads) != len(ids) {
		t.Fatalf("expected %d deliveries, got %d", len(ids), len(sub.payloads))
	}
	for i, id := range ids {
		var frame struct {
			Data struct {
				TaskID string `json:"taskId"`
			} `json:"data"`
		}
		if err := sonic.Unmarshal(sub.payloads[i], &frame); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if frame.Data.TaskID != id {
			t.Fatalf("out of order: position %d got %q, want %q", i, frame.Data.TaskID, id)
		}
	}
}

func TestPublishToleratesSaturatedSubscriber(t *testing.T) {
	reg := NewRoomRegistry()
	saturated, healthy := &fakeSub{reject: true}, &fakeSub{}
	reg.Join("sprint", saturated)
	reg.Join("sprint", healthy)
	bc := NewBroadcaster(reg, log.New())

	bc.Publish("sprint", domain.TaskDeleted{TaskID: "task-1"})

	if len(healthy.payloads) != 1 {
		t.Fatalf("expected healthy subscriber to be served, got %d", len(healthy.payloads))
	}
}
