package bus

import "testing"

func TestPublishFiltersByCharacterAndTopic(t *testing.T) {
	b := New()
	all, cancelAll := b.Subscribe("")
	defer cancelAll()
	ada, cancelAda := b.Subscribe("ada", TopicResolved)
	defer cancelAda()

	b.Publish(TopicRollStart, "ada", nil)
	b.Publish(TopicResolved, "bo", nil)
	b.Publish(TopicResolved, "ada", "payload")

	if got := len(all); got != 3 {
		t.Fatalf("all subscriber got %d events, want 3", got)
	}
	if got := len(ada); got != 1 {
		t.Fatalf("ada subscriber got %d events, want 1", got)
	}
	e := <-ada
	if e.Topic != TopicResolved || e.Payload != "payload" || e.At.IsZero() {
		t.Fatalf("event = %+v", e)
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("ada")
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	b.Publish(TopicWiped, "ada", nil)
}

func TestFramesFillOnlyHalfTheBuffer(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe("")
	defer cancel()
	for i := 0; i < defaultBuffer+5; i++ {
		b.Publish(TopicFrame, "ada", i)
	}
	if got, want := b.Dropped(), defaultBuffer+5-lossyShare; got != want {
		t.Fatalf("dropped = %d, want %d", got, want)
	}
}

func TestSlowSubscriberStillGetsResolvedRoll(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("ada")
	defer cancel()

	b.Publish(TopicRollStart, "ada", nil)
	for i := 0; i < 500; i++ {
		b.Publish(TopicFrame, "ada", i)
	}
	b.Publish(TopicResolved, "ada", "outcome")
	b.Publish(TopicTracks, "ada", nil)

	seen := map[Topic]int{}
	for len(ch) > 0 {
		seen[(<-ch).Topic]++
	}
	if seen[TopicRollStart] != 1 || seen[TopicResolved] != 1 || seen[TopicTracks] != 1 {
		t.Fatalf("lifecycle events = %v", seen)
	}
	if seen[TopicFrame] != lossyShare {
		t.Fatalf("frames = %d, want %d", seen[TopicFrame], lossyShare)
	}
}

func TestLifecycleDropsOnlyWhenBufferFull(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe("ada")
	defer cancel()
	for i := 0; i < defaultBuffer+2; i++ {
		b.Publish(TopicToggle, "ada", i)
	}
	if got := b.Dropped(); got != 2 {
		t.Fatalf("dropped = %d, want 2", got)
	}
}

func TestNilBusPublish(t *testing.T) {
	var b *Bus
	b.Publish(TopicWiped, "ada", nil)
}
