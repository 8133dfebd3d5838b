package notify

import "testing"

func TestPublishInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []int

	bus.Subscribe(KindPlayStarted, func(Notification) { order = append(order, 1) })
	bus.Subscribe(KindPlayStarted, func(Notification) { order = append(order, 2) })
	bus.Subscribe(KindIdling, func(Notification) { order = append(order, 99) })

	bus.Publish(PlayStarted{})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("Expected delivery [1 2], got %v", order)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish(TimeTransition{Score: 20}) // must not panic
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0

	unsubscribe := bus.Subscribe(KindNewInfoPills, func(n Notification) {
		calls += n.(NewInfoPills).Count
	})
	bus.Publish(NewInfoPills{Count: 2})

	unsubscribe()
	unsubscribe() // second call is harmless
	bus.Publish(NewInfoPills{Count: 5})

	if calls != 2 {
		t.Errorf("Expected handler to see only the first notification, got total %d", calls)
	}
}

func TestSubscribeFromHandler(t *testing.T) {
	bus := NewBus()
	late := 0

	bus.Subscribe(KindBirdSelected, func(Notification) {
		bus.Subscribe(KindBirdSelected, func(Notification) { late++ })
	})

	bus.Publish(BirdSelected{Index: 1})
	if late != 0 {
		t.Error("Handler added during delivery should not see the current notification")
	}
	bus.Publish(BirdSelected{Index: 1})
	if late != 1 {
		t.Errorf("Expected late handler to run once, ran %d times", late)
	}
}

func TestDiscard(t *testing.T) {
	Discard.Publish(Idling{})
}
