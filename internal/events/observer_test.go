package events

import (
	"testing"

	"github.com/UkralStul/threaducate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserver_PublishToPostSubscribers(t *testing.T) {
	o := NewCommentObserver()
	ch, cancel := o.Subscribe("p1", 1)
	defer cancel()
	other, cancelOther := o.Subscribe("p2", 1)
	defer cancelOther()

	n := o.Publish(&domain.Comment{ID: "c1", PostID: "p1"})
	assert.Equal(t, 1, n)

	got := <-ch
	assert.Equal(t, "c1", got.ID)
	assert.Empty(t, other)
}

func TestObserver_SlowSubscriberSkips(t *testing.T) {
	o := NewCommentObserver()
	_, cancel := o.Subscribe("p1", 1)
	defer cancel()

	assert.Equal(t, 1, o.Publish(&domain.Comment{ID: "c1", PostID: "p1"}))
	assert.Equal(t, 0, o.Publish(&domain.Comment{ID: "c2", PostID: "p1"}))
}

func TestObserver_CancelClosesAndUnsubscribes(t *testing.T) {
	o := NewCommentObserver()
	ch, cancel := o.Subscribe("p1", 1)
	require.Equal(t, 1, o.Subscribers("p1"))

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, o.Subscribers("p1"))
	assert.Equal(t, 0, o.Publish(&domain.Comment{PostID: "p1"}))
}
