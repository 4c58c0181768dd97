package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisherRecordsJSON(t *testing.T) {
	t.Parallel()

	pub := New()
	id, err := pub.Publish(context.Background(), "query-submissions", map[string]string{"outcome": "created"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id)

	id, err = pub.Publish(context.Background(), "query-submissions", struct {
		Email string `json:"email"`
	}{Email: "me@example.com"})
	require.NoError(t, err)
	require.Equal(t, "memory-2", id)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	require.JSONEq(t, `{"outcome":"created"}`, string(msgs[0].Data))
	require.JSONEq(t, `{"email":"me@example.com"}`, string(msgs[1].Data))

	msgs[0].Topic = "modified"
	require.Equal(t, "query-submissions", pub.Messages()[0].Topic, "Messages must return a copy")
}

func TestPublisherRejectsUnencodable(t *testing.T) {
	t.Parallel()

	_, err := New().Publish(context.Background(), "t", make(chan int))
	require.Error(t, err)
	require.Empty(t, New().Messages())
}
