package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sdfoods/restaurant-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "sdf-prod"}

	assert.Equal(t, "projects/sdf-prod/topics/orders", c.topicResourceName("orders"))
	assert.Equal(t, "projects/sdf-prod/subscriptions/analytics", c.subscriptionResourceName(" analytics "))
	assert.Equal(t, "projects/other/topics/x", c.topicResourceName("projects/other/topics/x"))
	assert.Empty(t, c.topicResourceName(""))

	var nilClient *Client
	assert.Empty(t, nilClient.topicResourceName("orders"))
	assert.Empty(t, (&Client{}).subscriptionResourceName("analytics"))
}

func TestSubscriptionNames(t *testing.T) {
	assert.Equal(t, []string{"sdf-analytics"}, subscriptionNames(config.PubSubConfig{AnalyticsSubscription: "sdf-analytics"}))
	assert.Empty(t, subscriptionNames(config.PubSubConfig{AnalyticsSubscription: "  "}))
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("orders"))
	assert.Nil(t, c.Subscription("analytics"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
}
