package main

import (
	"context"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func wrapPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return gcpPublisher{inner: p}
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return gcpResult{inner: p.inner.Publish(ctx, msg)}
}

type gcpResult struct {
	inner *gcppubsub.PublishResult
}

func (r gcpResult) Get(ctx context.Context) (string, error) {
	if r.inner == nil {
		return "", errNilPublishResult
	}
	return r.inner.Get(ctx)
}
