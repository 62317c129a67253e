package events

import (
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

type fakeStreams struct {
	streamErr   error
	consumerErr error
	addedStream *nats.StreamConfig
	addedCons   *nats.ConsumerConfig
}

func (f *fakeStreams) StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return &nats.StreamInfo{Config: nats.StreamConfig{Name: stream}}, nil
}

func (f *fakeStreams) AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.addedStream = cfg
	return &nats.StreamInfo{Config: *cfg}, nil
}

func (f *fakeStreams) ConsumerInfo(stream, name string, opts ...nats.JSOpt) (*nats.ConsumerInfo, error) {
	if f.consumerErr != nil {
		return nil, f.consumerErr
	}
	return &nats.ConsumerInfo{Name: name}, nil
}

func (f *fakeStreams) AddConsumer(stream string, cfg *nats.ConsumerConfig, opts ...nats.JSOpt) (*nats.ConsumerInfo, error) {
	f.addedCons = cfg
	return &nats.ConsumerInfo{Name: cfg.Durable}, nil
}

func TestGenerateExponentialBackoff(t *testing.T) {
	assert.Nil(t, generateExponentialBackoff(1))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, generateExponentialBackoff(3))
}

func TestEnsureStream_Creates(t *testing.T) {
	fake := &fakeStreams{streamErr: nats.ErrStreamNotFound}
	s := &StreamConfig{js: fake, logger: logger.New("test")}

	require.NoError(t, s.EnsureStream())
	require.NotNil(t, fake.addedStream)
	assert.Equal(t, StreamName, fake.addedStream.Name)
	assert.ElementsMatch(t, []string{domain.ReviewEventsSubject, domain.LikeEventsSubject}, fake.addedStream.Subjects)
	assert.Equal(t, nats.LimitsPolicy, fake.addedStream.Retention)
}

func TestEnsureStream_Exists(t *testing.T) {
	fake := &fakeStreams{}
	s := &StreamConfig{js: fake, logger: logger.New("test")}

	require.NoError(t, s.EnsureStream())
	assert.Nil(t, fake.addedStream)
}

func TestEnsureStream_InfoError(t *testing.T) {
	fake := &fakeStreams{streamErr: errors.New("no responders")}
	s := &StreamConfig{js: fake, logger: logger.New("test")}

	assert.Error(t, s.EnsureStream())
}

func TestEnsureConsumer_Creates(t *testing.T) {
	fake := &fakeStreams{consumerErr: nats.ErrConsumerNotFound}
	s := &StreamConfig{js: fake, logger: logger.New("test")}

	require.NoError(t, s.EnsureConsumer(ReconcilerConsumer, domain.LikeEventsSubject))
	require.NotNil(t, fake.addedCons)
	assert.Equal(t, ReconcilerConsumer, fake.addedCons.Durable)
	assert.Equal(t, domain.LikeEventsSubject, fake.addedCons.FilterSubject)
	assert.Equal(t, nats.AckExplicitPolicy, fake.addedCons.AckPolicy)
	assert.Len(t, fake.addedCons.BackOff, MaxDeliveryAttempts-1)
}

func TestLoggingHandler(t *testing.T) {
	h := LoggingHandler(logger.New("test"))

	assert.NoError(t, h([]byte(`{"event_type":"like.added","review_id":"x"}`)))
	assert.Error(t, h([]byte(`not json`)))
}
