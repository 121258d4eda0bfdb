package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/engagement"
	apperrors "github.com/utafrali/PaintCatalog/pkg/errors"
	pkgkafka "github.com/utafrali/PaintCatalog/pkg/kafka"
	"github.com/utafrali/PaintCatalog/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Upsert(ctx context.Context, p domain.Product) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *mockCatalog) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type recordingPublisher struct {
	topic  string
	events []*pkgkafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, evt *pkgkafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.events = append(p.events, evt)
	return nil
}

func productEvent(t *testing.T, eventType string, data any) *pkgkafka.Event {
	t.Helper()
	evt, err := pkgkafka.NewEvent(eventType, "bm-regal-select", "product", "product-service", data)
	require.NoError(t, err)
	return evt
}

func TestConsumer_ProductCreated(t *testing.T) {
	cat := new(mockCatalog)
	c := NewConsumer(cat, testLogger())

	cat.On("Upsert", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.ID == "bm-regal-select" && p.Brand == "Benjamin Moore"
	})).Return(true, nil).Once()

	evt := productEvent(t, TopicProductCreated, domain.Product{ID: "bm-regal-select", Name: "Regal Select", Brand: "Benjamin Moore"})
	require.NoError(t, c.Handle(context.Background(), evt))
	cat.AssertExpectations(t)
}

func TestConsumer_ProductUpdated_UpstreamFailureIsRetried(t *testing.T) {
	cat := new(mockCatalog)
	c := NewConsumer(cat, testLogger())
	cat.On("Upsert", mock.Anything, mock.Anything).Return(false, errors.New("index unreachable")).Once()

	err := c.Handle(context.Background(), productEvent(t, TopicProductUpdated, domain.Product{ID: "bm-regal-select"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index unreachable")
}

func TestConsumer_InvalidProductIsDropped(t *testing.T) {
	cat := new(mockCatalog)
	c := NewConsumer(cat, testLogger())
	cat.On("Upsert", mock.Anything, mock.Anything).Return(false, apperrors.InvalidInput("name is required")).Once()

	err := c.Handle(context.Background(), productEvent(t, TopicProductCreated, domain.Product{ID: "bm-regal-select"}))
	assert.NoError(t, err)
	cat.AssertExpectations(t)
}

func TestConsumer_MalformedPayload(t *testing.T) {
	cat := new(mockCatalog)
	c := NewConsumer(cat, testLogger())

	evt := productEvent(t, TopicProductCreated, nil)
	evt.Data = json.RawMessage(`"not a product"`)
	assert.Error(t, c.Handle(context.Background(), evt))
	cat.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestConsumer_ProductDeleted(t *testing.T) {
	tests := []struct {
		name    string
		data    any
		wantID  string
		result  error
		wantErr bool
	}{
		{name: "id in payload", data: ProductDeletedData{ID: "sw-emerald"}, wantID: "sw-emerald"},
		{name: "falls back to aggregate id", data: map[string]string{}, wantID: "bm-regal-select"},
		{name: "already absent", data: ProductDeletedData{ID: "gone"}, wantID: "gone", result: apperrors.NotFound("product", "gone")},
		{name: "writer failure", data: ProductDeletedData{ID: "sw-emerald"}, wantID: "sw-emerald", result: errors.New("db down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := new(mockCatalog)
			c := NewConsumer(cat, testLogger())
			cat.On("Delete", mock.Anything, tt.wantID).Return(tt.result).Once()

			err := c.Handle(context.Background(), productEvent(t, TopicProductDeleted, tt.data))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			cat.AssertExpectations(t)
		})
	}
}

func TestConsumer_UnknownEventType(t *testing.T) {
	cat := new(mockCatalog)
	c := NewConsumer(cat, testLogger())

	evt := productEvent(t, pkgkafka.Topic("product", "archived"), ProductDeletedData{ID: "x"})
	assert.NoError(t, c.Handle(context.Background(), evt))
	cat.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProductTopics(t *testing.T) {
	assert.ElementsMatch(t, []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}, ProductTopics())
}

func TestProducer_PublishLike(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, testLogger())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	require.NoError(t, p.PublishEngagement(ctx, engagement.KindLike, "sw-emerald", "user-1", 43))

	require.Len(t, pub.events, 1)
	evt := pub.events[0]
	assert.Equal(t, TopicEngagementLiked, pub.topic)
	assert.Equal(t, TopicEngagementLiked, evt.EventType)
	assert.Equal(t, "sw-emerald", evt.AggregateID)
	assert.Equal(t, SourceCatalogService, evt.Source)
	assert.Equal(t, "corr-1", evt.CorrelationID)

	var data EngagementData
	require.NoError(t, evt.UnmarshalData(&data))
	assert.Equal(t, EngagementData{EntityID: "sw-emerald", UserID: "user-1", Count: 43}, data)
}

func TestProducer_PublishVote(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, testLogger())

	require.NoError(t, p.PublishEngagement(context.Background(), engagement.KindVote, "poll-7", "", 1))
	assert.Equal(t, TopicEngagementVoted, pub.topic)
	assert.Equal(t, "vote", pub.events[0].AggregateType)
	assert.Empty(t, pub.events[0].CorrelationID)
}

func TestProducer_Errors(t *testing.T) {
	p := NewProducer(&recordingPublisher{err: errors.New("broker down")}, testLogger())
	err := p.PublishEngagement(context.Background(), engagement.KindLike, "sw-emerald", "u", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	err = p.PublishEngagement(context.Background(), engagement.Kind("share"), "sw-emerald", "u", 1)
	assert.Error(t, err)
}
