//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"lingap/internal/audit"
	"lingap/internal/platform/config"
	"lingap/pkg/platform/sentinel"
	"lingap/pkg/testutil/containers"
)

type KafkaStoreSuite struct {
	suite.Suite
	brokers []string
	store   *audit.KafkaStore
	topic   string
}

func TestKafkaStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaStoreSuite))
}

func (s *KafkaStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	redpanda := mgr.GetRedpanda(s.T())
	s.brokers = redpanda.Brokers
	s.topic = "lingap.audit.test"

	store, err := audit.NewKafkaStore(context.Background(), config.KafkaConfig{
		Brokers: s.brokers,
		Topic:   s.topic,
	})
	s.Require().NoError(err)
	s.store = store
}

func (s *KafkaStoreSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *KafkaStoreSuite) TestAppendPublishesEvent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := audit.Event{
		Timestamp:  time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC),
		ActorID:    "admin-1",
		ActorLabel: "MSWDO Staff",
		ActorRole:  "admin",
		Action:     audit.ActionBeneficiaryRegistered,
		Detail:     "registered beneficiary 01001",
		OriginIP:   "10.0.0.5",
		RequestID:  "req-kafka-1",
	}
	s.Require().NoError(s.store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().NotEmpty(records)

	record := records[len(records)-1]
	s.Equal("admin-1", string(record.Key))

	var got audit.Event
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal(audit.ActionBeneficiaryRegistered, got.Action)
	s.Equal("registered beneficiary 01001", got.Detail)
	s.Equal("req-kafka-1", got.RequestID)
	s.True(got.Timestamp.Equal(event.Timestamp))
}

func (s *KafkaStoreSuite) TestListRecentIsUnavailable() {
	_, err := s.store.ListRecent(context.Background(), 10)
	s.ErrorIs(err, sentinel.ErrUnavailable)
}
