package producers_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/deliverysim/internal/simulator/producers"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSaramaConfig(t *testing.T) {
	cfg := producers.NewSaramaConfig()

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
}

func TestSaramaProducer_WriteMessage(t *testing.T) {
	t.Run("should publish the payload to the topic", func(t *testing.T) {
		// Arrange
		mock := mocks.NewSyncProducer(t, producers.NewSaramaConfig())
		mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			if string(val) != `{"eventType":"order_created"}` {
				return errors.New("unexpected payload " + string(val))
			}
			return nil
		})
		p := producers.NewSaramaProducerFrom(mock, discard())

		// Act
		err := p.WriteMessage("order_created_events", []byte(`{"eventType":"order_created"}`))

		// Assert
		require.NoError(t, err)
		require.NoError(t, p.Close())
	})

	t.Run("should surface broker errors", func(t *testing.T) {
		mock := mocks.NewSyncProducer(t, producers.NewSaramaConfig())
		mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
		p := producers.NewSaramaProducerFrom(mock, discard())

		err := p.WriteMessage("accident_events", []byte(`{}`))

		require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
		require.NoError(t, p.Close())
	})

	t.Run("should refuse writes after close", func(t *testing.T) {
		p := producers.NewSaramaProducerFrom(mocks.NewSyncProducer(t, producers.NewSaramaConfig()), discard())
		require.NoError(t, p.Close())

		assert.Error(t, p.WriteMessage("accident_events", []byte(`{}`)))
		assert.NoError(t, p.Close())
	})
}
