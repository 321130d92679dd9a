package kafka

import (
	"strings"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

const (
	BooksTopic = "bookshelf.books"
)

type Config struct {
	Addrs             []string `envconfig:"KAFKA_ADDRS"`
	Partitions        int32    `envconfig:"KAFKA_PARTITIONS" default:"1"`
	ReplicationFactor int16    `envconfig:"KAFKA_REPLICATION_FACTOR" default:"1"`
}

func (c Config) Enabled() bool {
	for _, addr := range c.Addrs {
		if strings.TrimSpace(addr) != "" {
			return true
		}
	}
	return false
}

func NewSyncProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Retry.Max = 3

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

// CreateTopics creates the missing topics; existing ones are left alone.
func CreateTopics(cfg Config, topics ...string) error {
	admin, err := sarama.NewClusterAdmin(cfg.Addrs, sarama.NewConfig())
	if err != nil {
		return errors.Wrap(err, "sarama.NewClusterAdmin")
	}
	defer admin.Close()

	for _, topic := range topics {
		err := admin.CreateTopic(topic, &sarama.TopicDetail{
			NumPartitions:     cfg.Partitions,
			ReplicationFactor: cfg.ReplicationFactor,
		}, false)
		if err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
			return errors.Wrapf(err, "create topic %s", topic)
		}
	}
	return nil
}
