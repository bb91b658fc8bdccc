package kafka

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	workers int
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers}
}

// Start: dispatcher baca pesan, workers proses paralel. Offset group hanya
// di-commit sampai batas contiguous yang sudah selesai per partition —
// commit pesan offset 6 tidak boleh meloncati offset 5 yang masih
// gagal/di-retry, supaya redelivery setelah restart tetap terjamin.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, 1024)
	errs := make(chan error, c.workers)
	tracker := newOffsetTracker()

	var commitMu sync.Mutex
	lastCommit := make(map[int]int64)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for m := range jobs {
				if !c.process(ctx, h, m, errs) {
					return // ctx selesai di tengah retry
				}
				upTo, ok := tracker.Complete(m.Partition, m.Offset)
				if !ok {
					continue // offset lebih kecil masih in-flight
				}
				commitMu.Lock()
				if last, seen := lastCommit[m.Partition]; !seen || upTo > last {
					commit := kafka.Message{Topic: m.Topic, Partition: m.Partition, Offset: upTo}
					if err := c.r.CommitMessages(ctx, commit); err == nil {
						lastCommit[m.Partition] = upTo
					} else {
						select {
						case errs <- err:
						default:
						}
					}
				}
				commitMu.Unlock()
			}
		}(i)
	}

	// dispatcher loop
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			close(jobs)
			wg.Wait()
			// kecilkan noise saat shutdown
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		tracker.Register(m.Partition, m.Offset)
		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil
		}

		// non-blocking drain error agar tidak deadlock
		select {
		case e := <-errs:
			log.Printf("worker error: %v", e)
		default:
		}
	}
}

// process: retry handler dengan backoff sampai sukses atau ctx selesai.
// Error transient (store lagi down) tidak boleh bikin pesan hilang.
func (c *Consumer) process(ctx context.Context, h Handler, m kafka.Message, errs chan<- error) bool {
	backoff := 200 * time.Millisecond
	for {
		err := h(ctx, m)
		if err == nil {
			return true
		}
		select {
		case errs <- err:
		default:
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}
}
