package kafka

import (
	"context"
	"testing"
)

// Request yang masih jalan saat graceful shutdown boleh tetap memanggil
// Publish; harus drop diam-diam, bukan panic "send on closed channel".
func TestProducer_PublishAfterCtxCancelDoesNotPanic(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "test-topic", 4)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	cancel()
	p.WaitClosed()

	p.Publish([]byte("k"), []byte("v"))
	p.Publish([]byte("k2"), []byte("v2"))
}

func TestProducer_CloseIsIdempotentAndUnblocksWait(t *testing.T) {
	p := NewProducer([]string{"127.0.0.1:1"}, "test-topic", 4)
	p.Start(context.Background())

	p.Close()
	p.Close() // double close harus aman
	p.WaitClosed()

	p.Publish([]byte("k"), []byte("v")) // drop, bukan panic
}

func TestProducer_PublishWithFullInboxDoesNotBlock(t *testing.T) {
	// Start tidak dipanggil: tidak ada yang drain, inbox kapasitas 1
	p := NewProducer([]string{"127.0.0.1:1"}, "test-topic", 1)
	p.Publish([]byte("a"), []byte("1"))
	p.Publish([]byte("b"), []byte("2")) // penuh: drop, tidak blok
}
