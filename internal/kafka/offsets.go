package kafka

import "sync"

// offsetTracker menghitung batas offset contiguous yang sudah selesai per
// partition. Register dipanggil dispatcher sesuai urutan baca (per partition
// selalu naik), Complete dipanggil worker saat pesan selesai diproses.
type offsetTracker struct {
	mu    sync.Mutex
	parts map[int]*partitionOffsets
}

type partitionOffsets struct {
	next int64          // offset terkecil yang belum selesai
	done map[int64]bool // selesai tapi masih ada gap di bawahnya
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{parts: make(map[int]*partitionOffsets)}
}

func (t *offsetTracker) Register(partition int, offset int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.parts[partition]; !ok {
		// offset pertama yang dibaca = titik awal contiguity
		t.parts[partition] = &partitionOffsets{next: offset, done: make(map[int64]bool)}
	}
}

// Complete menandai offset selesai. Kalau batas contiguous maju, return
// offset tertinggi yang aman di-commit (dan true); kalau masih ada gap
// di bawahnya, return false.
func (t *offsetTracker) Complete(partition int, offset int64) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.parts[partition]
	if !ok {
		return 0, false
	}
	p.done[offset] = true
	advanced := false
	for p.done[p.next] {
		delete(p.done, p.next)
		p.next++
		advanced = true
	}
	if !advanced {
		return 0, false
	}
	return p.next - 1, true
}
