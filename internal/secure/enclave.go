package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer holds one resolved secret value in protected memory. The value is
// encrypted at rest (XSalsa20Poly1305) and the plaintext only exists inside
// short-lived locked buffers opened by the caller.
type Buffer struct {
	enclave   *memguard.Enclave
	mu        sync.RWMutex
	destroyed bool
}

// NewBuffer copies data into a protected memory region. The caller keeps
// ownership of the input slice and should zero it when possible.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the value into a locked buffer. The caller MUST call
// Destroy() on the returned buffer when done to wipe the plaintext.
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return b.enclave.Open()
}

// Bytes opens the value and returns a plain copy of it. The copy is the
// caller's responsibility; use it only where the value has to leave
// protected memory anyway, such as building the materialized resource.
func (b *Buffer) Bytes() ([]byte, error) {
	locked, err := b.Open()
	if err != nil {
		return nil, err
	}
	defer locked.Destroy()

	out := make([]byte, len(locked.Bytes()))
	copy(out, locked.Bytes())
	return out, nil
}

// Destroy marks the buffer as destroyed and prevents further use. It is
// idempotent; after Destroy, Open returns an empty buffer. For full cleanup
// of all protected memory at process exit, call memguard.Purge in main.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}
