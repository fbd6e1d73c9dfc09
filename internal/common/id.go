package common

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	idMu   sync.Mutex
	idMono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	idMono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewID returns a time-sortable ULID string. IDs generated within the same
// millisecond remain increasing.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), idMono)
	if err != nil {
		// Only fails if the clock goes backwards past the monotonic window.
		panic(err)
	}
	return id.String()
}
